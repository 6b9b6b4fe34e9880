package quiz

import (
	"sync"
	"time"
)

const (
	DefaultQuizDuration = 600 * time.Second
	DefaultRevealDelay  = 2 * time.Second
	DefaultTickInterval = time.Second

	subscriberBuffer = 16
)

type State int

const (
	StateInProgress State = iota
	StateShowingResult
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateShowingResult:
		return "showing_result"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type CompletionReason string

const (
	ReasonFinished CompletionReason = "finished"
	ReasonTimeout  CompletionReason = "timeout"
)

type SessionConfig struct {
	Duration time.Duration
	// RevealDelay is how long the answered question stays revealed before
	// the session moves on. Zero continues immediately.
	RevealDelay  time.Duration
	TickInterval time.Duration
	Now          func() time.Time
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Duration:     DefaultQuizDuration,
		RevealDelay:  DefaultRevealDelay,
		TickInterval: DefaultTickInterval,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Duration <= 0 {
		c.Duration = DefaultQuizDuration
	}
	if c.RevealDelay < 0 {
		c.RevealDelay = 0
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Snapshot is what presentation layers render; it carries no behavior.
type Snapshot struct {
	SessionID        string           `json:"sessionId"`
	State            State            `json:"state"`
	QuestionIndex    int              `json:"questionIndex"`
	TotalQuestions   int              `json:"totalQuestions"`
	Question         *Question        `json:"question,omitempty"`
	SelectedAnswer   *int             `json:"selectedAnswer"`
	LastAnswer       *QuizAnswer      `json:"lastAnswer,omitempty"`
	Answered         int              `json:"answered"`
	RemainingSeconds int              `json:"remainingSeconds"`
	Reason           CompletionReason `json:"completionReason,omitempty"`
}

// Session drives one student's attempt through InProgress, ShowingResult
// and Completed. Every transition runs under the session mutex; the reveal
// continuation and the countdown re-check state before acting.
type Session struct {
	mu sync.Mutex

	id        string
	student   Student
	questions []Question
	cfg       SessionConfig

	state      State
	index      int
	selected   int
	answers    []QuizAnswer
	lastAnswer *QuizAnswer

	startedAt         time.Time
	questionStartedAt time.Time
	deadline          time.Time
	completedAt       time.Time

	revealSeq   uint64
	revealTimer *time.Timer
	stopTicker  chan struct{}
	started     bool
	closed      bool

	reason     CompletionReason
	result     *QuizResult
	done       chan struct{}
	onComplete func(QuizResult)

	subs    map[int]chan Snapshot
	nextSub int
}

func NewSession(id string, student Student, questions []Question, cfg SessionConfig, onComplete func(QuizResult)) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	cfg = cfg.withDefaults()
	now := cfg.Now()

	drawn := make([]Question, len(questions))
	copy(drawn, questions)

	return &Session{
		id:                id,
		student:           student,
		questions:         drawn,
		cfg:               cfg,
		state:             StateInProgress,
		selected:          -1,
		answers:           make([]QuizAnswer, 0, len(questions)),
		startedAt:         now,
		questionStartedAt: now,
		deadline:          now.Add(cfg.Duration),
		done:              make(chan struct{}),
		onComplete:        onComplete,
		subs:              make(map[int]chan Snapshot),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Student() Student {
	return s.student
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Done is closed once the session reaches Completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start launches the countdown. The deadline itself was fixed at creation
// and is enforced by every transition whether or not Start is called.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed || s.state == StateCompleted {
		return
	}
	s.started = true
	s.stopTicker = make(chan struct{})
	go s.runCountdown(s.stopTicker, s.cfg.TickInterval)
}

func (s *Session) runCountdown(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if finished := s.tick(); finished {
				return
			}
		}
	}
}

func (s *Session) tick() bool {
	s.mu.Lock()
	if s.closed || s.state == StateCompleted {
		s.mu.Unlock()
		return true
	}
	if s.expiredLocked() {
		result := s.completeLocked(ReasonTimeout)
		s.mu.Unlock()
		s.finish(result)
		return true
	}
	s.notifyLocked()
	s.mu.Unlock()
	return false
}

// SelectAnswer records the tentative choice for the current question. It
// can be overwritten until Advance.
func (s *Session) SelectAnswer(index int) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		result := s.expireIfDueLocked(err)
		s.mu.Unlock()
		s.finish(result)
		return err
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if index < 0 || index >= len(s.questions[s.index].Options) {
		s.mu.Unlock()
		return ErrInvalidOption
	}

	s.selected = index
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Advance scores the tentative choice, reveals it, and after the reveal
// delay moves to the next question or completes the quiz.
func (s *Session) Advance() error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		result := s.expireIfDueLocked(err)
		s.mu.Unlock()
		s.finish(result)
		return err
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.selected < 0 {
		s.mu.Unlock()
		return ErrNoAnswerSelected
	}

	now := s.cfg.Now()
	question := s.questions[s.index]
	answer := QuizAnswer{
		QuestionID:     question.ID,
		SelectedAnswer: s.selected,
		IsCorrect:      s.selected == question.CorrectAnswer,
		TimeSpent:      now.Sub(s.questionStartedAt).Milliseconds(),
	}
	s.recordLocked(answer)
	s.lastAnswer = &answer
	s.state = StateShowingResult
	s.revealSeq++

	if s.cfg.RevealDelay <= 0 {
		result := s.continueLocked()
		s.mu.Unlock()
		s.finish(result)
		return nil
	}

	seq := s.revealSeq
	s.revealTimer = time.AfterFunc(s.cfg.RevealDelay, func() {
		s.finishReveal(seq)
	})
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Retreat goes back one question and clears the tentative choice. Answers
// already recorded stay until that question is answered again.
func (s *Session) Retreat() error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		result := s.expireIfDueLocked(err)
		s.mu.Unlock()
		s.finish(result)
		return err
	}
	if s.state != StateInProgress || s.index == 0 {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	s.index--
	s.selected = -1
	s.questionStartedAt = s.cfg.Now()
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Timeout completes the session with whatever answers exist. Calling it
// again, or after completion, does nothing.
func (s *Session) Timeout() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	result := s.completeLocked(ReasonTimeout)
	s.mu.Unlock()
	s.finish(result)
}

// Close tears the session down without producing a result if it has not
// completed yet. Pending reveal and countdown callbacks will not fire.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTimersLocked()
	s.closeSubscribersLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Result() (QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return QuizResult{}, false
	}
	return *s.result, true
}

// CompletedAt is zero until the session completes.
func (s *Session) CompletedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedAt
}

// Subscribe streams snapshots on every transition and countdown tick. Slow
// readers miss intermediate snapshots rather than blocking the session, but
// always receive the completed snapshot before the channel is closed.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- s.snapshotLocked()
	if s.closed || s.state == StateCompleted {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) finishReveal(seq uint64) {
	s.mu.Lock()
	if s.closed || s.state != StateShowingResult || seq != s.revealSeq {
		s.mu.Unlock()
		return
	}

	var result *QuizResult
	if s.expiredLocked() {
		result = s.completeLocked(ReasonTimeout)
	} else {
		result = s.continueLocked()
	}
	s.mu.Unlock()
	s.finish(result)
}

func (s *Session) continueLocked() *QuizResult {
	s.revealTimer = nil
	if s.index == len(s.questions)-1 {
		return s.completeLocked(ReasonFinished)
	}

	s.index++
	s.selected = -1
	s.lastAnswer = nil
	s.state = StateInProgress
	s.questionStartedAt = s.cfg.Now()
	s.notifyLocked()
	return nil
}

func (s *Session) completeLocked(reason CompletionReason) *QuizResult {
	if s.state == StateCompleted {
		return nil
	}

	s.stopTimersLocked()

	now := s.cfg.Now()
	result := Score(s.student, s.answers, len(s.questions), now.Sub(s.startedAt), now)
	s.state = StateCompleted
	s.reason = reason
	s.result = &result
	s.completedAt = now
	close(s.done)

	s.notifyLocked()
	s.closeSubscribersLocked()
	return &result
}

func (s *Session) finish(result *QuizResult) {
	if result != nil && s.onComplete != nil {
		s.onComplete(*result)
	}
}

func (s *Session) guardLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateCompleted {
		return ErrInvalidTransition
	}
	if s.expiredLocked() {
		return ErrTimeUp
	}
	return nil
}

func (s *Session) expireIfDueLocked(err error) *QuizResult {
	if err != ErrTimeUp {
		return nil
	}
	return s.completeLocked(ReasonTimeout)
}

func (s *Session) expiredLocked() bool {
	return !s.cfg.Now().Before(s.deadline)
}

// recordLocked keeps one answer per question: answering again after a
// Retreat replaces the earlier record in place.
func (s *Session) recordLocked(answer QuizAnswer) {
	for idx := range s.answers {
		if s.answers[idx].QuestionID == answer.QuestionID {
			s.answers[idx] = answer
			return
		}
	}
	s.answers = append(s.answers, answer)
}

func (s *Session) stopTimersLocked() {
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
	s.revealSeq++
	if s.stopTicker != nil {
		close(s.stopTicker)
		s.stopTicker = nil
	}
}

// notifyLocked offers the current snapshot to every subscriber. The last
// buffer slot is reserved for the completed snapshot.
func (s *Session) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	final := snapshot.State == StateCompleted
	for _, ch := range s.subs {
		if !final && len(ch) >= cap(ch)-1 {
			continue
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		SessionID:      s.id,
		State:          s.state,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.questions),
		Answered:       len(s.answers),
		Reason:         s.reason,
	}

	if s.state != StateCompleted {
		question := s.questions[s.index]
		question.Options = append([]string(nil), question.Options...)
		snapshot.Question = &question

		remaining := s.deadline.Sub(s.cfg.Now())
		if remaining < 0 {
			remaining = 0
		}
		snapshot.RemainingSeconds = int(remaining.Round(time.Second) / time.Second)
	}
	if s.selected >= 0 {
		selected := s.selected
		snapshot.SelectedAnswer = &selected
	}
	if s.lastAnswer != nil && s.state == StateShowingResult {
		last := *s.lastAnswer
		snapshot.LastAnswer = &last
	}
	return snapshot
}
