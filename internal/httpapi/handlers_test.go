package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blockchain-quiz/internal/auth"
	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
	"blockchain-quiz/internal/quiz/kvstore"
)

const testAdminPassword = "s3cret-pass"

type testEnvOptions struct {
	quota     int
	questions int
	source    quiz.QuestionSource
}

type testEnv struct {
	router  http.Handler
	service *quiz.Service
	repo    *kvstore.QuestionRepository
}

func newTestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kv.NewMemory(opts.quota)
	repo := kvstore.NewQuestionRepository(store, logger)
	results := kvstore.NewResultStore(store, time.UTC, logger)

	for idx := 0; idx < opts.questions; idx++ {
		_, err := repo.Add(context.Background(), quiz.QuestionDraft{
			Question:      "Which option is right?",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: 1,
			Explanation:   "B is right.",
		})
		if err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	count := opts.questions
	if count == 0 {
		count = 3
	}
	service := quiz.NewService(repo, results, nil, quiz.ServiceConfig{
		QuestionCount: count,
		Session:       quiz.SessionConfig{Duration: time.Minute, RevealDelay: -1},
	}, logger)

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	authService, err := auth.New(auth.Config{User: "admin", PasswordHash: hash, Secret: "test-secret"})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}

	router := NewRouter(Options{
		Service:        service,
		Banks:          kvstore.NewBankStore(store, logger),
		QuestionSource: opts.source,
		Auth:           authService,
		Location:       time.UTC,
		RenderPDF: func(context.Context, []byte) ([]byte, error) {
			return []byte("%PDF-1.4 test"), nil
		},
		Logger: logger,
	})

	return &testEnv{router: router, service: service, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch payload := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(payload)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/admin/login", adminLoginRequest{Username: "admin", Password: testAdminPassword}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp adminLoginResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}

func (e *testEnv) startSession(t *testing.T) sessionView {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/sessions", startSessionRequest{Name: "Ada Lovelace", RollNumber: "r001"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var view sessionView
	decodeBody(t, rec, &view)
	t.Cleanup(func() { _ = e.service.EndSession(view.SessionID) })
	return view
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestSessionFlowProducesResultAndCertificate(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{questions: 2})

	view := env.startSession(t)
	if view.Student.RollNumber != "R001" || view.TotalQuestions != 2 {
		t.Fatalf("unexpected session: %+v", view)
	}
	if view.Question == nil || view.Question.CorrectAnswer != nil {
		t.Fatalf("answer key must stay hidden while in progress: %+v", view.Question)
	}

	base := "/api/sessions/" + view.SessionID
	if rec := env.do(t, http.MethodGet, base+"/result", nil, ""); rec.Code != http.StatusConflict {
		t.Fatalf("result before completion: status = %d, want 409", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, base+"/certificate", nil, ""); rec.Code != http.StatusConflict {
		t.Fatalf("certificate before completion: status = %d, want 409", rec.Code)
	}

	for idx := 0; idx < 2; idx++ {
		if rec := env.do(t, http.MethodPost, base+"/select", map[string]int{"option": 1}, ""); rec.Code != http.StatusOK {
			t.Fatalf("select status = %d: %s", rec.Code, rec.Body.String())
		}
		if rec := env.do(t, http.MethodPost, base+"/advance", nil, ""); rec.Code != http.StatusOK {
			t.Fatalf("advance status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, base, nil, "")
	decodeBody(t, rec, &view)
	if view.State != quiz.StateCompleted || view.Reason != quiz.ReasonFinished || view.Question != nil {
		t.Fatalf("expected finished session, got %+v", view)
	}

	rec = env.do(t, http.MethodGet, base+"/result", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d", rec.Code)
	}
	var result quiz.QuizResult
	decodeBody(t, rec, &result)
	if result.Percentage != 100 || !result.Passed || result.CorrectAnswers != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec = env.do(t, http.MethodGet, base+"/certificate", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ada Lovelace") {
		t.Fatalf("certificate status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "certificate_R001_") || !strings.HasSuffix(cd, `.html"`) {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	rec = env.do(t, http.MethodGet, base+"/certificate?format=pdf", nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	board := env.do(t, http.MethodGet, "/api/leaderboard", nil, "")
	var lb leaderboardResponse
	decodeBody(t, board, &lb)
	if len(lb.Leaderboard) != 1 || lb.Leaderboard[0].Rank != 1 || lb.Leaderboard[0].Percentage != 100 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
}

func TestSessionTransitionErrors(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{questions: 2})
	base := "/api/sessions/" + env.startSession(t).SessionID

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "advance without answer", path: "/advance", status: http.StatusConflict},
		{name: "retreat on first question", path: "/retreat", status: http.StatusConflict},
		{name: "option out of range", path: "/select", body: map[string]int{"option": 4}, status: http.StatusBadRequest},
		{name: "missing option", path: "/select", body: map[string]string{}, status: http.StatusBadRequest},
		{name: "unknown field", path: "/select", body: map[string]int{"answer": 1}, status: http.StatusBadRequest},
		{name: "malformed body", path: "/select", body: "{", status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, base+tc.path, tc.body, "")
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestSessionNotFoundAndTeardown(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{questions: 1})

	if rec := env.do(t, http.MethodGet, "/api/sessions/missing", nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	id := env.startSession(t).SessionID
	if rec := env.do(t, http.MethodDelete, "/api/sessions/"+id, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/sessions/"+id, nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}

func TestStartSessionRejectsInvalidStudent(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	rec := env.do(t, http.MethodPost, "/api/sessions", startSessionRequest{Name: "A", RollNumber: "R001"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Field != "name" {
		t.Fatalf("field = %q, want name", resp.Field)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	if rec := env.do(t, http.MethodGet, "/api/admin/questions", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/questions", nil, "not-a-token"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want 401", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/admin/login", adminLoginRequest{Username: "admin", Password: "wrong"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}
}

func TestAdminQuestionLifecycle(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	token := env.adminToken(t)

	draft := quiz.QuestionDraft{
		Question:      "What links blocks together?",
		Options:       []string{"Hashes", "Emails", "Cookies", "Threads"},
		CorrectAnswer: 0,
		Category:      "Structure",
		Difficulty:    quiz.DifficultyEasy,
	}
	rec := env.do(t, http.MethodPost, "/api/admin/questions", draft, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	var added quiz.AdminQuestion
	decodeBody(t, rec, &added)

	bad := draft
	bad.Options = bad.Options[:3]
	rec = env.do(t, http.MethodPost, "/api/admin/questions", bad, token)
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if rec.Code != http.StatusBadRequest || resp.Field != "options" {
		t.Fatalf("invalid add: status = %d field = %q", rec.Code, resp.Field)
	}

	path := "/api/admin/questions/" + jsonNumber(added.ID)
	rec = env.do(t, http.MethodPut, path, map[string]any{"correctAnswer": 2}, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.repo.List(context.Background()); len(got) != 1 || got[0].CorrectAnswer != 2 {
		t.Fatalf("update not stored: %+v", got)
	}

	if rec := env.do(t, http.MethodPut, "/api/admin/questions/abc", map[string]any{}, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, path, nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if got := env.repo.List(context.Background()); len(got) != 0 {
		t.Fatalf("expected no questions, got %d", len(got))
	}
}

func TestAdminImportAndExport(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	token := env.adminToken(t)

	payload := `[{"question":"Q one","options":["a","b","c","d"],"correctAnswer":3},{"question":"Q, \"two\"","options":["a","b","c","d"],"correctAnswer":0}]`
	rec := env.do(t, http.MethodPost, "/api/admin/questions/import", payload, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	var imported importResponse
	decodeBody(t, rec, &imported)
	if imported.Imported != 2 {
		t.Fatalf("imported = %d, want 2", imported.Imported)
	}

	rec = env.do(t, http.MethodPost, "/api/admin/questions/import", `{"question":"not an array"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad import status = %d, want 400", rec.Code)
	}
	if got := env.repo.List(context.Background()); len(got) != 2 {
		t.Fatalf("rejected import must not write, have %d questions", len(got))
	}

	rec = env.do(t, http.MethodGet, "/api/admin/questions/export?format=csv", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "blockchain-questions-") || !strings.HasSuffix(cd, `.csv"`) {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(rows) != 3 || rows[2][1] != `Q, "two"` {
		t.Fatalf("unexpected rows: %q", rows)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/questions/export", nil, token)
	var exported []quiz.AdminQuestion
	decodeBody(t, rec, &exported)
	if len(exported) != 2 {
		t.Fatalf("json export has %d questions, want 2", len(exported))
	}

	if rec := env.do(t, http.MethodGet, "/api/admin/questions/export?format=xml", nil, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestAdminBanks(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/admin/banks", quiz.BankDraft{Name: " Consensus ", Description: "PoW and PoS"}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var bank quiz.QuestionBank
	decodeBody(t, rec, &bank)
	if bank.ID == "" || bank.Name != "Consensus" {
		t.Fatalf("unexpected bank: %+v", bank)
	}

	if rec := env.do(t, http.MethodPost, "/api/admin/banks", quiz.BankDraft{}, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty bank status = %d, want 400", rec.Code)
	}

	var list banksResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/admin/banks", nil, token), &list)
	if len(list.Banks) != 1 {
		t.Fatalf("expected 1 bank, got %d", len(list.Banks))
	}

	if rec := env.do(t, http.MethodDelete, "/api/admin/banks/"+bank.ID, nil, token); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/admin/banks", nil, token), &list)
	if len(list.Banks) != 0 {
		t.Fatalf("expected no banks, got %d", len(list.Banks))
	}
}

func TestStorageFailureIsServiceUnavailable(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{quota: 64})
	token := env.adminToken(t)

	draft := quiz.QuestionDraft{
		Question: strings.Repeat("long question ", 10),
		Options:  []string{"A", "B", "C", "D"},
	}
	rec := env.do(t, http.MethodPost, "/api/admin/questions", draft, token)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (%s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "quota") {
		t.Fatalf("storage detail leaked to client: %s", rec.Body.String())
	}
}

func TestLeaderboardExportAndLimit(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{questions: 1})

	view := env.startSession(t)
	base := "/api/sessions/" + view.SessionID
	env.do(t, http.MethodPost, base+"/select", map[string]int{"option": 0}, "")
	env.do(t, http.MethodPost, base+"/advance", nil, "")

	if rec := env.do(t, http.MethodGet, "/api/leaderboard?limit=abc", nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/leaderboard/export", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "Rank,"+export.ResultsCSVHeader {
		t.Fatalf("unexpected leaderboard csv: %q", lines)
	}
	if !strings.Contains(lines[1], `"Ada Lovelace"`) || !strings.Contains(lines[1], "FAIL") {
		t.Fatalf("unexpected row: %q", lines[1])
	}

	rec = env.do(t, http.MethodGet, "/api/results/export", nil, "")
	var results []quiz.QuizResult
	decodeBody(t, rec, &results)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("unexpected results export: %+v", results)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "blockchain-quiz-results-") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

type stubSource struct {
	drafts []quiz.QuestionDraft
	err    error
}

func (s stubSource) FetchDrafts(context.Context, int) ([]quiz.QuestionDraft, error) {
	return s.drafts, s.err
}

func TestAdminFetchQuestions(t *testing.T) {
	source := stubSource{drafts: []quiz.QuestionDraft{{
		Question:      "Which hash does Bitcoin mining use?",
		Options:       []string{"SHA-256", "MD5", "Scrypt", "Keccak"},
		CorrectAnswer: 0,
		Tags:          []string{"opentdb"},
	}}}
	env := newTestEnv(t, testEnvOptions{source: source})
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/admin/questions/fetch?amount=5", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("fetch status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.repo.List(context.Background()); len(got) != 1 || got[0].Tags[0] != "opentdb" {
		t.Fatalf("fetched question not stored: %+v", got)
	}

	if rec := env.do(t, http.MethodPost, "/api/admin/questions/fetch?amount=500", nil, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized amount status = %d, want 400", rec.Code)
	}

	failing := newTestEnv(t, testEnvOptions{source: stubSource{err: errors.New("dial tcp: refused")}})
	if rec := failing.do(t, http.MethodPost, "/api/admin/questions/fetch", nil, failing.adminToken(t)); rec.Code != http.StatusBadGateway {
		t.Fatalf("failing source status = %d, want 502", rec.Code)
	}

	unconfigured := newTestEnv(t, testEnvOptions{})
	if rec := unconfigured.do(t, http.MethodPost, "/api/admin/questions/fetch", nil, unconfigured.adminToken(t)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("missing source status = %d, want 503", rec.Code)
	}
}
