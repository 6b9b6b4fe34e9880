package httpapi

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"blockchain-quiz/internal/quiz"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 1024
)

type streamCommand struct {
	Action string `json:"action"`
	Option *int   `json:"option,omitempty"`
}

type streamMessage struct {
	Type    string       `json:"type"`
	Session *sessionView `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func (a *API) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(a.origins, "*") || slices.Contains(a.origins, origin)
		},
	}
}

// HandleSessionEvents streams a snapshot on every transition and countdown
// tick. Clients may also drive the session over the same socket with
// {"action":"select","option":n}, {"action":"advance"} or {"action":"retreat"}.
func (a *API) HandleSessionEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := a.upgrader().Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade", slog.String("session", session.ID()), slog.Any("err", err))
		return
	}
	defer conn.Close()

	snapshots, unsubscribe := session.Subscribe()
	defer unsubscribe()

	commandErrs := make(chan error, 1)
	readDone := make(chan struct{})
	go a.readCommands(conn, session, commandErrs, readDone)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	student := session.Student()
	for {
		select {
		case snap, open := <-snapshots:
			if !open {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			view := toSessionView(student, snap)
			if err := a.writeStream(conn, streamMessage{Type: "snapshot", Session: &view}); err != nil {
				return
			}
		case cmdErr := <-commandErrs:
			if err := a.writeStream(conn, streamMessage{Type: "error", Error: cmdErr.Error()}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

func (a *API) readCommands(conn *websocket.Conn, session *quiz.Session, errs chan<- error, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.log.Debug("websocket closed", slog.String("session", session.ID()), slog.Any("err", err))
			}
			return
		}

		var err error
		switch cmd.Action {
		case "select":
			if cmd.Option == nil {
				err = quiz.ErrInvalidOption
				break
			}
			err = session.SelectAnswer(*cmd.Option)
		case "advance":
			err = session.Advance()
		case "retreat":
			err = session.Retreat()
		default:
			err = errUnknownAction
		}
		if err != nil {
			select {
			case errs <- err:
			default:
			}
		}
	}
}

func (a *API) writeStream(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		a.log.Debug("websocket write", slog.Any("err", err))
		return err
	}
	return nil
}
