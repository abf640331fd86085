package web

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mid0o/minesweeper/mines"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Command is one JSON message from the browser. Fields beyond Action are
// only read for the actions that need them.
type Command struct {
	Action     string `json:"action"`
	Difficulty string `json:"difficulty,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	KeepLayout bool   `json:"keepLayout,omitempty"`
}

type Reply struct {
	Snapshot *mines.Snapshot `json:"snapshot,omitempty"`
	Hint     *mines.Hint     `json:"hint,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// session is one websocket connection with its own private game. All game
// and connection access goes through mu, including the clock goroutine.
type session struct {
	conn *websocket.Conn
	game *mines.Game
	mu   sync.Mutex
}

type Handler struct {
	// TickInterval defaults to one second.
	TickInterval time.Duration
}

func (h *Handler) tickInterval() time.Duration {
	if h.TickInterval > 0 {
		return h.TickInterval
	}
	return time.Second
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	s := &session{conn: conn}
	stop := make(chan struct{})
	go h.runClock(s, stop)
	defer func() {
		close(stop)
		conn.Close()
	}()
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		s.handleCommand(cmd)
	}
}

func (h *Handler) runClock(s *session, stop chan struct{}) {
	ticker := time.NewTicker(h.tickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.game != nil && s.game.Phase == mines.Armed {
				s.game.Tick()
				s.conn.WriteJSON(Reply{Snapshot: snapshotPtr(s.game)})
			}
			s.mu.Unlock()
		}
	}
}

func snapshotPtr(game *mines.Game) *mines.Snapshot {
	snapshot := game.Snapshot()
	return &snapshot
}

func (s *session) handleCommand(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.apply(cmd)
	if err := s.conn.WriteJSON(reply); err != nil {
		log.Printf("Failed to write websocket reply: %v", err)
	}
}

func (s *session) apply(cmd Command) Reply {
	if cmd.Action == "new" {
		difficulty, err := mines.GetDifficulty(cmd.Difficulty)
		if err != nil {
			return Reply{Error: err.Error()}
		}
		game, err := mines.CreateGame(difficulty)
		if err != nil {
			return Reply{Error: err.Error()}
		}
		s.game = game
		return Reply{Snapshot: snapshotPtr(s.game)}
	}
	if s.game == nil {
		return Reply{Error: "no game running"}
	}
	switch cmd.Action {
	case "reveal":
		if _, err := s.game.Reveal(cmd.X, cmd.Y); err != nil {
			return Reply{Error: err.Error()}
		}
	case "flag":
		if _, err := s.game.ToggleFlag(cmd.X, cmd.Y); err != nil {
			return Reply{Error: err.Error()}
		}
	case "hint":
		hint, err := s.game.UseHint()
		if err != nil {
			return Reply{Error: err.Error()}
		}
		return Reply{Hint: hint, Snapshot: snapshotPtr(s.game)}
	case "reset":
		if err := s.game.Reset(cmd.KeepLayout); err != nil {
			return Reply{Error: err.Error()}
		}
	default:
		return Reply{Error: "unknown action: " + cmd.Action}
	}
	return Reply{Snapshot: snapshotPtr(s.game)}
}

// Serve blocks running the browser endpoint on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", &Handler{})
	server := &http.Server{Addr: addr, Handler: mux}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
