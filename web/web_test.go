package web_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mid0o/minesweeper/mines"
	"github.com/mid0o/minesweeper/web"
)

func dialTestHandler(t *testing.T) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(&web.Handler{TickInterval: time.Hour})
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func roundtrip(t *testing.T, conn *websocket.Conn, cmd web.Command) web.Reply {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("Failed to send command: %v", err)
	}
	var reply web.Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("Failed to read reply: %v", err)
	}
	return reply
}

func TestWebSocketGame(t *testing.T) {
	conn := dialTestHandler(t)

	reply := roundtrip(t, conn, web.Command{Action: "new", Difficulty: "easy"})
	if reply.Error != "" {
		t.Fatalf("Failed to start game: %s", reply.Error)
	}
	if reply.Snapshot == nil || reply.Snapshot.Size != 9 {
		t.Fatalf("Unexpected snapshot: %+v", reply.Snapshot)
	}

	reply = roundtrip(t, conn, web.Command{Action: "reveal", X: 4, Y: 4})
	if reply.Error != "" {
		t.Fatalf("Reveal failed: %s", reply.Error)
	}
	if reply.Snapshot.Phase != mines.Armed && reply.Snapshot.Phase != mines.Won {
		t.Fatalf("Game not running after first reveal: %v", reply.Snapshot.Phase)
	}
	revealedCount := 0
	for _, view := range reply.Snapshot.Cells {
		if view.Revealed {
			revealedCount++
		}
	}
	if revealedCount == 0 {
		t.Fatalf("First reveal uncovered nothing")
	}

	reply = roundtrip(t, conn, web.Command{Action: "hint"})
	if reply.Error != "" {
		t.Fatalf("Hint failed: %s", reply.Error)
	}
	if reply.Hint == nil || reply.Snapshot.HintsRemaining != mines.HintBudget-1 {
		t.Fatalf("Hint not applied: %+v", reply)
	}

	reply = roundtrip(t, conn, web.Command{Action: "reset", KeepLayout: true})
	if reply.Error != "" {
		t.Fatalf("Reset failed: %s", reply.Error)
	}
	for _, view := range reply.Snapshot.Cells {
		if view.Revealed || view.Flagged {
			t.Fatalf("Cell (%d, %d) not hidden after reset", view.X, view.Y)
		}
	}
}

func TestWebSocketRejectsBadCommands(t *testing.T) {
	conn := dialTestHandler(t)

	reply := roundtrip(t, conn, web.Command{Action: "reveal", X: 1, Y: 1})
	if reply.Error == "" {
		t.Fatalf("Expected error revealing without a game")
	}

	reply = roundtrip(t, conn, web.Command{Action: "new", Difficulty: "nope"})
	if reply.Error == "" {
		t.Fatalf("Expected error for unknown difficulty")
	}

	reply = roundtrip(t, conn, web.Command{Action: "new", Difficulty: "easy"})
	if reply.Error != "" {
		t.Fatalf("Failed to start game: %s", reply.Error)
	}
	reply = roundtrip(t, conn, web.Command{Action: "dance"})
	if reply.Error == "" {
		t.Fatalf("Expected error for unknown action")
	}
}
