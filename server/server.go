package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mid0o/minesweeper/db"
	"github.com/mid0o/minesweeper/mines"
	"github.com/mid0o/minesweeper/players"
	"github.com/mid0o/minesweeper/protocol"
)

// Store is what the server needs from persistence: accounts plus the
// leaderboard. *db.SQLStore satisfies it.
type Store interface {
	players.PlayerStore
	RecordScore(playerID uint32, difficulty string, seconds uint32) error
	TopScores(difficulty string) ([]db.Score, error)
}

// Session is one connected client with its own private game.
type Session struct {
	client     net.Conn
	id         int
	connected  bool
	writeMutex sync.Mutex
	game       *mines.Game
	player     *players.PlayerInfo
	token      *players.AuthToken
	stopClock  chan struct{}
}

type MessageHandler func(data []byte, session *Session) error

type command struct {
	message []byte
	session *Session
}

type Server struct {
	Name           string
	server         net.Listener
	handlers       map[protocol.MessageType]MessageHandler
	messageChannel chan command
	Port           uint16
	sessions       map[int]*Session
	sessionsMux    sync.Mutex
	store          Store
	auth           *players.Service
	tokenSecret    []byte
	tokenTTL       time.Duration
	TickInterval   time.Duration
}

// ConfigureAuth enables login tokens. An authenticated session gets a
// token at login; its expiry bounds how long wins keep counting for the
// leaderboard.
func (server *Server) ConfigureAuth(secret []byte, ttl time.Duration) {
	server.tokenSecret = secret
	server.tokenTTL = ttl
}

func sendMessage(data []byte, session *Session) {
	if session.connected {
		session.writeMutex.Lock()
		session.client.Write(data)
		session.writeMutex.Unlock()
	}
}

func sendTextMessage(msg string, session *Session) {
	encoded, err := protocol.EncodeTextMessage(msg)
	if err != nil {
		println("Failed to create a message")
		return
	}
	sendMessage(encoded, session)
}

func (server *Server) sendSnapshot(session *Session) error {
	encoded, err := protocol.EncodeBoard(session.game.Snapshot())
	if err != nil {
		return err
	}
	sendMessage(encoded, session)
	return nil
}

// runClock enqueues a TimeSync command every tick so clock advances go
// through the same channel as moves and never race the game.
func (server *Server) runClock(session *Session) {
	ticker := time.NewTicker(server.TickInterval)
	defer ticker.Stop()
	tickMsg, err := protocol.EncodeTimeSync(0)
	if err != nil {
		return
	}
	for {
		select {
		case <-session.stopClock:
			return
		case <-ticker.C:
			server.messageChannel <- command{tickMsg, session}
		}
	}
}

func handleRequest(session *Session, server *Server) {
	reader := bufio.NewReader(session.client)
	fmt.Printf("Session %d connected from %s\n", session.id, session.client.RemoteAddr())
	for {
		message, err := protocol.ReadFramedMessage(reader)
		if err != nil {
			fmt.Printf("Session %d disconnected\n", session.id)
			session.connected = false
			close(session.stopClock)
			server.sessionsMux.Lock()
			delete(server.sessions, session.id)
			server.sessionsMux.Unlock()
			session.client.Close()
			return
		}
		server.messageChannel <- command{message, session}
	}
}

func (server *Server) HandleMessage(data []byte, session *Session) error {
	if len(data) == 0 {
		return fmt.Errorf("Cannot handle empty message")
	}
	msgType := protocol.MessageType(data[0])
	handler, exists := server.handlers[msgType]
	if !exists {
		return fmt.Errorf("No handler registered for message type: %d", msgType)
	}
	return handler(data, session)
}

func (server *Server) registerHandler(msgType protocol.MessageType, handler MessageHandler) {
	server.handlers[msgType] = handler
}

func (server *Server) startGame(session *Session, difficulty mines.Difficulty) error {
	game, err := mines.CreateGame(difficulty)
	if err != nil {
		sendTextMessage(fmt.Sprintf("Cannot start game: %v", err), session)
		return err
	}
	session.game = game
	return server.sendSnapshot(session)
}

func (server *Server) recordWin(session *Session) {
	if session.player == nil || server.store == nil {
		return
	}
	if session.token != nil {
		if ok, err := players.ValidateAuthToken(*session.token, server.tokenSecret); !ok {
			fmt.Printf("Session %d login token no longer valid: %v\n", session.id, err)
			return
		}
	}
	err := server.store.RecordScore(session.player.ID, session.game.Difficulty.Name, uint32(session.game.Elapsed))
	if err != nil {
		fmt.Printf("Failed to record score for %s: %v\n", session.player.Name, err)
	}
}

func (server *Server) handleMoveResult(session *Session, result *mines.MoveResult) error {
	if len(result.UpdatedCells) > 0 {
		var cells []mines.UpdatedCell
		if result.Result == mines.MineBlown {
			// The loss result carries the full mine layout; most of those
			// cells are still hidden, so the generic encoder would mark
			// them unflagged instead of exposing them.
			cells = mines.CreateMineUpdates(result.UpdatedCells)
		} else {
			cells = mines.CreateUpdatedCells(result.UpdatedCells)
		}
		encoded, err := protocol.EncodeCellUpdates(cells)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
	}
	var endMsg []byte
	var err error
	switch result.Result {
	case mines.MineBlown:
		endMsg, err = protocol.EncodeGameEnd(protocol.Loss, session.game.Elapsed)
	case mines.GameWon:
		server.recordWin(session)
		endMsg, err = protocol.EncodeGameEnd(protocol.Win, session.game.Elapsed)
	}
	if err != nil {
		return err
	}
	if endMsg != nil {
		sendMessage(endMsg, session)
	}
	return nil
}

func (server *Server) RegisterHandlers() {
	server.registerHandler(protocol.StartGame, func(data []byte, session *Session) error {
		difficulty, err := protocol.DecodeGameStart(data)
		if err != nil {
			return err
		}
		if session.game != nil && session.game.Phase == mines.Armed {
			msg, err := protocol.EncodeGameEnd(protocol.Aborted, session.game.Elapsed)
			if err != nil {
				return err
			}
			sendMessage(msg, session)
		}
		return server.startGame(session, *difficulty)
	})
	server.registerHandler(protocol.MoveCommand, func(data []byte, session *Session) error {
		if session.game == nil {
			sendTextMessage("No game running. Cant make moves.", session)
			return nil
		}
		move, err := protocol.DecodeMove(data)
		if err != nil {
			return err
		}
		result, err := session.game.MakeMove(*move)
		if err != nil {
			var invalidState *mines.InvalidStateError
			var invalidMove *mines.InvalidMoveError
			if errors.As(err, &invalidState) || errors.As(err, &invalidMove) {
				sendTextMessage(err.Error(), session)
				return nil
			}
			return err
		}
		return server.handleMoveResult(session, result)
	})
	server.registerHandler(protocol.RequestReset, func(data []byte, session *Session) error {
		if session.game == nil {
			sendTextMessage("No game to reset.", session)
			return nil
		}
		keepLayout, err := protocol.DecodeRequestReset(data)
		if err != nil {
			return err
		}
		if err := session.game.Reset(keepLayout); err != nil {
			return err
		}
		return server.sendSnapshot(session)
	})
	server.registerHandler(protocol.HintRequest, func(data []byte, session *Session) error {
		if err := protocol.DecodeHintRequest(data); err != nil {
			return err
		}
		if session.game == nil {
			sendTextMessage("No game running.", session)
			return nil
		}
		hint, err := session.game.UseHint()
		if err != nil {
			sendTextMessage(err.Error(), session)
			return nil
		}
		encoded, err := protocol.EncodeHintResponse(*hint)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
		return nil
	})
	server.registerHandler(protocol.TimeSync, func(data []byte, session *Session) error {
		if session.game == nil || session.game.Phase != mines.Armed {
			return nil
		}
		session.game.Tick()
		encoded, err := protocol.EncodeTimeSync(session.game.Elapsed)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
		return nil
	})
	server.registerHandler(protocol.RegisterPlayerRequest, func(data []byte, session *Session) error {
		params, err := protocol.DecodeRegisterPlayerRequest(data)
		if err != nil {
			return err
		}
		success := server.auth.Register(params.Name, params.Password) == nil
		encoded, err := protocol.EncodeRegisterPlayerResponse(success)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
		return nil
	})
	server.registerHandler(protocol.AuthRequest, func(data []byte, session *Session) error {
		params, err := protocol.DecodeAuthRequest(data)
		if err != nil {
			return err
		}
		response := protocol.AuthResponse{}
		if player, err := server.auth.Login(params.Name, params.Password); err == nil {
			session.player = player.Info()
			response.Success = true
			response.Player = session.player
			if len(server.tokenSecret) > 0 {
				if token, err := players.GenerateAuthToken(player, server.tokenSecret, server.tokenTTL); err == nil {
					session.token = &token
				}
			}
		}
		encoded, err := protocol.EncodeAuthResponse(response)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
		return nil
	})
	server.registerHandler(protocol.HighScoresRequest, func(data []byte, session *Session) error {
		difficulty, err := protocol.DecodeHighScoresRequest(data)
		if err != nil {
			return err
		}
		if server.store == nil {
			sendTextMessage("High scores are not available.", session)
			return nil
		}
		scores, err := server.store.TopScores(difficulty)
		if err != nil {
			return err
		}
		entries := make([]protocol.ScoreEntry, len(scores))
		for i, score := range scores {
			entries[i] = protocol.ScoreEntry{Player: score.Player, Seconds: score.Seconds, Date: score.Date}
		}
		encoded, err := protocol.EncodeHighScoresResponse(entries)
		if err != nil {
			return err
		}
		sendMessage(encoded, session)
		return nil
	})
}

func (server *Server) manageCommands() {
	for command := range server.messageChannel {
		if err := server.HandleMessage(command.message, command.session); err != nil {
			println(err.Error())
		}
	}
}

func createServer(name string, port uint16, store Store) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		fmt.Println("Failed to start server:", err.Error())
		return nil, err
	}
	serverPort := listener.Addr().(*net.TCPAddr).Port
	server := &Server{
		Name:           name,
		server:         listener,
		handlers:       make(map[protocol.MessageType]MessageHandler),
		messageChannel: make(chan command),
		Port:           uint16(serverPort),
		sessions:       make(map[int]*Session),
		store:          store,
		auth:           &players.Service{Store: store},
		TickInterval:   time.Second,
	}
	return server, nil
}

func serverLoop(server *Server) {
	defer server.server.Close()
	id := 1
	for {
		conn, err := server.server.Accept()
		if err != nil {
			return
		}
		session := &Session{
			id:        id,
			client:    conn,
			connected: true,
			stopClock: make(chan struct{}),
		}
		server.sessionsMux.Lock()
		server.sessions[session.id] = session
		server.sessionsMux.Unlock()
		go handleRequest(session, server)
		go server.runClock(session)
		id++
	}
}

func SpawnServer(name string, port uint16, store Store) (*Server, error) {
	server, err := createServer(name, port, store)
	if err != nil {
		return nil, err
	}
	server.RegisterHandlers()
	go server.manageCommands()
	go serverLoop(server)
	return server, nil
}

func (server *Server) Close() error {
	return server.server.Close()
}
