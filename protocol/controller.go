package protocol

import (
	"bufio"
	"fmt"
	"net"
	"time"
)

const maxReconnectAttempts = 100

type MessageHandler func([]byte) error

// ConnectionController pumps framed messages between a client and the game
// server: one writer goroutine fed by a channel, one read loop dispatching
// to registered handlers.
type ConnectionController struct {
	server           net.Conn
	messageHandlers  map[MessageType]MessageHandler
	messageChannel   chan []byte
	Connected        bool
	host             string
	port             uint16
	AttemptReconnect bool
}

func CreateConnectionController() *ConnectionController {
	controller := &ConnectionController{
		messageHandlers: make(map[MessageType]MessageHandler),
		messageChannel:  make(chan []byte, 64),
	}
	controller.startWriter()
	return controller
}

func (controller *ConnectionController) startWriter() {
	go func() {
		for message := range controller.messageChannel {
			if !controller.Connected {
				fmt.Println("Attempted to write to not connected server")
				continue
			}
			if _, err := controller.server.Write(message); err != nil {
				fmt.Println("Error writing to server:", err)
				return
			}
		}
	}()
}

func (controller *ConnectionController) SendMessage(message []byte) error {
	select {
	case controller.messageChannel <- message:
	default:
		return fmt.Errorf("Failed to write to message channel")
	}
	return nil
}

func (controller *ConnectionController) RegisterHandler(msgType MessageType, handlerFunc MessageHandler) {
	controller.messageHandlers[msgType] = handlerFunc
}

func (controller *ConnectionController) HandleMessage(data []byte) error {
	msgType := MessageType(data[0])
	handlerFunc, exists := controller.messageHandlers[msgType]
	if !exists {
		return fmt.Errorf("No handler registered for message type: %d", msgType)
	}
	return handlerFunc(data)
}

func (controller *ConnectionController) Connect(host string, port uint16) error {
	if controller.Connected {
		return fmt.Errorf("Controller already connected")
	}
	controller.host = host
	controller.port = port
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return err
	}
	controller.server = conn
	controller.Connected = true
	return nil
}

func (controller *ConnectionController) SetConnection(conn net.Conn) error {
	if controller.Connected {
		return fmt.Errorf("Controller is already connected")
	}
	controller.server = conn
	controller.Connected = true
	return nil
}

func (controller *ConnectionController) GetServerAddress() string {
	if !controller.Connected {
		return ""
	}
	return controller.server.RemoteAddr().String()
}

func (controller *ConnectionController) tryReconnect() bool {
	for attempts := 0; attempts < maxReconnectAttempts; attempts++ {
		fmt.Printf("Attempting to reconnect... (%d/%d)\n", attempts+1, maxReconnectAttempts)
		time.Sleep(2 * time.Second)
		if err := controller.Connect(controller.host, controller.port); err == nil {
			go controller.ReadServerResponse()
			fmt.Println("Reconnected successfully.")
			return true
		}
	}
	fmt.Println("Failed to reconnect after max attempts.")
	return false
}

// ReadServerResponse blocks reading framed messages until the connection
// drops, optionally reconnecting.
func (controller *ConnectionController) ReadServerResponse() error {
	reader := bufio.NewReader(controller.server)
	for {
		message, err := ReadFramedMessage(reader)
		if err != nil {
			controller.Connected = false
			if controller.AttemptReconnect && controller.tryReconnect() {
				return nil
			}
			return fmt.Errorf("lost connection to server: %v", err)
		}
		if err := controller.HandleMessage(message); err != nil {
			fmt.Println(err.Error())
		}
	}
}
