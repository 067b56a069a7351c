// internal/websocket/message.go
package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

type MessageType string

const (
	// server -> client
	MessageConnected     MessageType = "connected"
	MessageDisconnected  MessageType = "disconnected"
	MessageSecurityEvent MessageType = "security_event"
	MessagePong          MessageType = "pong"
	MessageError         MessageType = "error"

	// client -> server
	MessagePing MessageType = "ping"
)

// Message is the envelope of every frame on the event stream.
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, data interface{}) *Message {
	return &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message type is required")
	}
	return &msg, nil
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
