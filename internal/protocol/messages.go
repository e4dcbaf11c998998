package protocol

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientMessage  MessageType = "client_message"
	TypeClientControl  MessageType = "client_control"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeSessionState   MessageType = "session_state"
	TypeErrorEvent     MessageType = "error_event"
)

// Control actions a client may send.
const (
	ActionReset    = "reset"
	ActionEnd      = "end"
	ActionChannel  = "channel"
	ActionCustomer = "customer"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Seq       int         `json:"seq"`
	Text      string      `json:"text"`
}

type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
	Value     string      `json:"value,omitempty"`
}

type AssistantReply struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Seq       int         `json:"seq"`
	Intent    string      `json:"intent"`
	AgentUsed string      `json:"agent_used"`
	Response  string      `json:"response"`
	Data      any         `json:"data,omitempty"`
	CartTotal int         `json:"cart_total"`
	CartItems int         `json:"cart_items"`
}

type SessionState struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Status     string      `json:"status"`
	Channel    string      `json:"channel"`
	CustomerID string      `json:"customer_id,omitempty"`
	CartTotal  int         `json:"cart_total"`
	CartItems  int         `json:"cart_items"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "invalid envelope")
	}

	switch env.Type {
	case TypeClientMessage:
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid client_message")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid client_control")
		}
		switch msg.Action {
		case ActionReset, ActionEnd:
		case ActionChannel, ActionCustomer:
			if msg.Action == ActionChannel && msg.Value == "" {
				return nil, errors.New("client_control channel requires a value")
			}
		default:
			return nil, errors.Errorf("invalid client_control action %q", msg.Action)
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
