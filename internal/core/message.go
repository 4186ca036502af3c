package core

import (
	"encoding/json"

	"github.com/dkeye/Consult/internal/domain"
)

type MessageType string

const (
	MsgJoin       MessageType = "join"
	MsgLeave      MessageType = "leave"
	MsgLeft       MessageType = "left"
	MsgRoomInfo   MessageType = "room-info"
	MsgUserJoined MessageType = "user-joined"
	MsgUserLeft   MessageType = "user-left"

	MsgOffer        MessageType = "offer"
	MsgAnswer       MessageType = "answer"
	MsgICECandidate MessageType = "ice-candidate"

	MsgConsentRequested MessageType = "consent-requested"
	MsgConsentResponse  MessageType = "consent-response"
	MsgRecordingStarted MessageType = "recording-started"
	MsgRecordingStopped MessageType = "recording-stopped"

	MsgChat  MessageType = "chat"
	MsgPing  MessageType = "ping"
	MsgPong  MessageType = "pong"
	MsgError MessageType = "error"
)

// MaxChatLen bounds in-call chat text, in runes.
const MaxChatLen = 2000

// Message is the signaling envelope. Negotiation blobs stay raw and are relayed verbatim.
type Message struct {
	Type MessageType `json:"type"`

	RoomID       domain.RoomID   `json:"room_id,omitempty"`
	YourID       domain.UserID   `json:"your_id,omitempty"`
	UserID       domain.UserID   `json:"user_id,omitempty"`
	Role         domain.Role     `json:"role,omitempty"`
	Participants []domain.UserID `json:"participants,omitempty"`
	Initiator    *bool           `json:"initiator,omitempty"`
	Reconnect    bool            `json:"reconnect,omitempty"`

	TargetID  domain.UserID   `json:"target_id,omitempty"`
	FromID    domain.UserID   `json:"from_id,omitempty"`
	FromRole  domain.Role     `json:"from_role,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	Granted *bool  `json:"granted,omitempty"`
	Text    string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode marshals m into a Frame.
func (m Message) Encode() (Frame, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

// ErrorMessage builds the error envelope sent back to the offending client only.
func ErrorMessage(err error) Message {
	return Message{Type: MsgError, Error: CodeOf(err), Text: err.Error()}
}

// BoolPtr is a helper for the optional boolean envelope fields.
func BoolPtr(b bool) *bool { return &b }
