package orch

import (
	"strings"
	"unicode/utf8"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// member resolves from to its live room entry; a session that was evicted
// or never joined is not a member.
func (o *Orchestrator) member(room domain.RoomID, from core.ParticipantSession) (*domain.User, error) {
	user := from.Meta().User
	cur, ok := o.Registry.Member(room, user.ID)
	if !ok || cur.ID() != from.ID() {
		return nil, core.ErrNotInRoom
	}
	return user, nil
}

// Relay forwards an offer, answer or ice-candidate to msg.TargetID. Only the
// clinician offers and only the patient answers. The payload is opaque and
// forwarded byte for byte. Delivery is fire-and-forget.
func (o *Orchestrator) Relay(room domain.RoomID, from core.ParticipantSession, msg core.Message) error {
	user, err := o.member(room, from)
	if err != nil {
		return err
	}
	if msg.TargetID == "" || msg.TargetID == user.ID {
		return core.ErrInvalidMessage
	}
	target, ok := o.Registry.Member(room, msg.TargetID)
	if !ok {
		return core.ErrNotInRoom
	}
	switch msg.Type {
	case core.MsgOffer:
		if user.Role != domain.RoleClinician {
			return core.ErrNotOfferInitiator
		}
	case core.MsgAnswer:
		if user.Role != domain.RolePatient {
			return core.ErrInvalidMessage
		}
	case core.MsgICECandidate:
	default:
		return core.ErrInvalidMessage
	}
	raw, err := negotiationBlob(msg)
	if err != nil {
		return err
	}
	traceNegotiation(msg, raw)

	out := core.Message{Type: msg.Type, FromID: user.ID}
	switch msg.Type {
	case core.MsgOffer:
		out.Offer = raw
		out.FromRole = user.Role
	case core.MsgAnswer:
		out.Answer = raw
	case core.MsgICECandidate:
		out.Candidate = raw
	}
	o.send(room, target, out)
	log.Debug().Str("module", "orch").Str("room", string(room)).Str("type", string(msg.Type)).Str("from", string(user.ID)).Str("to", string(msg.TargetID)).Msg("relayed")
	return nil
}

// Chat broadcasts a text message to every member, the sender included.
func (o *Orchestrator) Chat(room domain.RoomID, from core.ParticipantSession, text string) error {
	user, err := o.member(room, from)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > core.MaxChatLen {
		return core.ErrInvalidMessage
	}
	o.broadcast(room, "", core.Message{
		Type:     core.MsgChat,
		FromID:   user.ID,
		FromRole: user.Role,
		Text:     text,
	})
	return nil
}
