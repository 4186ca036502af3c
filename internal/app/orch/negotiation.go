package orch

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/Consult/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// negotiationBlob returns the payload field matching the type of msg.
// Blobs are opaque: only their presence is required, they are relayed untouched.
func negotiationBlob(msg core.Message) (json.RawMessage, error) {
	var raw json.RawMessage
	switch msg.Type {
	case core.MsgOffer:
		raw = msg.Offer
	case core.MsgAnswer:
		raw = msg.Answer
	case core.MsgICECandidate:
		raw = msg.Candidate
	default:
		return nil, core.ErrInvalidMessage
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, core.ErrInvalidMessage
	}
	return raw, nil
}

// traceNegotiation logs blobs that do not look like browser WebRTC structures.
// It never rejects anything.
func traceNegotiation(msg core.Message, raw json.RawMessage) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}
	var shapeErr error
	switch msg.Type {
	case core.MsgOffer, core.MsgAnswer:
		var sd webrtc.SessionDescription
		shapeErr = json.Unmarshal(raw, &sd)
	case core.MsgICECandidate:
		var c webrtc.ICECandidateInit
		shapeErr = json.Unmarshal(raw, &c)
	}
	if shapeErr != nil {
		log.Debug().Str("module", "orch").Str("type", string(msg.Type)).Err(shapeErr).Msg("non-standard negotiation payload relayed")
	}
}
