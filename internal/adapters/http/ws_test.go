package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Consult/internal/core"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server, room, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signaling/" + room + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// expect reads until a message of type want arrives.
func expect(t *testing.T, conn *websocket.Conn, want core.MessageType) core.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg core.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSignalingNegotiation(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	doc := dial(t, srv, "R1", env.doc)
	info := expect(t, doc, core.MsgRoomInfo)
	if info.YourID != "doc" || info.RoomID != "R1" || *info.Initiator {
		t.Fatalf("clinician room-info = %+v", info)
	}

	pat := dial(t, srv, "R1", env.pat)
	info = expect(t, pat, core.MsgRoomInfo)
	if len(info.Participants) != 2 {
		t.Fatalf("patient room-info = %+v", info)
	}
	joined := expect(t, doc, core.MsgUserJoined)
	if joined.UserID != "pat" || !*joined.Initiator {
		t.Fatalf("user-joined = %+v", joined)
	}

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0\r\ns=-\r\n"}`)
	send(t, doc, core.Message{Type: core.MsgOffer, TargetID: "pat", Offer: offer})
	got := expect(t, pat, core.MsgOffer)
	if got.FromID != "doc" || got.FromRole != "clinician" {
		t.Fatalf("offer = %+v", got)
	}

	send(t, pat, core.Message{Type: core.MsgAnswer, TargetID: "doc", Answer: json.RawMessage(`{"type":"answer","sdp":"v=0\r\ns=-\r\n"}`)})
	if got := expect(t, doc, core.MsgAnswer); got.FromID != "pat" {
		t.Fatalf("answer = %+v", got)
	}

	send(t, pat, core.Message{Type: core.MsgOffer, TargetID: "doc", Offer: offer})
	if e := expect(t, pat, core.MsgError); e.Error != "not_offer_initiator" {
		t.Fatalf("patient offer error = %+v", e)
	}

	third := dial(t, srv, "R1", env.pat)
	if e := expect(t, third, core.MsgError); e.Error != "duplicate_participant" {
		t.Fatalf("third connection error = %+v", e)
	}

	pat.Close()
	if left := expect(t, doc, core.MsgUserLeft); left.UserID != "pat" {
		t.Fatalf("user-left = %+v", left)
	}
}

func TestSignalingOversizedMessageKeepsConnection(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	doc := dial(t, srv, "R1", env.doc)
	expect(t, doc, core.MsgRoomInfo)

	big := strings.Repeat("a", 5000)
	send(t, doc, map[string]any{"type": "chat", "message": big})
	if e := expect(t, doc, core.MsgError); e.Error != "invalid_message" {
		t.Fatalf("oversized error = %+v", e)
	}
	send(t, doc, map[string]any{"type": "no-such-type"})
	if e := expect(t, doc, core.MsgError); e.Error != "invalid_message" {
		t.Fatalf("unknown type error = %+v", e)
	}
	send(t, doc, core.Message{Type: core.MsgPing})
	expect(t, doc, core.MsgPong)

	send(t, doc, core.Message{Type: core.MsgChat, Text: "still here"})
	if chat := expect(t, doc, core.MsgChat); chat.Text != "still here" || chat.FromID != "doc" {
		t.Fatalf("chat = %+v", chat)
	}
}

func TestSignalingConsentAndRecording(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	doc := dial(t, srv, "A7", env.doc)
	expect(t, doc, core.MsgRoomInfo)
	pat := dial(t, srv, "A7", env.pat)
	expect(t, pat, core.MsgRoomInfo)

	send(t, doc, core.Message{Type: core.MsgRecordingStarted})
	if e := expect(t, doc, core.MsgError); e.Error != "consent_required" {
		t.Fatalf("recording without consent = %+v", e)
	}

	send(t, doc, core.Message{Type: core.MsgConsentRequested})
	expect(t, pat, core.MsgConsentRequested)
	send(t, pat, core.Message{Type: core.MsgConsentResponse, Granted: core.BoolPtr(true)})
	if resp := expect(t, doc, core.MsgConsentResponse); resp.Granted == nil || !*resp.Granted {
		t.Fatalf("consent-response = %+v", resp)
	}

	send(t, doc, core.Message{Type: core.MsgRecordingStarted})
	expect(t, doc, core.MsgRecordingStarted)
	expect(t, pat, core.MsgRecordingStarted)
	if !env.orch.Recordings.Active("A7") {
		t.Fatal("recording not active")
	}

	doc.Close()
	pat.Close()
	deadline := time.Now().Add(3 * time.Second)
	for env.orch.Recordings.Active("A7") {
		if time.Now().After(deadline) {
			t.Fatal("teardown did not stop the recording")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
