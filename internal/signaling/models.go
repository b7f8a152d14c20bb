// Package signaling implements the session registry, per-peer inbox
// queues, and join/leave/route/poll operations of the signaling relay.
package signaling

import (
	"encoding/json"
	"fmt"
)

// BotPeerID is the reserved peer identifier for the server-side bot
// endpoint. No human peer may claim it; messages addressed to it are
// intercepted before they reach an inbox.
const BotPeerID = "ffmpeg-bot"

// MessageType is the wire discriminant carried in the "type" field.
type MessageType string

const (
	TypeJoin         MessageType = "join"
	TypeLeave        MessageType = "leave"
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeIceCandidate MessageType = "ice_candidate"
)

// Message is the tagged union of the five signaling wire messages.
// Only the fields relevant to Type are populated; the zero value of
// the others is omitted on the wire.
type Message struct {
	Type      MessageType
	PeerID    string // Join, Leave
	From      string // Offer, Answer, IceCandidate
	To        string // Offer, Answer, IceCandidate
	SDP       string // Offer, Answer
	Candidate string // IceCandidate (opaque JSON string)
}

func Join(peerID string) Message  { return Message{Type: TypeJoin, PeerID: peerID} }
func Leave(peerID string) Message { return Message{Type: TypeLeave, PeerID: peerID} }

func Offer(from, to, sdp string) Message {
	return Message{Type: TypeOffer, From: from, To: to, SDP: sdp}
}

func Answer(from, to, sdp string) Message {
	return Message{Type: TypeAnswer, From: from, To: to, SDP: sdp}
}

func IceCandidate(from, to, candidate string) Message {
	return Message{Type: TypeIceCandidate, From: from, To: to, Candidate: candidate}
}

// TargetPeer returns the routable "to" peer for point-to-point
// messages, or "" for membership events which have none.
func (m Message) TargetPeer() string {
	switch m.Type {
	case TypeOffer, TypeAnswer, TypeIceCandidate:
		return m.To
	default:
		return ""
	}
}

// wire mirrors the externally-tagged enum serde produces on the Rust
// side: a flat object with "type" plus the variant's own field names.
// Go has no built-in externally-tagged-enum codec, so MarshalJSON and
// UnmarshalJSON below do by hand what serde(tag = "type",
// rename_all = "snake_case") does for free.
type wire struct {
	Type      MessageType `json:"type"`
	PeerID    string      `json:"peer_id,omitempty"`
	From      string      `json:"from,omitempty"`
	To        string      `json:"to,omitempty"`
	SDP       string      `json:"sdp,omitempty"`
	Candidate string      `json:"candidate,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Type:      m.Type,
		PeerID:    m.PeerID,
		From:      m.From,
		To:        m.To,
		SDP:       m.SDP,
		Candidate: m.Candidate,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case TypeJoin, TypeLeave, TypeOffer, TypeAnswer, TypeIceCandidate:
	default:
		return fmt.Errorf("signaling: unknown message type %q", w.Type)
	}
	*m = Message{
		Type:      w.Type,
		PeerID:    w.PeerID,
		From:      w.From,
		To:        w.To,
		SDP:       w.SDP,
		Candidate: w.Candidate,
	}
	return nil
}
