package signaling

import (
	"errors"
	"log"
)

// Errors returned by Route; httpapi maps these to HTTP status codes.
var (
	ErrUnknownSession   = errors.New("signaling: unknown session")
	ErrUnroutableTarget = errors.New("signaling: target peer has no inbox")
)

// BridgeHandler is the Media Bridge's half of the routing decision in
// Route: offers and ICE candidates addressed to the bot peer are
// handed off here instead of being enqueued. Implemented by
// internal/mediabridge.Bridge; defined here so this package never
// imports it back (avoids an import cycle).
type BridgeHandler interface {
	HandleOffer(sessionID, fromPeer, sdp string) error
	HandleRemoteICE(sessionID, fromPeer, candidateJSON string) error
}

// Service wires the Registry to the bot interception rule in Route.
type Service struct {
	reg    *Registry
	bridge BridgeHandler
	log    *log.Logger
}

func NewService(reg *Registry, bridge BridgeHandler, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{reg: reg, bridge: bridge, log: logger}
}

// SetBridge wires the Media Bridge in after construction, breaking the
// constructor cycle between Service and mediabridge.Bridge (the bridge
// itself needs a *Service to enqueue bot-originated messages).
func (s *Service) SetBridge(bridge BridgeHandler) {
	s.bridge = bridge
}

// Join creates the session if absent, adds peer_id, fans out Join to
// every other peer, and (unless the joiner is the bot) enqueues a
// synthetic bot-Join into the joiner's own inbox so it knows to offer
// to the bot.
func (s *Service) Join(sessionID, peerID string) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	session, ok := s.reg.sessions[sessionID]
	if !ok {
		session = newSessionState()
		s.reg.sessions[sessionID] = session
	}
	session.Peers[peerID] = struct{}{}
	if _, ok := session.Inboxes[peerID]; !ok {
		session.Inboxes[peerID] = nil
	}

	enqueueToOthers(session, peerID, Join(peerID))
	if peerID != BotPeerID {
		session.Inboxes[peerID] = append(session.Inboxes[peerID], Join(BotPeerID))
	}

	s.log.Printf("[signal] join session=%s peer=%s", sessionID, peerID)
}

// Leave removes peer_id from the session, destroys its inbox, fans out
// Leave to the remaining peers, and removes the session entirely once
// it has no peers left. Idempotent: unknown session/peer is a no-op.
func (s *Service) Leave(sessionID, peerID string) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	session, ok := s.reg.sessions[sessionID]
	if !ok {
		s.log.Printf("[signal] leave session=%s peer=%s (unknown session)", sessionID, peerID)
		return
	}
	if _, ok := session.Peers[peerID]; !ok {
		s.log.Printf("[signal] leave session=%s peer=%s (unknown peer)", sessionID, peerID)
		return
	}

	delete(session.Peers, peerID)
	delete(session.Inboxes, peerID)
	enqueueToOthers(session, peerID, Leave(peerID))

	if len(session.Peers) == 0 {
		delete(s.reg.sessions, sessionID)
	}

	s.log.Printf("[signal] leave session=%s peer=%s", sessionID, peerID)
}

// Route is the core routing decision described in spec §4.1: bot-
// targeted offers/ICE are handed to the Media Bridge instead of being
// enqueued; everything else is point-to-point delivery into the
// target peer's inbox.
func (s *Service) Route(sessionID, sourcePeer string, msg Message) error {
	if msg.Type == TypeOffer && msg.To == BotPeerID {
		if err := s.bridge.HandleOffer(sessionID, msg.From, msg.SDP); err != nil {
			s.log.Printf("[signal] ffmpeg_bot offer failed session=%s error=%v", sessionID, err)
			return err
		}
		return nil
	}
	if msg.Type == TypeIceCandidate && msg.To == BotPeerID {
		if err := s.bridge.HandleRemoteICE(sessionID, msg.From, msg.Candidate); err != nil {
			s.log.Printf("[signal] ffmpeg_bot ice failed session=%s error=%v", sessionID, err)
			return err
		}
		return nil
	}

	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	session, ok := s.reg.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}

	s.logSignal(sessionID, msg)
	if target := msg.TargetPeer(); target != "" {
		if _, ok := session.Inboxes[target]; ok {
			session.Inboxes[target] = append(session.Inboxes[target], msg)
			return nil
		}
	}

	s.log.Printf("[signal] route_failed session=%s from_peer=%s", sessionID, sourcePeer)
	return ErrUnroutableTarget
}

// Poll atomically drains and returns all pending messages for a peer,
// in FIFO order. Unknown session or peer yields an empty (never nil)
// slice: browsers poll unconditionally and a 404 would be wrong here.
func (s *Service) Poll(sessionID, peerID string) []Message {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	session, ok := s.reg.sessions[sessionID]
	if !ok {
		return []Message{}
	}
	inbox, ok := session.Inboxes[peerID]
	if !ok {
		return []Message{}
	}
	drained := inbox
	session.Inboxes[peerID] = nil
	if drained == nil {
		return []Message{}
	}
	return drained
}

// EnqueueTo pushes msg into to_peer's inbox within session_id, used by
// the Media Bridge to deliver bot-originated Answer/IceCandidate
// messages back through the normal polling path. Silently drops the
// message if the session or the target inbox no longer exists.
func (s *Service) EnqueueTo(sessionID, toPeer string, msg Message) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	session, ok := s.reg.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := session.Inboxes[toPeer]; !ok {
		return
	}
	session.Inboxes[toPeer] = append(session.Inboxes[toPeer], msg)
}

// enqueueToOthers fans a membership event out to every peer in the
// session except source_peer. Called with reg.mu already held.
func enqueueToOthers(session *SessionState, sourcePeer string, msg Message) {
	for _, peerID := range session.peerList() {
		if peerID == sourcePeer {
			continue
		}
		if _, ok := session.Inboxes[peerID]; ok {
			session.Inboxes[peerID] = append(session.Inboxes[peerID], msg)
		}
	}
}

func (s *Service) logSignal(sessionID string, msg Message) {
	switch msg.Type {
	case TypeOffer:
		s.log.Printf("[signal] offer session=%s from=%s to=%s", sessionID, msg.From, msg.To)
	case TypeAnswer:
		s.log.Printf("[signal] answer session=%s from=%s to=%s", sessionID, msg.From, msg.To)
	case TypeIceCandidate:
		s.log.Printf("[signal] ice_candidate session=%s from=%s to=%s", sessionID, msg.From, msg.To)
	case TypeJoin:
		s.log.Printf("[signal] join_event session=%s peer=%s", sessionID, msg.PeerID)
	case TypeLeave:
		s.log.Printf("[signal] leave_event session=%s peer=%s", sessionID, msg.PeerID)
	}
}
