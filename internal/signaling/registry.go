package signaling

import "sync"

// SessionState holds one session's peer set and per-peer FIFO inboxes.
// Every key in inboxes is always a member of peers; an empty peers set
// means the session is eligible for removal from the registry.
type SessionState struct {
	Peers   map[string]struct{}
	Inboxes map[string][]Message
}

func newSessionState() *SessionState {
	return &SessionState{
		Peers:   make(map[string]struct{}),
		Inboxes: make(map[string][]Message),
	}
}

// peerList snapshots the current peer set into a slice, so fan-out can
// iterate without observing concurrent mutation of the live map. This
// mirrors sfuRoom.others() in the teacher's webrtc/sfu.go.
func (s *SessionState) peerList() []string {
	out := make([]string, 0, len(s.Peers))
	for p := range s.Peers {
		out = append(out, p)
	}
	return out
}

// Registry is the process-wide, in-memory session map. A single
// RWMutex guards every mutation; reads that only need a snapshot
// (peerList) are taken while holding the lock so they observe a
// coherent state, per spec §5's "no release across an operation"
// ordering guarantee.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*SessionState)}
}
