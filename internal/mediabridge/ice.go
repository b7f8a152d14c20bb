package mediabridge

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// iceCandidateWire mirrors the JSON shape of IceCandidatePayload in
// the signaling message's opaque "candidate" field: candidate string
// plus the optional SDP mid / mline-index hints and username fragment.
type iceCandidateWire struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

func marshalICECandidate(c webrtc.ICECandidateInit) (string, error) {
	w := iceCandidateWire{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseICECandidateInit(candidateJSON string) (webrtc.ICECandidateInit, error) {
	var w iceCandidateWire
	if err := json.Unmarshal([]byte(candidateJSON), &w); err != nil {
		return webrtc.ICECandidateInit{}, err
	}
	return webrtc.ICECandidateInit{
		Candidate:        w.Candidate,
		SDPMid:           w.SDPMid,
		SDPMLineIndex:    w.SDPMLineIndex,
		UsernameFragment: w.UsernameFragment,
	}, nil
}
