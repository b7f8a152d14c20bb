// Package mediabridge implements the bot peer: on a self-addressed
// offer it builds a peer connection, spawns the external H.264
// encoder, reframes its Annex-B stdout into access units, and feeds
// them into the outbound video track. An inbound "input" data channel
// is funneled into internal/inputadapter.
package mediabridge

import (
	"fmt"
	"log"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"

	"github.com/n0remac/desktop-bridge/internal/inputadapter"
	"github.com/n0remac/desktop-bridge/internal/signaling"
)

// BotPeerID mirrors signaling.BotPeerID; redeclared here so callers of
// this package don't need to reach into internal/signaling just to
// name the bot.
const BotPeerID = signaling.BotPeerID

const (
	videoMimeType   = webrtc.MimeTypeH264
	videoClockRate  = 90000
	videoFmtpLine   = "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f"
	inputChannelTag = "input"
	sampleDuration  = 33 // ms, spec §4.4
)

// bridgeLog is package-scoped so the stderr-draining goroutine in
// encoder.go (which is not a method on Bridge) can log through it.
var bridgeLog = log.Default()

// streamSession exclusively owns one peer connection and one child
// encoder process for a (session_id, remote_peer_id) pair. The
// encoder handle is guarded by its own mutex so Kill and the pump's
// fetch of the handle cannot race; the stdout reads themselves run
// outside the mutex.
type streamSession struct {
	pc      *webrtc.PeerConnection
	mu      sync.Mutex
	encoder *EncoderProcess
}

// Bridge is the Media Bridge described in spec §3/§4.2: a map from
// "session_id:remote_peer_id" to its streamSession, guarded by a lock
// that is never nested inside the signaling registry's lock.
type Bridge struct {
	reg *signaling.Service

	mu       sync.Mutex
	sessions map[string]*streamSession
}

func NewBridge(reg *signaling.Service, logger *log.Logger) *Bridge {
	if logger != nil {
		bridgeLog = logger
	}
	return &Bridge{reg: reg, sessions: make(map[string]*streamSession)}
}

func sessionKey(sessionID, peerID string) string {
	return sessionID + ":" + peerID
}

// HandleOffer implements signaling.BridgeHandler. It is the
// construction protocol of spec §4.2 steps 1-8.
func (b *Bridge) HandleOffer(sessionID, fromPeer, offerSDP string) error {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return fmt.Errorf("register_default_codecs failed: %w", err)
	}
	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return fmt.Errorf("register_default_interceptors failed: %w", err)
	}
	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
	)

	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return fmt.Errorf("new_peer_connection failed: %w", err)
	}

	videoTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{
			MimeType:    videoMimeType,
			ClockRate:   videoClockRate,
			Channels:    0,
			SDPFmtpLine: videoFmtpLine,
		},
		"video", BotPeerID,
	)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("new_track_local_static_sample failed: %w", err)
	}

	sender, err := pc.AddTrack(videoTrack)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("add_track failed: %w", err)
	}

	session := &streamSession{pc: pc}

	b.wireDataChannel(pc)
	b.wireRTCPDrain(sender)
	b.wireICECandidate(pc, sessionID, fromPeer)
	b.wireConnectionState(pc, sessionID, fromPeer)

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		_ = pc.Close()
		return fmt.Errorf("offer sdp parse failed: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("create_answer failed: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		_ = pc.Close()
		return fmt.Errorf("set_local_description failed: %w", err)
	}

	b.reg.EnqueueTo(sessionID, fromPeer, signaling.Answer(BotPeerID, fromPeer, answer.SDP))

	encoder, err := spawnEncoder()
	if err != nil {
		_ = pc.Close()
		return fmt.Errorf("ffmpeg spawn failed: %w", err)
	}
	session.encoder = encoder

	key := sessionKey(sessionID, fromPeer)
	b.mu.Lock()
	b.sessions[key] = session
	b.mu.Unlock()

	go b.runPump(key, session, videoTrack)

	bridgeLog.Printf("[bridge] ffmpeg_spawned session=%s to_peer=%s", sessionID, fromPeer)
	return nil
}

// HandleRemoteICE implements signaling.BridgeHandler.
func (b *Bridge) HandleRemoteICE(sessionID, fromPeer, candidateJSON string) error {
	key := sessionKey(sessionID, fromPeer)
	b.mu.Lock()
	session, ok := b.sessions[key]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("bot peer connection not found: %s", key)
	}

	candidate, err := parseICECandidateInit(candidateJSON)
	if err != nil {
		return fmt.Errorf("parse remote ice failed: %w", err)
	}
	if err := session.pc.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("add_ice_candidate failed: %w", err)
	}
	return nil
}

func (b *Bridge) wireDataChannel(pc *webrtc.PeerConnection) {
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != inputChannelTag {
			return
		}
		dc.OnOpen(func() {
			bridgeLog.Printf("[bridge] input_channel_open")
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			text := string(msg.Data)
			if err := inputadapter.InjectFromJSON(text); err != nil {
				bridgeLog.Printf("[bridge] input_event_failed error=%v", err)
				return
			}
			bridgeLog.Printf("[bridge] input_event_received")
		})
	})
}

func (b *Bridge) wireRTCPDrain(sender *webrtc.RTPSender) {
	go func() {
		buf := make([]byte, 1500)
		for {
			n, _, err := sender.Read(buf)
			if err != nil {
				return
			}
			// The unmarshalled packets are neither logged nor used; they
			// are discarded, per spec §4.2 step 4.
			if _, err := rtcp.Unmarshal(buf[:n]); err != nil {
				continue
			}
		}
	}()
}

func (b *Bridge) wireICECandidate(pc *webrtc.PeerConnection, sessionID, fromPeer string) {
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return // end-of-candidates, nothing to relay
		}
		payload, err := marshalICECandidate(c.ToJSON())
		if err != nil {
			bridgeLog.Printf("[bridge] ice candidate marshal failed error=%v", err)
			return
		}
		b.reg.EnqueueTo(sessionID, fromPeer, signaling.IceCandidate(BotPeerID, fromPeer, payload))
	})
}

func (b *Bridge) wireConnectionState(pc *webrtc.PeerConnection, sessionID, fromPeer string) {
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		bridgeLog.Printf("[bridge] peer_connection_state session=%s peer=%s state=%s", sessionID, fromPeer, state)
		if state == webrtc.PeerConnectionStateFailed {
			bridgeLog.Printf("[bridge] peer connection failed session=%s peer=%s", sessionID, fromPeer)
		}
	})
}

// runPump drains the encoder's Annex-B stdout through the Reframer and
// writes each access unit to the video track. When it returns for any
// reason, the peer connection is closed (spec §4.6: "* -> Closed").
func (b *Bridge) runPump(key string, session *streamSession, track *webrtc.TrackLocalStaticSample) {
	if err := pumpToTrack(session, track); err != nil {
		bridgeLog.Printf("[bridge] stream failed key=%s error=%v", key, err)
	}
	_ = session.pc.Close()
}
