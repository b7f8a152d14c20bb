// Package httpapi exposes the signaling relay's HTTP surface: query-
// parameter addressed join/leave/poll, JSON-bodied offer/answer/
// ice_candidate, and a static-file fallback for the browser client.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/n0remac/desktop-bridge/internal/signaling"
)

type apiResponse struct {
	OK bool `json:"ok"`
}

type sdpPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	SDP  string `json:"sdp"`
}

type iceCandidatePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Candidate string `json:"candidate"`
}

// NewRouter wires the seven signaling endpoints and a static-file
// fallback onto a stdlib ServeMux, mirroring the teacher's preference
// for net/http's own mux over a third-party router.
func NewRouter(svc *signaling.Service, publicDir string, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/signal/join", handleJoin(svc))
	mux.HandleFunc("/signal/leave", handleLeave(svc))
	mux.HandleFunc("/signal/offer", handleOffer(svc, logger))
	mux.HandleFunc("/signal/answer", handleAnswer(svc, logger))
	mux.HandleFunc("/signal/ice_candidate", handleIceCandidate(svc, logger))
	mux.HandleFunc("/signal/poll", handlePoll(svc))

	fileServer := http.FileServer(http.Dir(publicDir))
	mux.Handle("/", fileServer)

	return logRequests(mux, logger)
}

func logRequests(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Printf("[http] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func handleJoin(svc *signaling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, peerID, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		svc.Join(sessionID, peerID)
		writeOK(w)
	}
}

func handleLeave(svc *signaling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, peerID, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		svc.Leave(sessionID, peerID)
		writeOK(w)
	}
}

func handleOffer(svc *signaling.Service, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		var body sdpPayload
		if !decodeJSON(w, r, &body) {
			return
		}
		route(w, svc, sessionID, signaling.Offer(body.From, body.To, body.SDP), logger)
	}
}

func handleAnswer(svc *signaling.Service, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		var body sdpPayload
		if !decodeJSON(w, r, &body) {
			return
		}
		route(w, svc, sessionID, signaling.Answer(body.From, body.To, body.SDP), logger)
	}
}

func handleIceCandidate(svc *signaling.Service, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		var body iceCandidatePayload
		if !decodeJSON(w, r, &body) {
			return
		}
		route(w, svc, sessionID, signaling.IceCandidate(body.From, body.To, body.Candidate), logger)
	}
}

func handlePoll(svc *signaling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, peerID, ok := sessionPeerQuery(w, r)
		if !ok {
			return
		}
		msgs := svc.Poll(sessionID, peerID)
		writeJSON(w, http.StatusOK, msgs)
	}
}

// route maps signaling.Service.Route's error classes onto the status
// codes the browser client expects: unknown session is 404, anything
// else Route rejects (unroutable target, a failed bot hand-off) is
// 400.
func route(w http.ResponseWriter, svc *signaling.Service, sessionID string, msg signaling.Message, logger *log.Logger) {
	err := svc.Route(sessionID, msg.From, msg)
	if err == nil {
		writeOK(w)
		return
	}
	if errors.Is(err, signaling.ErrUnknownSession) {
		writeJSON(w, http.StatusNotFound, apiResponse{OK: false})
		return
	}
	logger.Printf("[http] route rejected session=%s error=%v", sessionID, err)
	writeJSON(w, http.StatusBadRequest, apiResponse{OK: false})
}

func sessionPeerQuery(w http.ResponseWriter, r *http.Request) (sessionID, peerID string, ok bool) {
	sessionID = r.URL.Query().Get("session_id")
	peerID = r.URL.Query().Get("peer_id")
	if sessionID == "" || peerID == "" {
		http.Error(w, "session_id and peer_id are required", http.StatusBadRequest)
		return "", "", false
	}
	return sessionID, peerID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// EnsurePublicDir creates dir if absent so http.FileServer never fails
// to start merely because the static asset directory hasn't been
// populated yet in a fresh checkout.
func EnsurePublicDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
