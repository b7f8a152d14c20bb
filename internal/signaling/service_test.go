package signaling

import "testing"

// stubBridge records bot-targeted offers and returns offerErr/iceErr,
// which are nil unless a test sets them.
type stubBridge struct {
	offerErr error
	iceErr   error
	offers   []string
}

func (b *stubBridge) HandleOffer(sessionID, fromPeer, sdp string) error {
	b.offers = append(b.offers, sessionID+":"+fromPeer)
	return b.offerErr
}

func (b *stubBridge) HandleRemoteICE(sessionID, fromPeer, candidateJSON string) error {
	return b.iceErr
}

func newTestService() (*Service, *stubBridge) {
	bridge := &stubBridge{}
	return NewService(NewRegistry(), bridge, nil), bridge
}

func TestJoinFanOutAndBotAnnouncement(t *testing.T) {
	svc, _ := newTestService()

	svc.Join("s1", "A")
	svc.Join("s1", "B")

	aMsgs := svc.Poll("s1", "A")
	if len(aMsgs) != 2 {
		t.Fatalf("A should see its bot announcement plus B's join fan-out, got %+v", aMsgs)
	}
	if aMsgs[0].Type != TypeJoin || aMsgs[0].PeerID != BotPeerID {
		t.Fatalf("A's first message should be the bot announcement, got %+v", aMsgs[0])
	}
	if aMsgs[1].Type != TypeJoin || aMsgs[1].PeerID != "B" {
		t.Fatalf("A's second message should be Join{B}, got %+v", aMsgs[1])
	}

	// B joined after A, so no Join{A} was fanned out to it.
	bMsgs := svc.Poll("s1", "B")
	if len(bMsgs) != 1 || bMsgs[0].Type != TypeJoin || bMsgs[0].PeerID != BotPeerID {
		t.Fatalf("B should see only its own bot announcement, got %+v", bMsgs)
	}

	if got := svc.Poll("s1", "A"); len(got) != 0 {
		t.Fatalf("second poll must be empty, got %+v", got)
	}
}

func TestScenarioOneOfferThenPoll(t *testing.T) {
	svc, _ := newTestService()
	svc.Join("s1", "A")
	svc.Join("s1", "B")
	svc.Poll("s1", "A")
	svc.Poll("s1", "B")

	if err := svc.Route("s1", "A", Offer("A", "B", "sdp")); err != nil {
		t.Fatalf("route offer: %v", err)
	}
	got := svc.Poll("s1", "B")
	if len(got) != 1 || got[0].Type != TypeOffer || got[0].From != "A" {
		t.Fatalf("B should see exactly the offer, got %+v", got)
	}
}

func TestLeaveDestroysInboxAndFansOut(t *testing.T) {
	svc, _ := newTestService()
	svc.Join("s1", "A")
	svc.Join("s1", "B")
	svc.Poll("s1", "A")
	svc.Poll("s1", "B")

	// Queue three undelivered messages for A before it leaves.
	for i := 0; i < 3; i++ {
		if err := svc.Route("s1", "B", Offer("B", "A", "x")); err != nil {
			t.Fatalf("route: %v", err)
		}
	}

	svc.Leave("s1", "A")

	if got := svc.Poll("s1", "A"); len(got) != 0 {
		t.Fatalf("A's inbox should be gone after leave, got %+v", got)
	}
	bMsgs := svc.Poll("s1", "B")
	if len(bMsgs) != 1 || bMsgs[0].Type != TypeLeave || bMsgs[0].PeerID != "A" {
		t.Fatalf("B should observe Leave{A}, got %+v", bMsgs)
	}
}

func TestJoinLeaveLastPeerDestroysSession(t *testing.T) {
	svc, _ := newTestService()
	svc.Join("s1", "A")
	svc.Leave("s1", "A")

	if err := svc.Route("s1", "A", Offer("A", "B", "x")); err != ErrUnknownSession {
		t.Fatalf("expected ErrUnknownSession after last peer left, got %v", err)
	}
}

func TestRouteUnknownSession(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.Route("nope", "A", Offer("A", "B", "x")); err != ErrUnknownSession {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestRouteMissingTargetPeer(t *testing.T) {
	svc, _ := newTestService()
	svc.Join("s1", "A")
	svc.Join("s1", "B")

	if err := svc.Route("s1", "A", Offer("A", "C", "x")); err != ErrUnroutableTarget {
		t.Fatalf("expected ErrUnroutableTarget, got %v", err)
	}
}

func TestLeaveUnknownSessionOrPeerIsNoop(t *testing.T) {
	svc, _ := newTestService()
	svc.Leave("nope", "nobody") // must not panic

	svc.Join("s1", "A")
	svc.Poll("s1", "A")      // drain the bot announcement
	svc.Leave("s1", "ghost") // unknown peer within known session
	if got := svc.Poll("s1", "A"); len(got) != 0 {
		t.Fatalf("A should see no spurious leave event, got %+v", got)
	}
}

func TestPollUnknownSessionReturnsEmpty(t *testing.T) {
	svc, _ := newTestService()
	got := svc.Poll("nope", "nobody")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %+v", got)
	}
}

func TestOfferToBotIsInterceptedNotEnqueued(t *testing.T) {
	svc, bridge := newTestService()
	svc.Join("s1", "A")
	svc.Poll("s1", "A") // drain the bot announcement

	if err := svc.Route("s1", "A", Offer("A", BotPeerID, "sdp")); err != nil {
		t.Fatalf("route to bot: %v", err)
	}
	if len(bridge.offers) != 1 || bridge.offers[0] != "s1:A" {
		t.Fatalf("expected bridge to see the offer, got %+v", bridge.offers)
	}
	if got := svc.Poll("s1", "A"); len(got) != 0 {
		t.Fatalf("bot-targeted offer must not be enqueued, got %+v", got)
	}
}

func TestEnqueueToDeliversBotAnswer(t *testing.T) {
	svc, _ := newTestService()
	svc.Join("s1", "A")
	svc.Poll("s1", "A")

	svc.EnqueueTo("s1", "A", Answer(BotPeerID, "A", "sdp"))
	got := svc.Poll("s1", "A")
	if len(got) != 1 || got[0].Type != TypeAnswer || got[0].From != BotPeerID {
		t.Fatalf("expected bot answer delivered to A, got %+v", got)
	}
}
