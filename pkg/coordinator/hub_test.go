package coordinator

import (
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openpodium/podium/pkg/api"
	"github.com/openpodium/podium/pkg/com"
	"github.com/openpodium/podium/pkg/config"
	"github.com/openpodium/podium/pkg/logger"
)

type fakeWire struct {
	id   com.Uid
	done chan struct{}
	fn   func(api.In)

	mu  sync.Mutex
	out []api.Out
}

func newFakeWire() *fakeWire { return &fakeWire{id: com.NewUid(), done: make(chan struct{})} }

func (f *fakeWire) Id() com.Uid                 { return f.id }
func (f *fakeWire) OnPacket(fn func(in api.In)) { f.fn = fn }
func (f *fakeWire) Notify(t api.PT, data any)   { f.push(api.Out{T: t, Payload: data}) }
func (f *fakeWire) Route(in api.In, t api.PT, data any) {
	f.push(api.Out{Id: in.Id, T: t, Payload: data})
}
func (f *fakeWire) Listen() chan struct{} { return f.done }
func (f *fakeWire) Close() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

func (f *fakeWire) push(o api.Out) { f.mu.Lock(); f.out = append(f.out, o); f.mu.Unlock() }

func (f *fakeWire) sent(t api.PT) (res []api.Out) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.out {
		if o.T == t {
			res = append(res, o)
		}
	}
	return
}

// recv injects an inbound packet as if it came off the socket.
func (f *fakeWire) recv(in api.In) { f.fn(in) }

func newTestHub() *Hub {
	return NewHub(config.CoordinatorConfig{}, logger.Default(), prometheus.NewRegistry())
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("can't marshal payload: %v", err)
	}
	return raw
}

func joinUser(t *testing.T, h *Hub, w *fakeWire, roomId, name, stance string) *User {
	t.Helper()
	usr := NewUser(w, logger.Default())
	usr.HandleRequests(h)
	h.users.Add(usr)
	w.recv(api.In{T: api.Join, Payload: mustRaw(t, api.JoinUserRequest{RoomId: roomId, Name: name, Stance: stance})})
	return usr
}

func TestRelayExclusivity(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	sdp := json.RawMessage(`{"sdp":"v=0 fake"}`)
	aw.recv(api.In{T: api.WebrtcOffer, Payload: mustRaw(t, api.SignalUserRequest{RoomId: "r1", Data: sdp})})

	got := bw.sent(api.WebrtcOffer)
	if len(got) != 1 {
		t.Fatalf("Bob should receive exactly one offer, got %v", len(got))
	}
	relay, ok := got[0].Payload.(api.SignalRelayNotice)
	if !ok {
		t.Fatalf("unexpected relay payload %T", got[0].Payload)
	}
	if relay.From.Name != "Alice" || relay.From.Stance != "for" {
		t.Errorf("relay must be tagged with the sender identity, got %+v", relay.From)
	}
	if string(relay.Data) != string(sdp) {
		t.Errorf("payload must be forwarded verbatim, got %s", relay.Data)
	}
	if echoed := aw.sent(api.WebrtcOffer); len(echoed) != 0 {
		t.Errorf("offer echoed back to the sender: %+v", echoed)
	}
}

func TestRelayWithLoneOccupant(t *testing.T) {
	h := newTestHub()
	aw := newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")

	aw.recv(api.In{T: api.WebrtcOffer, Payload: mustRaw(t, api.SignalUserRequest{RoomId: "r1"})})

	// silently dropped, no error packet of any kind comes back
	if got := aw.sent(api.WebrtcOffer); len(got) != 0 {
		t.Errorf("lone occupant received its own offer: %+v", got)
	}
	if got := aw.sent(api.JoinRejected); len(got) != 0 {
		t.Errorf("unexpected error notification: %+v", got)
	}
}

func TestSeatConflictRejection(t *testing.T) {
	h := newTestHub()
	aw, cw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")

	usr := NewUser(cw, logger.Default())
	usr.HandleRequests(h)
	h.users.Add(usr)
	cw.recv(api.In{Id: "42", T: api.Join, Payload: mustRaw(t, api.JoinUserRequest{RoomId: "r1", Name: "Carol", Stance: "for"})})

	got := cw.sent(api.JoinRejected)
	if len(got) != 1 {
		t.Fatalf("Carol should be rejected once, got %v", len(got))
	}
	if got[0].Id != "42" {
		t.Errorf("rejection must track the request id, got %q", got[0].Id)
	}
	if reason := got[0].Payload.(api.JoinRejectedNotice).Reason; reason != api.SeatTaken {
		t.Errorf("expected %v, got %v", api.SeatTaken, reason)
	}
	if v, ok := h.rooms.Get("r1"); !ok || len(v.Occupants) != 1 {
		t.Errorf("room should still hold only Alice")
	}
}

func TestDisconnectNotifiesRemaining(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	alice := joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	h.TerminateUser(alice)

	got := bw.sent(api.OccupantLeft)
	if len(got) != 1 {
		t.Fatalf("Bob should be notified once, got %v", len(got))
	}
	if left := got[0].Payload.(api.OccupantLeftNotice); left.Name != "Alice" || left.Stance != "for" {
		t.Errorf("notification must identify the occupant, got %+v", left)
	}
	if v, ok := h.rooms.Get("r1"); !ok || len(v.Occupants) != 1 {
		t.Errorf("room must survive with one occupant, got %v %v", v, ok)
	}
	// a transport firing both error and close events sweeps twice
	h.TerminateUser(alice)
	if got := bw.sent(api.OccupantLeft); len(got) != 1 {
		t.Errorf("second sweep produced a duplicate notification")
	}
}

func TestLeaveThenRejoinAnotherRoom(t *testing.T) {
	h := newTestHub()
	aw := newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")

	aw.recv(api.In{T: api.Leave, Payload: mustRaw(t, api.RoomUserRequest{RoomId: "r1"})})
	if _, ok := h.rooms.Get("r1"); ok {
		t.Errorf("vacated room was retained")
	}

	aw.recv(api.In{T: api.Join, Payload: mustRaw(t, api.JoinUserRequest{RoomId: "r2", Name: "Alice", Stance: "against"})})
	if v, ok := h.rooms.Get("r2"); !ok || len(v.Occupants) != 1 {
		t.Errorf("rejoin into another room failed: %v %v", v, ok)
	}
	if got := aw.sent(api.RoomState); len(got) != 2 {
		t.Errorf("each accepted join should reply with a room state, got %v", len(got))
	}
}

func TestTurnBroadcast(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	bw.recv(api.In{T: api.PassTurn, Payload: mustRaw(t, api.RoomUserRequest{RoomId: "r1"})})

	for name, w := range map[string]*fakeWire{"Alice": aw, "Bob": bw} {
		got := w.sent(api.TurnChanged)
		if len(got) != 1 {
			t.Fatalf("%v should see one turn change, got %v", name, len(got))
		}
		if turn := got[0].Payload.(api.TurnChangedNotice).Turn; turn != "against" {
			t.Errorf("turn should pass to against, got %v", turn)
		}
	}
}

func TestJoinMoveSweepsOldSeat(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	aw.recv(api.In{T: api.Join, Payload: mustRaw(t, api.JoinUserRequest{RoomId: "r2", Name: "Alice", Stance: "for"})})

	if v, ok := h.rooms.Get("r1"); !ok || len(v.Occupants) != 1 || v.Occupants[0].Name != "Bob" {
		t.Errorf("old room should hold only Bob, got %+v %v", v, ok)
	}
	if got := bw.sent(api.OccupantLeft); len(got) != 1 {
		t.Fatalf("Bob should see Alice leave, got %v notifications", len(got))
	}
	if v, ok := h.rooms.Get("r2"); !ok || len(v.Occupants) != 1 {
		t.Errorf("move into the new room failed: %v %v", v, ok)
	}
}

func TestRoomMoveLeavesNoGhost(t *testing.T) {
	h := newTestHub()
	aw := newFakeWire()
	alice := joinUser(t, h, aw, "r1", "Alice", "for")

	aw.recv(api.In{T: api.Join, Payload: mustRaw(t, api.JoinUserRequest{RoomId: "r2", Name: "Alice", Stance: "for"})})
	if _, ok := h.rooms.Get("r1"); ok {
		t.Errorf("vacated room was retained after the move")
	}

	h.TerminateUser(alice)
	if _, ok := h.rooms.Get("r2"); ok {
		t.Errorf("room survived its last occupant's disconnect")
	}
	if n := h.rooms.Len(); n != 0 {
		t.Errorf("store should be empty, holds %v rooms", n)
	}
}

func TestStreamHealthRelay(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	aw.recv(api.In{T: api.RequestReconnect, Payload: mustRaw(t, api.SignalUserRequest{RoomId: "r1"})})

	if got := bw.sent(api.RequestReconnect); len(got) != 1 {
		t.Errorf("Bob should receive the reconnect request, got %v", len(got))
	}
	if got := aw.sent(api.RequestReconnect); len(got) != 0 {
		t.Errorf("reconnect request echoed back to the sender")
	}
}

func TestReadyBroadcast(t *testing.T) {
	h := newTestHub()
	aw, bw := newFakeWire(), newFakeWire()
	joinUser(t, h, aw, "r1", "Alice", "for")
	joinUser(t, h, bw, "r1", "Bob", "against")

	aw.recv(api.In{T: api.SetReady, Payload: mustRaw(t, api.SetReadyUserRequest{RoomId: "r1", Ready: true})})

	got := bw.sent(api.RoomState)
	if len(got) == 0 {
		t.Fatalf("Bob should see the updated room state")
	}
	state := got[len(got)-1].Payload.(api.RoomStateNotice)
	ready := false
	for _, o := range state.Occupants {
		if o.Name == "Alice" {
			ready = o.Ready
		}
	}
	if !ready {
		t.Errorf("Alice must be ready in the broadcast state: %+v", state)
	}
}
