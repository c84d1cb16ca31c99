package coordinator

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openpodium/podium/pkg/api"
	"github.com/openpodium/podium/pkg/com"
	"github.com/openpodium/podium/pkg/config"
	"github.com/openpodium/podium/pkg/logger"
	"github.com/openpodium/podium/pkg/room"
)

// Hub tracks live user connections and wires them to the room store.
// The user map is the registry of who is connected; each user holds only
// a room id back-reference into the store, never a room pointer.
type Hub struct {
	conf      config.CoordinatorConfig
	log       *logger.Logger
	users     com.NetMap[com.Uid, *User]
	rooms     *room.Store
	connector *com.Connector
	m         *metrics
}

func NewHub(conf config.CoordinatorConfig, log *logger.Logger, reg prometheus.Registerer) *Hub {
	return &Hub{
		conf:  conf,
		log:   log,
		users: com.NewNetMap[com.Uid, *User](),
		rooms: room.NewStore(room.Options{
			ResetReadyOnReconnect: conf.Coordinator.Rooms.ResetReadyOnReconnect,
			StrictTurnPass:        conf.Coordinator.Rooms.StrictTurnPass,
		}, log),
		connector: com.NewConnector(com.WithOrigin(conf.Coordinator.Origin), com.WithTag("u")),
		m:         newMetrics(reg),
	}
}

// handleUserConnection handles a new websocket connection from a browser.
// It blocks for the whole life of the connection and sweeps the user out
// of its room when the socket dies, however it died.
func (h *Hub) handleUserConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connector.NewClient(w, r, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("socket upgrade fail")
		return
	}
	usr := NewUser(conn, h.log)
	defer h.TerminateUser(usr)
	usr.HandleRequests(h)
	h.users.Add(usr)
	h.m.users.Inc()
	<-usr.Listen()
}

// TerminateUser is the disconnect sweeper. Calling it again for the same
// user finds no room mapping and is a no-op.
func (h *Hub) TerminateUser(usr *User) {
	h.users.Remove(usr)
	h.m.users.Dec()
	h.HandleLeave(usr)
	usr.Disconnect()
}

func (h *Hub) HandleJoin(usr *User, rq api.JoinUserRequest, in api.In) {
	// a connection holds at most one seat, moving rooms sweeps the old one
	if cur := usr.Room(); cur != "" && cur != rq.RoomId {
		h.HandleLeave(usr)
	}
	v, err := h.rooms.Join(usr.Id(), rq.RoomId, rq.Name, rq.Stance)
	if err != nil {
		h.m.rejects.Inc()
		usr.log.Debug().Err(err).Str("room", rq.RoomId).Msg("join rejected")
		usr.RejectJoin(in, rejectReason(err))
		return
	}
	usr.SetRoom(rq.RoomId)
	h.m.joins.Inc()
	h.m.rooms.Set(float64(h.rooms.Len()))
	// full snapshot to every member, the joiner gets it as the reply
	for _, o := range v.Occupants {
		if o.Cid == usr.Id() {
			usr.ReplyRoomState(in, v)
			continue
		}
		if peer, err := h.users.Find(o.Cid); err == nil {
			peer.SendRoomState(v)
		}
	}
}

func (h *Hub) HandleSetReady(usr *User, rq api.SetReadyUserRequest) {
	v, ok := h.rooms.SetReady(usr.Id(), usr.Room(), rq.Ready)
	if !ok {
		return
	}
	// broadcast unconditionally to keep all views convergent
	h.forEachMember(v, func(peer *User) { peer.SendRoomState(v) })
}

func (h *Hub) HandlePassTurn(usr *User) {
	v, ok := h.rooms.PassTurn(usr.Id(), usr.Room())
	if !ok {
		return
	}
	h.forEachMember(v, func(peer *User) { peer.SendTurnChanged(v.Turn) })
}

// HandleLeave detaches the user from its room before the connection goes
// away, so a later join on the same connection can target another room.
func (h *Hub) HandleLeave(usr *User) {
	roomId := usr.Room()
	if roomId == "" {
		return
	}
	usr.SetRoom("")
	left, rest, ok := h.rooms.Remove(usr.Id(), roomId)
	if !ok {
		return
	}
	h.m.rooms.Set(float64(h.rooms.Len()))
	h.forEachMember(rest, func(peer *User) { peer.SendOccupantLeft(left) })
}

// HandleSignal relays an opaque signaling payload to every other occupant
// of the sender's room. With no second occupant the message is dropped,
// there is no buffering of signaling for a not-yet-joined peer.
func (h *Hub) HandleSignal(usr *User, t api.PT, rq api.SignalUserRequest) {
	from, targets, ok := h.rooms.Others(usr.Id(), usr.Room())
	if !ok {
		return
	}
	for _, cid := range targets {
		if peer, err := h.users.Find(cid); err == nil {
			peer.SendSignal(t, from, rq.Data)
			h.m.relayed.Inc()
		}
	}
}

func (h *Hub) forEachMember(v room.View, fn func(peer *User)) {
	for _, o := range v.Occupants {
		if peer, err := h.users.Find(o.Cid); err == nil {
			fn(peer)
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, room.ErrSeatTaken):
		return api.SeatTaken
	case errors.Is(err, room.ErrRoomFull):
		return api.RoomFull
	default:
		return api.InvalidStance
	}
}
