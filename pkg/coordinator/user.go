package coordinator

import (
	"github.com/openpodium/podium/pkg/api"
	"github.com/openpodium/podium/pkg/com"
	"github.com/openpodium/podium/pkg/logger"
)

// Wire is the packet transport of one user connection.
// Implemented by com.Client, faked in tests.
type Wire interface {
	Id() com.Uid
	OnPacket(fn func(in api.In))
	Notify(t api.PT, data any)
	Route(in api.In, t api.PT, data any)
	Listen() chan struct{}
	Close()
}

// User is a single connected browser. RoomID is the only link to the
// room store and it is touched exclusively from the connection's own
// packet-handling path.
type User struct {
	wire   Wire
	RoomID string
	log    *logger.Logger
}

func NewUser(conn Wire, log *logger.Logger) *User {
	return &User{wire: conn, log: log.Extend(log.With().Str("cid", conn.Id().Short()))}
}

func (u *User) Id() com.Uid           { return u.wire.Id() }
func (u *User) SetRoom(id string)     { u.RoomID = id }
func (u *User) Room() string          { return u.RoomID }
func (u *User) Listen() chan struct{} { return u.wire.Listen() }
func (u *User) Disconnect()           { u.wire.Close() }
func (u *User) String() string        { return "u:" + u.Id().Short() }

// HandleRequests registers the packet handler of the connection.
// Exactly one handler per connection: every concern reacting to an event
// composes here, which rules out duplicate broadcasts or double relays.
func (u *User) HandleRequests(h *Hub) {
	u.wire.OnPacket(func(in api.In) {
		switch in.T {
		case api.Join:
			rq := api.Unwrap[api.JoinUserRequest](in.Payload)
			if rq == nil {
				u.log.Error().Msg("malformed join request")
				return
			}
			h.HandleJoin(u, *rq, in)
		case api.SetReady:
			rq := api.Unwrap[api.SetReadyUserRequest](in.Payload)
			if rq == nil {
				u.log.Error().Msg("malformed ready request")
				return
			}
			h.HandleSetReady(u, *rq)
		case api.PassTurn:
			h.HandlePassTurn(u)
		case api.Leave:
			h.HandleLeave(u)
		default:
			if in.T.IsSignal() {
				rq := api.Unwrap[api.SignalUserRequest](in.Payload)
				if rq == nil {
					u.log.Error().Msgf("malformed %v payload", in.T)
					return
				}
				h.HandleSignal(u, in.T, *rq)
				return
			}
			u.log.Warn().Msgf("unhandled packet %v", in.T)
		}
	})
}
