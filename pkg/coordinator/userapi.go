package coordinator

import (
	"github.com/goccy/go-json"

	"github.com/openpodium/podium/pkg/api"
	"github.com/openpodium/podium/pkg/room"
)

// SendRoomState pushes the full room snapshot to the user.
func (u *User) SendRoomState(v room.View) { u.wire.Notify(api.RoomState, roomStateNotice(v)) }

// ReplyRoomState answers a join request with the room snapshot,
// tracking the request id.
func (u *User) ReplyRoomState(in api.In, v room.View) {
	u.wire.Route(in, api.RoomState, roomStateNotice(v))
}

// RejectJoin answers a join request with a rejection reason.
func (u *User) RejectJoin(in api.In, reason string) {
	u.wire.Route(in, api.JoinRejected, api.JoinRejectedNotice{Reason: reason})
}

// SendOccupantLeft tells the user which occupant departed. The occupant
// identity is sent instead of the connection id, the id means nothing to
// the other side.
func (u *User) SendOccupantLeft(o room.Occupant) {
	u.wire.Notify(api.OccupantLeft, api.OccupantLeftNotice{Name: o.Name, Stance: o.Stance.String()})
}

// SendTurnChanged announces the new speaking turn.
func (u *User) SendTurnChanged(turn room.Stance) {
	u.wire.Notify(api.TurnChanged, api.TurnChangedNotice{Turn: turn.String()})
}

// SendSignal forwards a relayed signaling payload tagged with the
// sender's occupant identity.
func (u *User) SendSignal(t api.PT, from room.Occupant, data json.RawMessage) {
	u.wire.Notify(t, api.SignalRelayNotice{From: occupantInfo(from), Data: data})
}

func occupantInfo(o room.Occupant) api.Occupant {
	return api.Occupant{Name: o.Name, Stance: o.Stance.String(), Ready: o.Ready}
}

func roomStateNotice(v room.View) api.RoomStateNotice {
	occupants := make([]api.Occupant, 0, len(v.Occupants))
	for _, o := range v.Occupants {
		occupants = append(occupants, occupantInfo(o))
	}
	return api.RoomStateNotice{RoomId: v.Id, Occupants: occupants, Turn: v.Turn.String()}
}
