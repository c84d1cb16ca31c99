package api

import "github.com/goccy/go-json"

// Join rejection reasons.
const (
	SeatTaken     = "seat_taken"
	RoomFull      = "room_full"
	InvalidStance = "invalid_stance"
)

type JoinUserRequest struct {
	RoomId string `json:"room_id"`
	Name   string `json:"name"`
	Stance string `json:"stance"`
}

type SetReadyUserRequest struct {
	RoomId string `json:"room_id"`
	Ready  bool   `json:"is_ready"`
}

type RoomUserRequest struct {
	RoomId string `json:"room_id"`
}

// SignalUserRequest carries an opaque signaling payload (SDP, ICE candidate).
type SignalUserRequest struct {
	RoomId string          `json:"room_id"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Occupant struct {
	Name   string `json:"name"`
	Stance string `json:"stance"`
	Ready  bool   `json:"is_ready"`
}

type RoomStateNotice struct {
	RoomId    string     `json:"room_id"`
	Occupants []Occupant `json:"occupants"`
	Turn      string     `json:"turn"`
}

type OccupantLeftNotice struct {
	Name   string `json:"name"`
	Stance string `json:"stance"`
}

type TurnChangedNotice struct {
	Turn string `json:"turn"`
}

type JoinRejectedNotice struct {
	Reason string `json:"reason"`
}

// SignalRelayNotice is a relayed signaling payload tagged
// with the sender's occupant identity.
type SignalRelayNotice struct {
	From Occupant        `json:"from"`
	Data json.RawMessage `json:"data,omitempty"`
}
