// Package api defines the wire protocol of the debate session coordinator.
//
// Each call (request and notification) is a JSON-encoded packet of the
// following structure:
//
//	id - (optional) a packet id, echoed on direct replies;
//	 t - (required) one of the predefined packet types;
//	 p - (optional) packet payload with arbitrary data.
//
// Packets differentiate by type, with which it is possible to unwrap the
// payload into distinct request/notification data structures. Signaling
// payloads are relayed between room occupants as-is and are never
// interpreted by the coordinator.
package api

import (
	"strconv"

	"github.com/goccy/go-json"
)

type PT uint8

// Packet codes:
//
//	1x - room membership requests
//	2x - room notifications
//	1xx - signaling relays (both directions)
const (
	Join     PT = 10
	SetReady PT = 11
	PassTurn PT = 12
	Leave    PT = 13

	RoomState    PT = 20
	OccupantLeft PT = 21
	TurnChanged  PT = 22
	JoinRejected PT = 23

	WebrtcOffer   PT = 101
	WebrtcAnswer  PT = 102
	WebrtcIce     PT = 103
	ReadyForMedia PT = 104

	// stream health, one side asks the other to redo the media path
	RequestReconnect     PT = 105
	RequestStreamRefresh PT = 106
)

func (p PT) String() string {
	switch p {
	case Join:
		return "Join"
	case SetReady:
		return "SetReady"
	case PassTurn:
		return "PassTurn"
	case Leave:
		return "Leave"
	case RoomState:
		return "RoomState"
	case OccupantLeft:
		return "OccupantLeft"
	case TurnChanged:
		return "TurnChanged"
	case JoinRejected:
		return "JoinRejected"
	case WebrtcOffer:
		return "WebrtcOffer"
	case WebrtcAnswer:
		return "WebrtcAnswer"
	case WebrtcIce:
		return "WebrtcIce"
	case ReadyForMedia:
		return "ReadyForMedia"
	case RequestReconnect:
		return "RequestReconnect"
	case RequestStreamRefresh:
		return "RequestStreamRefresh"
	default:
		return "Unknown[" + strconv.Itoa(int(p)) + "]"
	}
}

// IsSignal reports whether the packet type is an opaque signaling relay.
func (p PT) IsSignal() bool {
	return p >= WebrtcOffer && p <= RequestStreamRefresh
}

type In struct {
	Id      string          `json:"id,omitempty"`
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // 2-pass unmarshal
}

type Out struct {
	Id      string `json:"id,omitempty"`
	T       PT     `json:"t"`
	Payload any    `json:"p,omitempty"`
}

// Unwrap decodes a packet payload into T, nil if the payload is malformed.
func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
