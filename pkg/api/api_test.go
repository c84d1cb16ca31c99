package api

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestPacketDecode(t *testing.T) {
	raw := []byte(`{"id":"7","t":10,"p":{"room_id":"r1","name":"Alice","stance":"for"}}`)
	var in In
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatalf("packet decode fail: %v", err)
	}
	if in.Id != "7" || in.T != Join {
		t.Errorf("bad envelope: %+v", in)
	}
	rq := Unwrap[JoinUserRequest](in.Payload)
	if rq == nil {
		t.Fatalf("payload should unwrap")
	}
	if rq.RoomId != "r1" || rq.Name != "Alice" || rq.Stance != "for" {
		t.Errorf("bad payload: %+v", rq)
	}
}

func TestPacketDecodeNoPayload(t *testing.T) {
	var in In
	if err := json.Unmarshal([]byte(`{"t":13}`), &in); err != nil {
		t.Fatalf("packet decode fail: %v", err)
	}
	if in.T != Leave || in.Id != "" || len(in.Payload) != 0 {
		t.Errorf("bad envelope: %+v", in)
	}
}

func TestUnwrapMalformed(t *testing.T) {
	if rq := Unwrap[JoinUserRequest]([]byte(`"oof"`)); rq != nil {
		t.Errorf("malformed payload should not unwrap, got %+v", rq)
	}
}

func TestSignalDataIsOpaque(t *testing.T) {
	data := `{"sdp":"v=0","weird":[1,null,{}]}`
	raw := []byte(`{"t":101,"p":{"room_id":"r1","data":` + data + `}}`)
	var in In
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatalf("packet decode fail: %v", err)
	}
	rq := Unwrap[SignalUserRequest](in.Payload)
	if rq == nil {
		t.Fatalf("payload should unwrap")
	}
	if string(rq.Data) != data {
		t.Errorf("signal data should pass through untouched, got %s", rq.Data)
	}
}

func TestPacketTypes(t *testing.T) {
	if Join.String() != "Join" || WebrtcIce.String() != "WebrtcIce" {
		t.Errorf("bad packet names: %v %v", Join, WebrtcIce)
	}
	if PT(250).String() != "Unknown[250]" {
		t.Errorf("bad unknown packet name: %v", PT(250))
	}
	for _, p := range []PT{WebrtcOffer, WebrtcAnswer, WebrtcIce, ReadyForMedia, RequestReconnect, RequestStreamRefresh} {
		if !p.IsSignal() {
			t.Errorf("%v should be a signal", p)
		}
	}
	if Join.IsSignal() || RoomState.IsSignal() {
		t.Errorf("membership packets are not signals")
	}
}
