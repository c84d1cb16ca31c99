// Package room keeps the in-memory state of debate rooms: who occupies
// which seat, who is ready, and whose turn it is to speak. It holds pure
// state only and does no I/O, the coordinator hub wires it to the network.
package room

import (
	"sync"

	"github.com/openpodium/podium/pkg/com"
)

// Stance is one of the two fixed debate positions.
// It doubles as the seat key of a room.
type Stance string

const (
	For     Stance = "for"
	Against Stance = "against"
)

func ParseStance(s string) (Stance, bool) {
	switch st := Stance(s); st {
	case For, Against:
		return st, true
	}
	return "", false
}

// Other returns the opposite stance.
func (s Stance) Other() Stance {
	if s == For {
		return Against
	}
	return For
}

func (s Stance) String() string { return string(s) }

// occupant is a participant slot within a room. The (name, stance) pair is
// its durable identity, the connection id is transient and rebinds on
// reconnects.
type occupant struct {
	name   string
	stance Stance
	ready  bool
	cid    com.Uid
}

// Room is a two-seat debate session. All mutations of one room are
// serialized on its own lock, different rooms don't block each other.
type Room struct {
	id string

	mu        sync.Mutex
	occupants []*occupant
	turn      Stance
	v         uint64
	closed    bool
}

func newRoom(id string) *Room { return &Room{id: id, turn: For} }

func (r *Room) findByIdentity(name string, stance Stance) *occupant {
	for _, o := range r.occupants {
		if o.name == name && o.stance == stance {
			return o
		}
	}
	return nil
}

func (r *Room) findByStance(stance Stance) *occupant {
	for _, o := range r.occupants {
		if o.stance == stance {
			return o
		}
	}
	return nil
}

// detach unlinks the occupant from the room, must hold the room lock.
func (r *Room) detach(o *occupant) {
	for i, cur := range r.occupants {
		if cur == o {
			r.occupants = append(r.occupants[:i], r.occupants[i+1:]...)
			return
		}
	}
}

func (r *Room) findByCid(cid com.Uid) *occupant {
	for _, o := range r.occupants {
		if o.cid == cid {
			return o
		}
	}
	return nil
}

// Occupant is a read-only snapshot of a room participant.
type Occupant struct {
	Name   string
	Stance Stance
	Ready  bool
	Cid    com.Uid
}

// View is a read-only snapshot of a room, safe to use without locks.
type View struct {
	Id        string
	Occupants []Occupant
	Turn      Stance
	Version   uint64
}

// HasOccupants reports whether the view caught any occupants.
func (v View) HasOccupants() bool { return len(v.Occupants) > 0 }

func (o *occupant) snapshot() Occupant {
	return Occupant{Name: o.name, Stance: o.stance, Ready: o.ready, Cid: o.cid}
}

// view must be called under the room lock.
func (r *Room) view() View {
	occupants := make([]Occupant, 0, len(r.occupants))
	for _, o := range r.occupants {
		occupants = append(occupants, o.snapshot())
	}
	return View{Id: r.id, Occupants: occupants, Turn: r.turn, Version: r.v}
}
