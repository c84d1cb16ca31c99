package room

import (
	"errors"
	"sync"

	"github.com/openpodium/podium/pkg/com"
	"github.com/openpodium/podium/pkg/logger"
)

// Join rejection errors. None of them mutate room state.
var (
	ErrSeatTaken     = errors.New("seat taken")
	ErrRoomFull      = errors.New("room full")
	ErrInvalidStance = errors.New("invalid stance")
)

// seats caps room occupancy, one occupant per stance.
const seats = 2

// Options hold the room policy knobs, see the rooms config block.
type Options struct {
	// ResetReadyOnReconnect drops readiness of a reconnecting occupant.
	// The default policy preserves it.
	ResetReadyOnReconnect bool
	// StrictTurnPass allows only the occupant holding the turn to pass it.
	StrictTurnPass bool
}

// Store is the process-wide table of live rooms. The table itself is
// guarded by the store lock, each room serializes its own mutations on the
// room lock, so operations on different rooms proceed independently.
//
// Rooms are created implicitly on the first join of an unseen id and
// deleted as soon as the last occupant is removed; an empty room is never
// retained.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	opts Options
	log  *logger.Logger
}

func NewStore(opts Options, log *logger.Logger) *Store {
	return &Store{rooms: make(map[string]*Room, 10), opts: opts, log: log}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *Store) find(id string) *Room {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *Store) findOrCreate(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := newRoom(id)
	s.rooms[id] = r
	s.log.Debug().Str("room", id).Msg("New room")
	return r
}

// drop removes the room from the table. The room must be marked closed
// under its own lock before calling, so racing joins re-create it fresh.
func (s *Store) drop(r *Room) {
	s.mu.Lock()
	if s.rooms[r.id] == r {
		delete(s.rooms, r.id)
	}
	s.mu.Unlock()
	s.log.Debug().Str("room", r.id).Msg("Room closed")
}

// Join resolves a join request into a reconnect, a new occupant, or a
// rejection, and binds the connection on any accepted path.
//
// The (name, stance) pair is the durable occupant identity: an exact match
// rebinds that occupant to the new connection and preserves its readiness
// unless the reset-on-reconnect policy is set. A stance seat held by a
// different name rejects with ErrSeatTaken, a full room with ErrRoomFull.
func (s *Store) Join(cid com.Uid, roomId, name, stance string) (View, error) {
	st, ok := ParseStance(stance)
	if !ok {
		return View{}, ErrInvalidStance
	}
	for {
		r := s.findOrCreate(roomId)
		r.mu.Lock()
		if r.closed {
			// lost the race against the last leave, take a fresh room
			r.mu.Unlock()
			continue
		}
		if len(r.occupants) > seats {
			// reconciliation bug, tear the room down and start over
			s.log.Error().Str("room", r.id).Int("n", len(r.occupants)).
				Msg("Room capacity invariant violated, dropping the room")
			r.closed = true
			r.mu.Unlock()
			s.drop(r)
			continue
		}
		if o := r.findByIdentity(name, st); o != nil {
			if self := r.findByCid(cid); self != nil && self != o {
				// the connection gives up its old seat to claim this one
				r.detach(self)
			}
			o.cid = cid
			if s.opts.ResetReadyOnReconnect {
				o.ready = false
			}
			r.v++
			v := r.view()
			r.mu.Unlock()
			return v, nil
		}
		// the connection may already hold a seat here, a new identity on
		// it is a reseat, never a second occupant
		self := r.findByCid(cid)
		if o := r.findByStance(st); o != nil && o != self {
			r.mu.Unlock()
			return View{}, ErrSeatTaken
		}
		occupied := len(r.occupants)
		if self != nil {
			occupied--
		}
		if occupied >= seats {
			r.mu.Unlock()
			return View{}, ErrRoomFull
		}
		if self != nil {
			r.detach(self)
		}
		r.occupants = append(r.occupants, &occupant{name: name, stance: st, cid: cid})
		r.v++
		v := r.view()
		r.mu.Unlock()
		return v, nil
	}
}

// SetReady flips the readiness flag of the occupant bound to cid.
// Unknown connections or rooms are a no-op: a racing disconnect may have
// removed the mapping already and no observer depends on the effect.
func (s *Store) SetReady(cid com.Uid, roomId string, ready bool) (View, bool) {
	r := s.find(roomId)
	if r == nil {
		return View{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.findByCid(cid)
	if o == nil {
		return View{}, false
	}
	o.ready = ready
	r.v++
	return r.view(), true
}

// PassTurn flips the turn indicator to the other stance. With the strict
// policy only the occupant holding the turn may pass it, otherwise either
// occupant may pass at any time.
func (s *Store) PassTurn(cid com.Uid, roomId string) (View, bool) {
	r := s.find(roomId)
	if r == nil {
		return View{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.findByCid(cid)
	if o == nil {
		return View{}, false
	}
	if s.opts.StrictTurnPass && o.stance != r.turn {
		return View{}, false
	}
	r.turn = r.turn.Other()
	r.v++
	return r.view(), true
}

// Remove unbinds the occupant of cid from the room. The room is deleted
// when its last occupant is removed, in which case the returned view has
// no occupants. Safe to call repeatedly: a second call finds no mapping.
func (s *Store) Remove(cid com.Uid, roomId string) (left Occupant, rest View, ok bool) {
	r := s.find(roomId)
	if r == nil {
		return left, rest, false
	}
	r.mu.Lock()
	o := r.findByCid(cid)
	if o == nil {
		r.mu.Unlock()
		return left, rest, false
	}
	left = o.snapshot()
	r.detach(o)
	r.v++
	if len(r.occupants) == 0 {
		r.closed = true
		r.mu.Unlock()
		s.drop(r)
		return left, View{Id: roomId}, true
	}
	rest = r.view()
	r.mu.Unlock()
	return left, rest, true
}

// Others resolves the relay targets for a sender: the identity of the
// sending occupant and the connections of everyone else in the room.
// A sender with no room binding is a stale no-op.
func (s *Store) Others(cid com.Uid, roomId string) (from Occupant, targets []com.Uid, ok bool) {
	r := s.find(roomId)
	if r == nil {
		return from, nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.findByCid(cid)
	if o == nil {
		return from, nil, false
	}
	for _, cur := range r.occupants {
		if cur != o {
			targets = append(targets, cur.cid)
		}
	}
	return o.snapshot(), targets, true
}

// Get returns a snapshot of the room, false if the room does not exist.
func (s *Store) Get(roomId string) (View, bool) {
	r := s.find(roomId)
	if r == nil {
		return View{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(), true
}
