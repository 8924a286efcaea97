package app

import (
	"sync"

	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/dkeye/relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	endpoint core.SignalConnection
	rooms    map[domain.RoomID]struct{}
}

// Registry owns every live connection and the room membership derived from
// their joins. A room exists exactly while it has members.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*connEntry
	rooms map[domain.RoomID]*core.MemberSet

	metrics *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		conns:   make(map[domain.ConnectionID]*connEntry),
		rooms:   make(map[domain.RoomID]*core.MemberSet),
		metrics: m,
	}
}

// OnConnect registers endpoint under a fresh id with no rooms joined.
func (r *Registry) OnConnect(endpoint core.SignalConnection) domain.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := domain.NewConnectionID()
	r.conns[id] = &connEntry{
		endpoint: endpoint,
		rooms:    make(map[domain.RoomID]struct{}),
	}
	r.metrics.SetConnections(len(r.conns))
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("connected")
	return id
}

// Join adds id to room. It reports whether the membership is new; joining
// twice or joining with an unknown id changes nothing.
func (r *Registry) Join(id domain.ConnectionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.join(id, room)
}

// SnapshotAndJoin returns the members of room other than id, then joins id,
// in one critical section. ok is false, with no snapshot, when id is unknown.
func (r *Registry) SnapshotAndJoin(id domain.ConnectionID, room domain.RoomID) (members []domain.ConnectionID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok = r.conns[id]; !ok {
		return nil, false
	}
	if set, exists := r.rooms[room]; exists {
		members = set.Snapshot(id)
	}
	r.join(id, room)
	return members, true
}

func (r *Registry) join(id domain.ConnectionID, room domain.RoomID) bool {
	entry, ok := r.conns[id]
	if !ok {
		log.Debug().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(room)).Msg("join from unknown connection ignored")
		return false
	}
	set, exists := r.rooms[room]
	if !exists {
		set = core.NewMemberSet()
		r.rooms[room] = set
		r.metrics.SetRooms(len(r.rooms))
	}
	if !set.Add(id) {
		return false
	}
	entry.rooms[room] = struct{}{}
	log.Debug().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(room)).Msg("joined room")
	return true
}

// OnDisconnect removes id from every room it joined and forgets it.
// It reports whether id was known.
func (r *Registry) OnDisconnect(id domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return false
	}
	for room := range entry.rooms {
		set, exists := r.rooms[room]
		if !exists {
			continue
		}
		set.Remove(id)
		if set.Len() == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.conns, id)
	r.metrics.SetConnections(len(r.conns))
	r.metrics.SetRooms(len(r.rooms))
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Int("rooms", len(entry.rooms)).Msg("disconnected")
	return true
}

// MembersOf returns a snapshot of room's members; empty for an unknown room.
func (r *Registry) MembersOf(room domain.RoomID) []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.rooms[room]
	if !ok {
		return []domain.ConnectionID{}
	}
	return set.Snapshot("")
}

// EmitTo queues f on id's endpoint. The lock is released before sending.
func (r *Registry) EmitTo(id domain.ConnectionID, f core.Frame) error {
	r.mu.RLock()
	entry, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrUnknownConn
	}
	return entry.endpoint.TrySend(f)
}

// Close closes id's endpoint. The adapter observes the close and calls
// OnDisconnect, so membership is not touched here.
func (r *Registry) Close(id domain.ConnectionID) bool {
	r.mu.RLock()
	entry, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	entry.endpoint.Close()
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("closed connection")
	return true
}

// CloseAll closes every endpoint, used on shutdown.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	endpoints := make([]core.SignalConnection, 0, len(r.conns))
	for _, e := range r.conns {
		endpoints = append(endpoints, e.endpoint)
	}
	r.mu.RUnlock()
	for _, ep := range endpoints {
		ep.Close()
	}
	return len(endpoints)
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
