package app

import (
	"sort"

	"github.com/dkeye/relay/internal/domain"
)

// Rooms lists every non-empty room, ordered by id.
func (r *Registry) Rooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for id, set := range r.rooms {
		out = append(out, domain.RoomInfo{ID: id, MemberCount: set.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Room returns the info of a single room.
func (r *Registry) Room(id domain.RoomID) (domain.RoomInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.rooms[id]
	if !ok {
		return domain.RoomInfo{ID: id}, false
	}
	return domain.RoomInfo{ID: id, MemberCount: set.Len()}, true
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
