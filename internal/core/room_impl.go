package core

import "github.com/dkeye/relay/internal/domain"

// MemberSet is the membership of one room.
// It is not safe for concurrent use; the registry serializes access.
type MemberSet struct {
	members map[domain.ConnectionID]struct{}
}

func NewMemberSet() *MemberSet {
	return &MemberSet{members: make(map[domain.ConnectionID]struct{})}
}

func (s *MemberSet) Len() int { return len(s.members) }

// Add reports whether id was newly added.
func (s *MemberSet) Add(id domain.ConnectionID) bool {
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Remove reports whether id was a member.
func (s *MemberSet) Remove(id domain.ConnectionID) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

// Snapshot copies the member ids, skipping exclude if non-empty.
func (s *MemberSet) Snapshot(exclude domain.ConnectionID) []domain.ConnectionID {
	out := make([]domain.ConnectionID, 0, len(s.members))
	for id := range s.members {
		if exclude != "" && id == exclude {
			continue
		}
		out = append(out, id)
	}
	return out
}
