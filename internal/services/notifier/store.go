package notifier

import (
	"sort"
	"sync"

	"github.com/agrovive/greenhouse-live/internal/model"
)

// Store keeps the notification snapshot served to reconnecting views.
// Bounded and in-memory: delivery state is per-session in this system, the
// snapshot only has to cover what a dashboard shows on load.
type Store struct {
	mu     sync.RWMutex
	list   []model.Notification // newest first
	ids    map[string]struct{}
	unread int
	max    int
}

func NewStore(max int) *Store {
	if max <= 0 {
		max = 200
	}
	return &Store{ids: make(map[string]struct{}), max: max}
}

// Insert adds n unless its id was already inserted. First arrival wins;
// a duplicate is a no-op and reports false.
func (s *Store) Insert(n model.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[n.ID]; dup {
		return false
	}
	s.ids[n.ID] = struct{}{}
	s.list = append([]model.Notification{n}, s.list...)
	if !n.Read {
		s.unread++
	}

	// keep newest-first by createdAt; arrival order already approximates it
	sort.SliceStable(s.list, func(i, j int) bool {
		return s.list[i].CreatedAt.After(s.list[j].CreatedAt)
	})

	for len(s.list) > s.max {
		old := s.list[len(s.list)-1]
		s.list = s.list[:len(s.list)-1]
		delete(s.ids, old.ID)
		if !old.Read {
			s.unread--
		}
	}
	return true
}

// List returns a copy of the snapshot, newest first.
func (s *Store) List() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Notification, len(s.list))
	copy(out, s.list)
	return out
}

// MarkRead flags one notification as read. Idempotent; reports whether the
// id exists.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == id {
			if !s.list[i].Read {
				s.list[i].Read = true
				s.unread--
			}
			return true
		}
	}
	return false
}

// MarkAllRead flags every notification as read. A fully-read list is a
// no-op.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		s.list[i].Read = true
	}
	s.unread = 0
}

func (s *Store) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}
