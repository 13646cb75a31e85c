// Package selection tracks which loaded issues are chosen for a group run.
package selection

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownItem is returned when toggling an id that is not in the loaded list.
var ErrUnknownItem = errors.New("issue is not in the loaded list")

// Set is the current selection over the loaded issue list. It is always a
// subset of that list. Changing it never touches run state.
type Set struct {
	mu       sync.RWMutex
	items    []int
	known    map[int]struct{}
	selected map[int]struct{}
}

// New creates a selection over the given loaded ids with nothing selected.
func New(items []int) *Set {
	s := &Set{}
	s.SetItems(items)
	return s
}

// SetItems replaces the loaded list, dropping selected ids no longer present.
func (s *Set) SetItems(items []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]int, 0, len(items))
	s.known = make(map[int]struct{}, len(items))
	for _, id := range items {
		if _, dup := s.known[id]; dup {
			continue
		}
		s.known[id] = struct{}{}
		s.items = append(s.items, id)
	}

	pruned := make(map[int]struct{}, len(s.selected))
	for id := range s.selected {
		if _, ok := s.known[id]; ok {
			pruned[id] = struct{}{}
		}
	}
	s.selected = pruned
}

// Toggle flips membership of id.
func (s *Set) Toggle(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.known[id]; !ok {
		return fmt.Errorf("toggle #%d: %w", id, ErrUnknownItem)
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	return nil
}

// ToggleAll clears the selection when everything is selected, and selects
// everything otherwise. A partial selection becomes a full one.
func (s *Set) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allCheckedLocked() {
		s.selected = make(map[int]struct{})
		return
	}
	s.selected = make(map[int]struct{}, len(s.items))
	for _, id := range s.items {
		s.selected[id] = struct{}{}
	}
}

// AllChecked reports whether every loaded id is selected. An empty list is
// never all-checked.
func (s *Set) AllChecked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allCheckedLocked()
}

func (s *Set) allCheckedLocked() bool {
	return len(s.items) > 0 && len(s.selected) == len(s.items)
}

// Has reports whether id is selected.
func (s *Set) Has(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// IDs returns the selected ids in loaded-list order.
func (s *Set) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.selected))
	for _, id := range s.items {
		if _, ok := s.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Items returns the loaded ids.
func (s *Set) Items() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.items...)
}
