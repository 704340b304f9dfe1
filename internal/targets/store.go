// Package targets keeps per-branch, per-position dish sales targets.
package targets

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

const DefaultMaxPositions = 20

var (
	ErrUnknownBranch      = errors.New("branch has no target slots; reset targets first")
	ErrPositionOutOfRange = errors.New("target position out of range")
)

// Slot is one staff position of a branch. Assigned is false for positions
// that were never set.
type Slot struct {
	BranchID        string  `json:"branch_id"`
	Position        int     `json:"position"`
	Category        string  `json:"category"`
	Target1         float64 `json:"target1"`
	Target2         float64 `json:"target2"`
	EmployeeSurname string  `json:"employee_surname"`
	Assigned        bool    `json:"assigned"`
}

type Store struct {
	mu           sync.RWMutex
	maxPositions int
	branches     []string
	slots        map[string][]*Slot
}

// NewStore creates an empty store; maxPositions bounds the staff roster of
// every branch.
func NewStore(maxPositions int) *Store {
	if maxPositions <= 0 {
		maxPositions = DefaultMaxPositions
	}
	return &Store{
		maxPositions: maxPositions,
		slots:        make(map[string][]*Slot),
	}
}

func (s *Store) MaxPositions() int {
	return s.maxPositions
}

// Reset drops every slot and starts one empty slot list per branch.
func (s *Store) Reset(branchIDs []string) {
	branches := make([]string, 0, len(branchIDs))
	slots := make(map[string][]*Slot, len(branchIDs))
	for _, id := range branchIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := slots[id]; dup {
			continue
		}
		branches = append(branches, id)
		slots[id] = []*Slot{}
	}

	s.mu.Lock()
	s.branches = branches
	s.slots = slots
	s.mu.Unlock()
}

// SetDishTarget upserts the slot at a zero-based position. A nil or
// non-finite target leaves the slot untouched and is not an error.
func (s *Store) SetDishTarget(branchID string, position int, category string, target1, target2 *float64, surname string) error {
	if !validTarget(target1) || !validTarget(target2) {
		return nil
	}
	if position < 0 || position >= s.maxPositions {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPositionOutOfRange, position, s.maxPositions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.slots[branchID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBranch, branchID)
	}
	for len(list) <= position {
		list = append(list, nil)
	}
	list[position] = &Slot{
		BranchID:        branchID,
		Position:        position,
		Category:        strings.TrimSpace(category),
		Target1:         *target1,
		Target2:         *target2,
		EmployeeSurname: strings.TrimSpace(surname),
		Assigned:        true,
	}
	s.slots[branchID] = list
	return nil
}

// Targets returns a copy of the branch's slots up to the highest assigned
// position.
func (s *Store) Targets(branchID string) ([]Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.slots[branchID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBranch, branchID)
	}
	out := make([]Slot, len(list))
	for i, slot := range list {
		if slot == nil {
			out[i] = Slot{BranchID: branchID, Position: i}
			continue
		}
		out[i] = *slot
	}
	return out, nil
}

func (s *Store) Branches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.branches...)
}

func validTarget(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
