package main

import "unsafe"

// openSet is a small open-addressing hash set of element pointers with
// linear probing and backward-shift deletion. It stands in for the
// general-purpose hash set a pool user would otherwise maintain next to
// their allocator.
type openSet struct {
	slots []*benchData
	mask  uintptr
	count int
}

func newOpenSet(capacityHint int) *openSet {
	n := uintptr(16)
	for int(n)*2 < capacityHint*3 { // keep load factor under 2/3
		n *= 2
	}
	return &openSet{slots: make([]*benchData, n), mask: n - 1}
}

func (s *openSet) hash(p *benchData) uintptr {
	h := uintptr(unsafe.Pointer(p))
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h & s.mask
}

// Insert adds p and reports whether it was absent.
func (s *openSet) Insert(p *benchData) bool {
	if (s.count+1)*3 > len(s.slots)*2 {
		s.grow()
	}
	i := s.hash(p)
	for s.slots[i] != nil {
		if s.slots[i] == p {
			return false
		}
		i = (i + 1) & s.mask
	}
	s.slots[i] = p
	s.count++
	return true
}

// Contains reports whether p is in the set.
func (s *openSet) Contains(p *benchData) bool {
	for i := s.hash(p); s.slots[i] != nil; i = (i + 1) & s.mask {
		if s.slots[i] == p {
			return true
		}
	}
	return false
}

// Erase removes p and reports whether it was present. Deletion shifts the
// probe chain back so no tombstones accumulate.
func (s *openSet) Erase(p *benchData) bool {
	i := s.hash(p)
	for {
		if s.slots[i] == nil {
			return false
		}
		if s.slots[i] == p {
			break
		}
		i = (i + 1) & s.mask
	}

	s.slots[i] = nil
	s.count--

	for j := (i + 1) & s.mask; s.slots[j] != nil; j = (j + 1) & s.mask {
		home := s.hash(s.slots[j])
		if inProbeRange(home, i, j, s.mask) {
			s.slots[i] = s.slots[j]
			s.slots[j] = nil
			i = j
		}
	}
	return true
}

// Range calls fn for every element.
func (s *openSet) Range(fn func(*benchData)) {
	for _, p := range s.slots {
		if p != nil {
			fn(p)
		}
	}
}

func (s *openSet) Len() int { return s.count }

func (s *openSet) grow() {
	old := s.slots
	s.slots = make([]*benchData, len(old)*2)
	s.mask = uintptr(len(s.slots) - 1)
	s.count = 0
	for _, p := range old {
		if p != nil {
			s.Insert(p)
		}
	}
}

// inProbeRange reports whether hole sits between an element's home slot and
// its current slot, walking forward with wraparound.
func inProbeRange(home, hole, cur, mask uintptr) bool {
	if home <= cur {
		return home <= hole && hole <= cur
	}
	return hole >= home || hole <= cur
}
