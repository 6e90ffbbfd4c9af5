// Package visited provides a sparse set used to bound exploration of
// (FST state, input position) pairs during backtracking transduction.
//
// A sparse set supports O(1) insert, membership test, and full clear while
// maintaining a dense list for iteration. This is a better fit for the
// transduction engine than a zeroed bit vector because the engine resets
// its visited set once per word or sentence, and Clear must not pay for
// re-zeroing the whole universe every time.
package visited

// Set tracks visited uint32 keys within a fixed universe [0, capacity).
type Set struct {
	sparse []uint32
	dense  []uint32
	size   uint32
}

// NewSet creates a visited-set over the half-open range [0, capacity).
func NewSet(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert marks key as visited. It returns true if key was newly inserted
// and false if it was already present.
func (s *Set) Insert(key uint32) bool {
	if s.Contains(key) {
		return false
	}
	s.dense = append(s.dense, key)
	s.sparse[key] = s.size
	s.size++
	return true
}

// Contains reports whether key has been visited.
func (s *Set) Contains(key uint32) bool {
	if key >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[key]
	return idx < s.size && s.dense[idx] == key
}

// Remove unmarks key, if present, in O(1) by swapping it with the last
// dense entry. Used when a caller tracks a set of currently-active keys
// (e.g. a backtracking stack) rather than every key ever seen.
func (s *Set) Remove(key uint32) {
	if !s.Contains(key) {
		return
	}
	idx := s.sparse[key]
	last := s.size - 1
	lastKey := s.dense[last]
	s.dense[idx] = lastKey
	s.sparse[lastKey] = idx
	s.dense = s.dense[:last]
	s.size = last
}

// Clear empties the set in O(1) without touching the sparse array.
func (s *Set) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of visited keys.
func (s *Set) Len() int {
	return int(s.size)
}

// Grow ensures the set's universe covers at least capacity keys. Growing
// reallocates the sparse array and implicitly clears the set.
func (s *Set) Grow(capacity uint32) {
	if uint32(len(s.sparse)) >= capacity {
		return
	}
	s.sparse = make([]uint32, capacity)
	s.dense = s.dense[:0]
	s.size = 0
}
