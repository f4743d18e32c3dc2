package scraper

// FingerprintSet tracks the links already seen within a single discovery run.
// Different sorters surface overlapping result sets, so the union is built in
// memory and only unseen links reach the ledger. Not safe for concurrent use;
// a run owns its set.
type FingerprintSet struct {
	seen map[string]struct{}
}

// NewFingerprintSet creates an empty set.
func NewFingerprintSet() *FingerprintSet {
	return &FingerprintSet{seen: make(map[string]struct{})}
}

// Seen reports whether the link was added before.
func (s *FingerprintSet) Seen(link string) bool {
	_, ok := s.seen[link]
	return ok
}

// Add inserts the link and reports whether it was new.
func (s *FingerprintSet) Add(link string) bool {
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	return true
}

// Len returns the number of distinct links added.
func (s *FingerprintSet) Len() int {
	return len(s.seen)
}
