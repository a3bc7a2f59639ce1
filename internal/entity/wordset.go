package entity

// WordSet is an insertion-ordered set of words compared case-insensitively.
// The first spelling added for a word is the one kept.
type WordSet struct {
	words []string
	index map[string]struct{}
}

// NewWordSet builds a set from words, skipping blanks and duplicates.
func NewWordSet(words ...string) *WordSet {
	s := &WordSet{index: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts word and reports whether it was not already present.
func (s *WordSet) Add(word string) bool {
	key := NormalizeWordToken(word)
	if key == "" {
		return false
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.words = append(s.words, word)
	return true
}

// Contains reports whether word is in the set.
func (s *WordSet) Contains(word string) bool {
	_, ok := s.index[NormalizeWordToken(word)]
	return ok
}

// Len returns the number of words.
func (s *WordSet) Len() int { return len(s.words) }

// Words returns a copy of the words in insertion order. Never nil.
func (s *WordSet) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Union adds every word from other and returns the ones that were new.
func (s *WordSet) Union(words []string) []string {
	added := []string{}
	for _, w := range words {
		if s.Add(w) {
			added = append(added, w)
		}
	}
	return added
}

// Partition splits reference (kept in its own order) into words present in
// the set and words absent from it.
func (s *WordSet) Partition(reference []string) (present, absent []string) {
	present, absent = []string{}, []string{}
	for _, w := range reference {
		if s.Contains(w) {
			present = append(present, w)
		} else {
			absent = append(absent, w)
		}
	}
	return present, absent
}
