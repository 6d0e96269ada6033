package roster

import "github.com/mmynk/tuitionbook/internal/models"

// Selection is an ordered set of student keys.
type Selection struct {
	keys  []string
	index map[string]int
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{index: map[string]int{}}
}

// Toggle adds key, or removes it when already selected. Empty keys are ignored.
func (s *Selection) Toggle(key string) {
	if key == "" {
		return
	}
	if i, ok := s.index[key]; ok {
		s.keys = append(s.keys[:i], s.keys[i+1:]...)
		delete(s.index, key)
		for j := i; j < len(s.keys); j++ {
			s.index[s.keys[j]] = j
		}
		return
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
}

// Has reports whether key is selected.
func (s *Selection) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of selected keys.
func (s *Selection) Len() int {
	return len(s.keys)
}

// Keys returns the selected keys in selection order.
func (s *Selection) Keys() []string {
	return append([]string(nil), s.keys...)
}

// SelectAll replaces the selection with exactly the keys of visible.
func (s *Selection) SelectAll(visible []models.Student) {
	s.Clear()
	for _, st := range visible {
		if k := st.Key(); k != "" && !s.Has(k) {
			s.Toggle(k)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.keys = nil
	s.index = map[string]int{}
}
