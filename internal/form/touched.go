package form

import "sort"

// TouchedSet records which field paths the user has interacted with. Errors
// are computed for every field but only shown for touched ones until the
// first save attempt.
type TouchedSet map[string]struct{}

// Add marks path as touched.
func (t TouchedSet) Add(path string) {
	t[path] = struct{}{}
}

// Has reports whether path was touched.
func (t TouchedSet) Has(path string) bool {
	_, ok := t[path]
	return ok
}

// Paths returns the touched paths in sorted order.
func (t TouchedSet) Paths() []string {
	out := make([]string, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// removeItem drops the marks of item index and shifts marks of later items
// down by one so they keep following their rows.
func (t TouchedSet) removeItem(index int) {
	shifted := make(TouchedSet, len(t))
	for p := range t {
		i, leaf, ok := ParseItemField(p)
		switch {
		case !ok || i < index:
			shifted.Add(p)
		case i > index:
			shifted.Add(ItemField(i-1, leaf))
		}
	}
	for p := range t {
		delete(t, p)
	}
	for p := range shifted {
		t.Add(p)
	}
}
