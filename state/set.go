package state

import (
	"fmt"
	"sort"
)

// A Set holds the histories of every state of one component instance.
type Set map[string]*History

// Get returns a history by name.
func (s Set) Get(name string) (*History, error) {
	h, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("no state named %q", name)
	}

	return h, nil
}

// AdvanceAll advances every history together.
func (s Set) AdvanceAll() {
	for _, h := range s {
		h.Advance()
	}
}

// Names returns the sorted names of the states.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
