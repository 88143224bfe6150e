package crawler

import (
	"fmt"
	"sort"
)

// Registry maps parser identifiers to their implementations.
type Registry map[ParserID]Parser

// Lookup returns the parser registered under id.
func (r Registry) Lookup(id ParserID) (Parser, error) {
	p, ok := r[id]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, id)
	}
	return p, nil
}

// IDs returns the registered identifiers in sorted order.
func (r Registry) IDs() []ParserID {
	ids := make([]ParserID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
