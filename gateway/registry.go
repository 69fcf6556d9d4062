package gateway

import (
	"fmt"
	"sort"

	"github.com/kvolkov/snmp_gate/snmp"
)

// Registry is the ordered set of registered oids. It is built once at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	handlers []Handler
	index    map[string]Handler
}

// NewRegistry sorts the handlers by oid and builds the exact-match index.
// A duplicate oid is a configuration error.
func NewRegistry(handlers []Handler) (*Registry, error) {
	sorted := make([]Handler, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OID().Compare(sorted[j].OID()) < 0
	})

	index := make(map[string]Handler, len(sorted))
	for i, h := range sorted {
		key := h.OID().String()
		if i > 0 && sorted[i-1].OID().Equal(h.OID()) {
			return nil, fmt.Errorf("gateway: duplicate oid %s", key)
		}
		index[key] = h
	}

	return &Registry{handlers: sorted, index: index}, nil
}

func (r *Registry) Len() int {
	return len(r.handlers)
}

// Handlers returns the registered entries in ascending oid order.
func (r *Registry) Handlers() []Handler {
	return r.handlers
}

// Exact resolves an oid to its entry.
func (r *Registry) Exact(oid snmp.OID) (Handler, bool) {
	h, ok := r.index[oid.String()]
	return h, ok
}

// Successor resolves the entry with the smallest oid strictly greater than
// the argument, or reports end of space.
func (r *Registry) Successor(oid snmp.OID) (Handler, bool) {
	i := sort.Search(len(r.handlers), func(i int) bool {
		return r.handlers[i].OID().Compare(oid) > 0
	})
	if i == len(r.handlers) {
		return nil, false
	}
	return r.handlers[i], true
}
