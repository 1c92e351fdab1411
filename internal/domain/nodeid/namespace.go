package nodeid

import (
	"fmt"
	"sync"
)

// NamespaceTable maps namespace URIs to the indices NodeId.NamespaceIndex
// carries. Index 0 is reserved for the OPC UA namespace itself and is
// always present.
type NamespaceTable struct {
	mu  sync.RWMutex
	uri []string
}

const OpcUaNamespaceURI = "http://opcfoundry.org/UA/"

// NewNamespaceTable constructs a table with index 0 pre-populated.
func NewNamespaceTable() *NamespaceTable {
	return &NamespaceTable{uri: []string{OpcUaNamespaceURI}}
}

// Append adds uri and returns its newly assigned index; a uri already in
// the table is not added again and its existing index is returned. Existing indices
// never change, so callers may cache a namespace index across calls.
func (t *NamespaceTable) Append(uri string) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, u := range t.uri {
		if u == uri {
			return uint16(i)
		}
	}
	t.uri = append(t.uri, uri)
	return uint16(len(t.uri) - 1)
}

// IndexOf returns the index for uri and whether it is present.
func (t *NamespaceTable) IndexOf(uri string) (uint16, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, u := range t.uri {
		if u == uri {
			return uint16(i), true
		}
	}
	return 0, false
}

// URI returns the URI registered at index, or an error if index is beyond
// the configured count (spec invariant 7).
func (t *NamespaceTable) URI(index uint16) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(index) >= len(t.uri) {
		return "", fmt.Errorf("namespace index %d exceeds configured count %d", index, len(t.uri))
	}
	return t.uri[index], nil
}

// Count returns the number of registered namespaces.
func (t *NamespaceTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.uri)
}

// Valid reports whether index is within the configured namespace count.
func (t *NamespaceTable) Valid(index uint16) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(index) < len(t.uri)
}
