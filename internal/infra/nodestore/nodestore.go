// Package nodestore implements the abstract typed map the address-space
// core treats the backing node container as (spec §4.1): insert, get
// (borrowed view), getCopy (owned clone), remove, newNodeOfClass, delete.
//
// The structure below — an id→pointer map paired with an ordered id slice
// and an id→position index for O(1) removal — is adapted from
// internal/infra's ObjectStore pattern, keyed here by NodeId.Key() instead
// of int64 and storing *node.Node instead of any.
package nodestore

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
)

// Store is the abstract typed map consumed by the address-space core.
// Implementations need not provide any concurrency contract beyond what
// spec §5 requires of the caller (the address-space writer lock); Store
// itself is additionally safe for standalone concurrent use.
type Store interface {
	NewNodeOfClass(class node.Class) (*node.Node, error)
	Insert(n *node.Node) (nodeid.NodeId, error)
	Get(id nodeid.NodeId) (*node.Node, bool)
	GetCopy(id nodeid.NodeId) (*node.Node, bool)
	Remove(id nodeid.NodeId) error
	DeleteNode(n *node.Node)
	Count() int
	// All returns every stored node's NodeId, for callers that must
	// enumerate the whole address space (e.g. the diagnostics surface).
	// The order is insertion order until a Remove, which moves the last
	// key into the removed key's slot.
	All() []nodeid.NodeId
}

// InMemoryStore is the in-process Store implementation: the address
// space's sole node container for a running server.
type InMemoryStore struct {
	log *zap.Logger

	mu sync.RWMutex
	st storeState

	// nextNumeric allocates the next unused numeric identifier per
	// namespace, for Insert's "assign me one" path.
	nextNumeric map[uint16]uint32
}

type storeState struct {
	byKey map[string]*node.Node
	keys  []string
	pos   map[string]int
}

// New constructs a ready-to-use, empty InMemoryStore.
func New(log *zap.Logger) *InMemoryStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryStore{
		log: log.Named("nodestore"),
		st: storeState{
			byKey: make(map[string]*node.Node),
			keys:  make([]string, 0),
			pos:   make(map[string]int),
		},
		nextNumeric: make(map[uint16]uint32),
	}
}

// NewNodeOfClass allocates a node of the given class with a zero-initialized
// class-specific attribute block.
func (s *InMemoryStore) NewNodeOfClass(class node.Class) (*node.Node, error) {
	n, err := node.New(class)
	if err != nil {
		return nil, fmt.Errorf("nodestore: %w: %v", status.ErrOutOfMemory, err)
	}
	return n, nil
}

// Insert takes ownership of n. If n.NodeId has a zero numeric identifier,
// a fresh unused numeric id in that namespace is assigned before storage.
// Fails with status.ErrNodeIdExists if the (possibly freshly assigned) id
// is already occupied.
func (s *InMemoryStore) Insert(n *node.Node) (nodeid.NodeId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.NodeId.IsZeroNumeric() {
		n.NodeId.Numeric = s.allocateNumericLocked(n.NodeId.NamespaceIndex)
	}

	key := n.NodeId.Key()
	if _, exists := s.st.byKey[key]; exists {
		return nodeid.NodeId{}, fmt.Errorf("nodestore: insert %s: %w", n.NodeId, status.ErrNodeIdExists)
	}

	s.st.byKey[key] = n
	s.st.pos[key] = len(s.st.keys)
	s.st.keys = append(s.st.keys, key)

	if n.NodeId.Kind == nodeid.IdentifierNumeric && n.NodeId.Numeric >= s.nextNumeric[n.NodeId.NamespaceIndex] {
		s.nextNumeric[n.NodeId.NamespaceIndex] = n.NodeId.Numeric + 1
	}

	s.log.Debug("insert", zap.String("node_id", n.NodeId.String()), zap.String("class", n.Class.String()))
	return n.NodeId, nil
}

func (s *InMemoryStore) allocateNumericLocked(ns uint16) uint32 {
	next := s.nextNumeric[ns]
	if next == 0 {
		next = 1
	}
	s.nextNumeric[ns] = next + 1
	return next
}

// Get returns a read-only borrow, valid until the next store mutation.
// Callers must not mutate the returned node; use GetCopy for that.
func (s *InMemoryStore) Get(id nodeid.NodeId) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.st.byKey[id.Key()]
	return n, ok
}

// GetCopy returns a deep-owned clone suitable for mutation and later
// re-Insert.
func (s *InMemoryStore) GetCopy(id nodeid.NodeId) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.st.byKey[id.Key()]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Remove frees the node with the given id, compacting the key slice with
// swap-with-last.
func (s *InMemoryStore) Remove(id nodeid.NodeId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.Key()
	idx, ok := s.st.pos[key]
	if !ok {
		return fmt.Errorf("nodestore: remove %s: %w", id, status.ErrNodeIdUnknown)
	}

	delete(s.st.byKey, key)
	delete(s.st.pos, key)

	last := len(s.st.keys) - 1
	s.st.keys[idx] = s.st.keys[last]
	s.st.keys = s.st.keys[:last]
	if idx != last {
		s.st.pos[s.st.keys[idx]] = idx
	}

	s.log.Debug("remove", zap.String("node_id", id.String()))
	return nil
}

// DeleteNode frees a node that was never inserted (e.g. a partially built
// node abandoned by the attribute copier on a mid-copy failure). It is a
// no-op on the store's own state; the node simply becomes garbage.
func (s *InMemoryStore) DeleteNode(n *node.Node) {
	if n == nil {
		return
	}
	s.log.Debug("discard uninserted node", zap.String("class", n.Class.String()))
}

// Count returns the number of stored nodes.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.keys)
}

// All returns every stored node's NodeId in key-slice order: insertion
// order, except that each Remove moves the last key into the freed slot.
func (s *InMemoryStore) All() []nodeid.NodeId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]nodeid.NodeId, 0, len(s.st.keys))
	for _, k := range s.st.keys {
		out = append(out, s.st.byKey[k].NodeId)
	}
	return out
}
