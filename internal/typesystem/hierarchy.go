// Package typesystem implements the three validators spec §4.2-§4.5 name:
// the type hierarchy walker, the reference validator, and the variable
// type checker. None of these take the address-space lock — they borrow
// Store.Get views under the writer lock the caller already holds
// (spec §5); the only lock here is the walker's own mutex guarding its
// supertype-chain cache.
package typesystem

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
)

// HierarchyWalker produces type-hierarchy supertype chains and answers
// tree-reachability queries (spec §4.2). Supertype chains are cached and
// the cache is invalidated wholesale on every HasSubtype mutation — the
// coarsest correct policy and the one the teacher's own SummaryService
// cache uses (TTL/invalidate-all, not per-key tracking).
type HierarchyWalker struct {
	store nodestore.Store

	mu    sync.RWMutex
	cache map[string][]nodeid.NodeId
	sg    singleflight.Group
}

// NewHierarchyWalker constructs a walker over store.
func NewHierarchyWalker(store nodestore.Store) *HierarchyWalker {
	return &HierarchyWalker{
		store: store,
		cache: make(map[string][]nodeid.NodeId),
	}
}

// InvalidateAll drops the cached supertype chains. Call after any
// HasSubtype reference is added or removed.
func (w *HierarchyWalker) InvalidateAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = make(map[string][]nodeid.NodeId)
}

// SupertypeChain returns [start, super, super², ...] by following inverse
// HasSubtype edges from start until a fixed point (spec §4.2). Bounds
// recursion at maxChainDepth and reports status.ErrInternalError on
// apparent cycles, which spec says are impossible in a well-formed address
// space but must still be guarded against.
const maxChainDepth = 1024

func (w *HierarchyWalker) SupertypeChain(start nodeid.NodeId) ([]nodeid.NodeId, error) {
	key := start.Key()

	w.mu.RLock()
	if chain, ok := w.cache[key]; ok {
		w.mu.RUnlock()
		return append([]nodeid.NodeId(nil), chain...), nil
	}
	w.mu.RUnlock()

	v, err, _ := w.sg.Do(key, func() (any, error) {
		chain, err := w.computeChain(start)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		w.cache[key] = chain
		w.mu.Unlock()
		return chain, nil
	})
	if err != nil {
		return nil, err
	}
	chain := v.([]nodeid.NodeId)
	return append([]nodeid.NodeId(nil), chain...), nil
}

func (w *HierarchyWalker) computeChain(start nodeid.NodeId) ([]nodeid.NodeId, error) {
	chain := []nodeid.NodeId{start}
	seen := map[string]bool{start.Key(): true}

	cur := start
	for depth := 0; depth < maxChainDepth; depth++ {
		n, ok := w.store.Get(cur)
		if !ok {
			return chain, nil
		}
		parents := n.InverseReferencesOfType(HasSubtype)
		if len(parents) == 0 {
			return chain, nil
		}
		super := parents[0].TargetId.NodeId
		if seen[super.Key()] {
			return nil, fmt.Errorf("typesystem: HasSubtype cycle detected at %s: %w", super, status.ErrInternalError)
		}
		chain = append(chain, super)
		seen[super.Key()] = true
		cur = super
	}
	return nil, fmt.Errorf("typesystem: HasSubtype chain from %s exceeds depth %d: %w", start, maxChainDepth, status.ErrInternalError)
}

// IsNodeInTree reports whether rootId is reachable from startId by forward
// traversal through any edge whose reference type is a subtype of one of
// allowedRefTypes (spec §4.2).
func (w *HierarchyWalker) IsNodeInTree(startId, rootId nodeid.NodeId, allowedRefTypes []nodeid.NodeId) (bool, error) {
	if startId.Equal(rootId) {
		return true, nil
	}

	visited := make(map[string]bool)
	var visit func(id nodeid.NodeId, depth int) (bool, error)
	visit = func(id nodeid.NodeId, depth int) (bool, error) {
		if depth > maxChainDepth {
			return false, fmt.Errorf("typesystem: IsNodeInTree exceeds depth %d: %w", maxChainDepth, status.ErrInternalError)
		}
		key := id.Key()
		if visited[key] {
			return false, nil
		}
		visited[key] = true

		n, ok := w.store.Get(id)
		if !ok {
			return false, nil
		}
		for _, ref := range n.References {
			if ref.IsInverse {
				continue
			}
			allowed, err := w.isSubtypeOfAny(ref.ReferenceTypeId, allowedRefTypes)
			if err != nil {
				return false, err
			}
			if !allowed {
				continue
			}
			if ref.TargetId.NodeId.Equal(rootId) {
				return true, nil
			}
			found, err := visit(ref.TargetId.NodeId, depth+1)
			if err != nil || found {
				return found, err
			}
		}
		return false, nil
	}
	return visit(startId, 0)
}

// isSubtypeOfAny reports whether refType equals, or is a HasSubtype
// descendant of, any id in candidates.
func (w *HierarchyWalker) isSubtypeOfAny(refType nodeid.NodeId, candidates []nodeid.NodeId) (bool, error) {
	chain, err := w.SupertypeChain(refType)
	if err != nil {
		return false, err
	}
	for _, c := range candidates {
		for _, t := range chain {
			if t.Equal(c) {
				return true, nil
			}
		}
	}
	return false, nil
}

// IsSubtypeOf reports whether child is child.Equal(parent) or a transitive
// HasSubtype descendant of parent.
func (w *HierarchyWalker) IsSubtypeOf(child, parent nodeid.NodeId) (bool, error) {
	chain, err := w.SupertypeChain(child)
	if err != nil {
		return false, err
	}
	for _, t := range chain {
		if t.Equal(parent) {
			return true, nil
		}
	}
	return false, nil
}
