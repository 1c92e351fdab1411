package addressspace

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

// DeleteNode implements deleteNode (spec §4.9): invokes every ObjectType
// destructor in the instance's type chain, optionally tears down incoming
// and outgoing references, and removes the node from the store. Acquires
// the writer lock.
func (a *AddressSpace) DeleteNode(id nodeid.NodeId, deleteTargetReferences bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deleteNode(id, deleteTargetReferences)
}

// deleteNode is the non-locking form, used both as the public entry point
// (under lock) and as addNode_finish's unwind-on-failure cleanup path,
// where the writer lock is already held.
func (a *AddressSpace) deleteNode(id nodeid.NodeId, deleteTargetReferences bool) error {
	n, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("addressspace: delete %s: %w", id, status.ErrNodeIdUnknown)
	}

	if n.Class == node.ClassObject {
		a.invokeDestructors(n)
	}

	if deleteTargetReferences {
		a.tearDownReferences(n)
	}

	if err := a.store.Remove(id); err != nil {
		return fmt.Errorf("addressspace: delete %s: %w", id, err)
	}
	if len(n.ForwardReferencesOfType(typesystem.HasSubtype)) > 0 ||
		len(n.InverseReferencesOfType(typesystem.HasSubtype)) > 0 {
		a.walker.InvalidateAll()
	}
	a.log.Debug("node deleted", zap.String("node_id", id.String()))
	return nil
}

// invokeDestructors browses n's forward HasTypeDefinition target, then that
// type's full HasSubtype supertype chain, and calls every registered
// destructor found along it with (n.NodeId, n.Object.InstanceHandle) —
// "multiple destructors in a mixin chain are all invoked" (spec §4.9).
// Destructors return nothing; a supertype chain that cannot be computed is
// logged and ends destructor invocation without failing the delete
// (spec §5 "a failed deleteNode after destructor invocation does not
// re-run the destructor").
func (a *AddressSpace) invokeDestructors(n *node.Node) {
	typeRefs := n.ForwardReferencesOfType(typesystem.HasTypeDefinition)
	if len(typeRefs) == 0 {
		return
	}

	chain, err := a.walker.SupertypeChain(typeRefs[0].TargetId.NodeId)
	if err != nil {
		a.log.Warn("supertype chain unavailable during destructor invocation", zap.Error(err))
		return
	}

	for _, typeId := range chain {
		typeNode, ok := a.store.Get(typeId)
		if !ok || typeNode.Class != node.ClassObjectType {
			continue
		}
		lc := typeNode.ObjectType.Lifecycle
		if lc == nil || lc.Destructor == nil {
			continue
		}
		lc.Destructor(n.NodeId, n.Object.InstanceHandle)
	}
}

// tearDownReferences removes, for each of n's local reference entries
// (forward and inverse alike), the matching opposite-direction entry on
// the peer (best-effort; consistency violations
// are not rolled back, per spec §4.9/§5). n's own reference list is left
// untouched — it is discarded wholesale when the node itself is removed
// from the store.
func (a *AddressSpace) tearDownReferences(n *node.Node) {
	for _, ref := range n.References {
		if !ref.TargetId.IsLocal() {
			continue
		}
		peer, ok := a.store.Get(ref.TargetId.NodeId)
		if !ok {
			continue
		}
		if !peer.RemoveReference(ref.ReferenceTypeId, n.NodeId, !ref.IsInverse) {
			a.log.Warn("peer missing expected inverse reference during delete",
				zap.String("node_id", n.NodeId.String()),
				zap.String("peer_id", peer.NodeId.String()))
		}
	}
}
