package addressspace

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
)

// AddReference implements spec §4.8's addReference: foreign-server targets
// fail with status.ErrNotImplemented; otherwise a pair of one-way
// references is added atomically — if adding the inverse fails, the
// forward entry is rolled back. Acquires the writer lock.
func (a *AddressSpace) AddReference(item AddReferencesItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addReference(item)
}

func (a *AddressSpace) addReference(item AddReferencesItem) error {
	if !item.TargetId.IsLocal() {
		return fmt.Errorf("addressspace: foreign-server reference to %s: %w", item.TargetId.NodeId, status.ErrNotImplemented)
	}

	srcId, tgtId := item.SourceId, item.TargetId.NodeId
	if !item.IsForward {
		srcId, tgtId = tgtId, srcId
	}

	src, ok := a.store.Get(srcId)
	if !ok {
		return fmt.Errorf("addressspace: source %s: %w", srcId, status.ErrNodeIdUnknown)
	}
	tgt, ok := a.store.Get(tgtId)
	if !ok {
		return fmt.Errorf("addressspace: target %s: %w", tgtId, status.ErrNodeIdUnknown)
	}

	if err := addOneWayReference(src, item.ReferenceTypeId, nodeid.Local(tgtId), false); err != nil {
		return err
	}
	if err := addOneWayReference(tgt, item.ReferenceTypeId, nodeid.Local(srcId), true); err != nil {
		// Roll back the forward entry so the pair stays atomic (spec §4.8).
		src.RemoveReference(item.ReferenceTypeId, tgtId, false)
		return err
	}

	if item.ReferenceTypeId.Equal(hasSubtypeID) {
		a.walker.InvalidateAll()
	}
	return nil
}

// addBidirectionalReference is the internal entry point addNode_finish and
// the instantiator use to attach a forward/inverse reference pair between
// two live store nodes: the forward entry lands on source pointing at
// target, the inverse on target pointing at source. Used instead of
// addReference (which re-resolves both ends from their ids) because both
// ends are already held as live pointers mid-add/mid-instantiation.
func (a *AddressSpace) addBidirectionalReference(target *node.Node, referenceTypeId nodeid.NodeId, source *node.Node, _ bool) error {
	if err := addOneWayReference(source, referenceTypeId, nodeid.Local(target.NodeId), false); err != nil {
		return err
	}
	if err := addOneWayReference(target, referenceTypeId, nodeid.Local(source.NodeId), true); err != nil {
		source.RemoveReference(referenceTypeId, target.NodeId, false)
		return err
	}
	if referenceTypeId.Equal(hasSubtypeID) {
		a.walker.InvalidateAll()
	}
	return nil
}

var hasSubtypeID = nodeid.Numeric(0, 45) // same id as typesystem.HasSubtype

// addOneWayReference appends entry to n's reference list, enforcing
// invariant 2 (no duplicate (type,target,direction)) via Node.AddReference.
// A duplicate is reported as status.ErrBadDuplicateReferenceNotAllowed
// (SPEC_FULL open question 1: enforced on insert).
func addOneWayReference(n *node.Node, refType nodeid.NodeId, target nodeid.ExpandedNodeId, isInverse bool) error {
	err := n.AddReference(node.ReferenceEntry{ReferenceTypeId: refType, TargetId: target, IsInverse: isInverse})
	if err != nil {
		return fmt.Errorf("addressspace: %w", status.ErrBadDuplicateReferenceNotAllowed)
	}
	return nil
}

// deleteOneWayReference removes a single one-way entry (spec §4.8
// deleteOneWayReference): linear scan from the end, swap-with-last.
// Returns status.ErrUncertainReferenceNotDeleted if nothing matched.
func deleteOneWayReference(n *node.Node, refType nodeid.NodeId, target nodeid.NodeId, isInverse bool) error {
	if !n.RemoveReference(refType, target, isInverse) {
		return fmt.Errorf("addressspace: %w", status.ErrUncertainReferenceNotDeleted)
	}
	return nil
}

// DeleteReference implements spec §4.8's deleteReference: removes the
// forward/inverse entry from the source; if deleteBidirectional and the
// target is local, best-effort removes the inverse from the target too.
// Failure on the inverse side is surfaced but does not restore the
// forward entry (best-effort consistency, per spec §4.8/§7).
func (a *AddressSpace) DeleteReference(item DeleteReferencesItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deleteReference(item)
}

func (a *AddressSpace) deleteReference(item DeleteReferencesItem) error {
	src, ok := a.store.Get(item.SourceId)
	if !ok {
		return fmt.Errorf("addressspace: source %s: %w", item.SourceId, status.ErrNodeIdUnknown)
	}
	if err := deleteOneWayReference(src, item.ReferenceTypeId, item.TargetId.NodeId, !item.IsForward); err != nil {
		return err
	}

	if item.ReferenceTypeId.Equal(hasSubtypeID) {
		a.walker.InvalidateAll()
	}

	if !item.DeleteBidirectional || !item.TargetId.IsLocal() {
		return nil
	}

	tgt, ok := a.store.Get(item.TargetId.NodeId)
	if !ok {
		return fmt.Errorf("addressspace: target %s: %w", item.TargetId.NodeId, status.ErrNodeIdUnknown)
	}
	if err := deleteOneWayReference(tgt, item.ReferenceTypeId, item.SourceId, item.IsForward); err != nil {
		return err
	}
	return nil
}
