package addressspace

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

// InstantiationHook, when non-nil, is invoked after a new Object/Variable
// instance's HasTypeDefinition reference is attached (spec §4.6 step 6).
type InstantiationHook func(instanceId, typeId nodeid.NodeId, userHandle any)

// AddNode is the single-phase convenience combining addNode_begin and
// addNode_finish (spec §4.7). It acquires the writer lock.
func (a *AddressSpace) AddNode(item AddNodesItem, hook InstantiationHook) (nodeid.NodeId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addNode(item, hook)
}

// addNode is the non-locking combination of begin+finish, callable from
// within an already-held writer section (e.g. recursively, from the
// instantiator).
func (a *AddressSpace) addNode(item AddNodesItem, hook InstantiationHook) (nodeid.NodeId, error) {
	id, n, err := a.addNodeBegin(item)
	if err != nil {
		return nodeid.NodeId{}, err
	}

	typeDefinition := item.TypeDefinition
	if typeDefinition.IsNull() {
		switch item.NodeClass {
		case node.ClassVariable:
			typeDefinition = typesystem.BaseDataVariableType
		case node.ClassObject:
			typeDefinition = typesystem.BaseObjectType
		}
	}

	if err := a.addNodeFinish(id, n, item.ParentNodeId, item.ReferenceTypeId, typeDefinition, hook); err != nil {
		return nodeid.NodeId{}, err
	}
	return id, nil
}

// addNodeBegin implements addNode_begin (spec §4.7): validate the
// namespace index, build the node via the attribute copier, and insert it,
// returning the store-assigned id before any validation below runs. This
// lets a caller (the instantiator) reference the new id from within a
// constructor/instantiation hook before the node is fully linked.
func (a *AddressSpace) addNodeBegin(item AddNodesItem) (nodeid.NodeId, *node.Node, error) {
	if !item.RequestedNodeId.IsNull() && !a.opts.Namespaces.Valid(item.RequestedNodeId.NamespaceIndex) {
		return nodeid.NodeId{}, nil, fmt.Errorf("addressspace: namespace index %d: %w", item.RequestedNodeId.NamespaceIndex, status.ErrNodeIdInvalid)
	}

	n, err := a.copyAttributes(item)
	if err != nil {
		return nodeid.NodeId{}, nil, err
	}

	id, err := a.store.Insert(n)
	if err != nil {
		a.store.DeleteNode(n)
		return nodeid.NodeId{}, nil, err
	}
	n.NodeId = id
	return id, n, nil
}

// addNodeFinish implements addNode_finish (spec §4.7): parent-reference
// validation, type checking, instantiation, and the inverse parent
// reference. On any failure it unwinds via unwindAddNode, which drives the
// destructor/reference-teardown path of §4.9 and recursively removes any
// child instances the instantiator had already aggregated onto the node,
// honoring the no-trace-on-failure invariant (spec §8 property 2).
func (a *AddressSpace) addNodeFinish(id nodeid.NodeId, n *node.Node, parentId, referenceTypeId, typeDefinition nodeid.NodeId, hook InstantiationHook) error {
	isOrphanObject := n.Class == node.ClassObject && parentId.IsNull() && referenceTypeId.IsNull()

	if !isOrphanObject {
		if err := a.refVal.CheckParentReference(n.Class, parentId, referenceTypeId); err != nil {
			a.unwindAddNode(id)
			return err
		}
	}

	if err := a.typeCheckNode(n, parentId, typeDefinition); err != nil {
		a.unwindAddNode(id)
		return err
	}

	if err := a.instantiateNode(n, typeDefinition, hook); err != nil {
		a.unwindAddNode(id)
		return err
	}

	if !isOrphanObject {
		parent, ok := a.store.Get(parentId)
		if !ok {
			a.unwindAddNode(id)
			return fmt.Errorf("addressspace: parent %s vanished mid-add: %w", parentId, status.ErrInternalError)
		}
		if err := a.addBidirectionalReference(n, referenceTypeId, parent, false); err != nil {
			a.unwindAddNode(id)
			return err
		}
	}

	a.log.Debug("addNode committed", zap.String("node_id", id.String()), zap.String("class", n.Class.String()))
	return nil
}

// unwindAddNode rolls back a failed addNode: it first recursively deletes
// any Object/Variable instances the instantiator cloned and aggregated onto
// id before the failure (rollbackAggregateChildren, instantiate.go), then
// removes id itself via the node deleter's full teardown path
// (deleteReferences=true), so a failed add — at any step, including after
// instantiation has partially run — leaves no trace (spec §4.7, §8
// property 2).
func (a *AddressSpace) unwindAddNode(id nodeid.NodeId) {
	a.rollbackAggregateChildren(id)
	a.deleteNode(id, true)
}

// typeCheckNode implements spec §4.7's typeCheckNode step: Variables are
// checked against typeDefinition; VariableTypes are checked against
// parentId (their supertype, per §4.7); other classes are a no-op.
func (a *AddressSpace) typeCheckNode(n *node.Node, parentId, typeDefinition nodeid.NodeId) error {
	switch n.Class {
	case node.ClassVariable:
		return a.typeCk.CheckVariableNode(n, typeDefinition)
	case node.ClassVariableType:
		if parentId.IsNull() {
			return nil
		}
		return a.typeCk.CheckVariableNode(n, parentId)
	default:
		return nil
	}
}
