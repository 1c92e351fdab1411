package addressspace

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

// instantiateNode implements the instantiator (spec §4.6). A no-op for any
// class other than Object and Variable. Resolves typeDefId, walks its
// supertype chain most-derived-first, deep-merges each ancestor's
// aggregated children into the new instance, runs the resolved type's
// constructor (ObjectType only), attaches HasTypeDefinition, and invokes
// hook.
func (a *AddressSpace) instantiateNode(n *node.Node, typeDefId nodeid.NodeId, hook InstantiationHook) error {
	if n.Class != node.ClassObject && n.Class != node.ClassVariable {
		return nil
	}

	wantClass := node.ClassObjectType
	if n.Class == node.ClassVariable {
		wantClass = node.ClassVariableType
	}

	typeNode, ok := a.store.Get(typeDefId)
	if !ok || typeNode.Class != wantClass {
		return fmt.Errorf("addressspace: type definition %s: %w", typeDefId, status.ErrTypeDefinitionInvalid)
	}
	if typeNode.IsAbstract() {
		return fmt.Errorf("addressspace: type definition %s is abstract: %w", typeDefId, status.ErrTypeDefinitionInvalid)
	}

	chain, err := a.walker.SupertypeChain(typeDefId)
	if err != nil {
		return err
	}

	for _, ancestorId := range chain {
		if err := a.copyChildNodes(ancestorId, n.NodeId); err != nil {
			return err
		}
	}

	if n.Class == node.ClassObject && typeNode.ObjectType.Lifecycle != nil && typeNode.ObjectType.Lifecycle.Constructor != nil {
		handle, err := typeNode.ObjectType.Lifecycle.Constructor(n.NodeId)
		if err != nil {
			return fmt.Errorf("addressspace: constructor for %s: %w", typeDefId, err)
		}
		live, ok := a.store.Get(n.NodeId)
		if !ok {
			return fmt.Errorf("addressspace: instance %s vanished mid-instantiation: %w", n.NodeId, status.ErrInternalError)
		}
		live.Object.InstanceHandle = handle
	}

	if err := a.addBidirectionalReference(typeNode, typesystem.HasTypeDefinition, n, false); err != nil {
		return err
	}

	if hook != nil {
		live, _ := a.store.Get(n.NodeId)
		var handle any
		if live != nil && live.Class == node.ClassObject {
			handle = live.Object.InstanceHandle
		}
		hook(n.NodeId, typeDefId, handle)
	}
	return nil
}

// copyChildNodes implements spec §4.6 step 3: browse forward "Aggregates"
// (subtypes included) from source, restricted to nodeClass ∈ {Object,
// Variable, Method}; for each child, merge it into dest by browse name —
// recursing into an existing same-named aggregate (deep merge), adding a
// bare reference for a shared Method, or cloning and fully adding a new
// Object/Variable instance otherwise.
func (a *AddressSpace) copyChildNodes(source, dest nodeid.NodeId) error {
	sourceNode, ok := a.store.Get(source)
	if !ok {
		return fmt.Errorf("addressspace: supertype %s vanished mid-instantiation: %w", source, status.ErrInternalError)
	}

	for _, ref := range sourceNode.References {
		if ref.IsInverse {
			continue
		}
		isAggregate, err := a.walker.IsSubtypeOf(ref.ReferenceTypeId, typesystem.Aggregates)
		if err != nil {
			return err
		}
		if !isAggregate {
			continue
		}

		child, ok := a.store.Get(ref.TargetId.NodeId)
		if !ok {
			continue
		}
		if child.Class != node.ClassObject && child.Class != node.ClassVariable && child.Class != node.ClassMethod {
			continue
		}

		existing := a.findAggregateChildByName(dest, child.BrowseName)

		switch {
		case child.Class == node.ClassMethod:
			if existing != nil {
				continue
			}
			destNode, ok := a.store.Get(dest)
			if !ok {
				return fmt.Errorf("addressspace: destination %s vanished mid-instantiation: %w", dest, status.ErrInternalError)
			}
			if err := a.addBidirectionalReference(child, ref.ReferenceTypeId, destNode, false); err != nil {
				return err
			}

		case existing != nil:
			if err := a.copyChildNodes(child.NodeId, *existing); err != nil {
				return err
			}

		default:
			childId, err := a.cloneChildInto(child, dest, ref.ReferenceTypeId)
			if err != nil {
				return err
			}
			_ = childId
		}
	}
	return nil
}

// findAggregateChildByName returns the NodeId of dest's existing aggregate
// child with the given browse name, or nil if none matches.
func (a *AddressSpace) findAggregateChildByName(dest nodeid.NodeId, name nodeid.QualifiedName) *nodeid.NodeId {
	destNode, ok := a.store.Get(dest)
	if !ok {
		return nil
	}
	for _, ref := range destNode.References {
		if ref.IsInverse {
			continue
		}
		isAggregate, err := a.walker.IsSubtypeOf(ref.ReferenceTypeId, typesystem.Aggregates)
		if err != nil || !isAggregate {
			continue
		}
		childNode, ok := a.store.Get(ref.TargetId.NodeId)
		if !ok {
			continue
		}
		if childNode.BrowseName.Equal(name) {
			id := childNode.NodeId
			return &id
		}
	}
	return nil
}

// cloneChildInto clones template, strips its NodeId, and adds it as a fresh
// instance under dest via the full add pipeline (which itself recurses
// into the instantiator for the clone's own mandated children).
func (a *AddressSpace) cloneChildInto(template *node.Node, dest, refType nodeid.NodeId) (nodeid.NodeId, error) {
	item := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(dest.NamespaceIndex, 0),
		ParentNodeId:    dest,
		ReferenceTypeId: refType,
		BrowseName:      template.BrowseName,
		NodeClass:       template.Class,
		TypeDefinition:  forwardTypeDefinitionOf(template),
		Attributes:      attributesFromNode(template),
		AttributesClass: template.Class,
	}
	id, err := a.addNode(item, nil)
	if err != nil {
		return nodeid.NodeId{}, fmt.Errorf("addressspace: instantiate child %s: %w", template.BrowseName, err)
	}
	return id, nil
}

// forwardTypeDefinitionOf returns template's own HasTypeDefinition target,
// if any, so a cloned child instance is type-checked/instantiated against
// the same template its source was.
func forwardTypeDefinitionOf(template *node.Node) nodeid.NodeId {
	refs := template.ForwardReferencesOfType(typesystem.HasTypeDefinition)
	if len(refs) == 0 {
		return nodeid.NodeId{}
	}
	return refs[0].TargetId.NodeId
}

// rollbackAggregateChildren recursively deletes every Object/Variable
// instance the instantiator has already cloned and aggregated onto parent
// (the owned clones copyChildNodes created), so a later failure within the
// same addNode call leaves zero residue (spec §4.7, §8 property 2). Shared
// Method references (never cloned — spec §4.6 step 3) are left untouched:
// deleting an owned clone already removes parent's own reference to it, and
// a Method target is never recursed into or deleted.
func (a *AddressSpace) rollbackAggregateChildren(parent nodeid.NodeId) {
	n, ok := a.store.Get(parent)
	if !ok {
		return
	}
	for _, ref := range append([]node.ReferenceEntry(nil), n.References...) {
		if ref.IsInverse || !ref.TargetId.IsLocal() {
			continue
		}
		isAggregate, err := a.walker.IsSubtypeOf(ref.ReferenceTypeId, typesystem.Aggregates)
		if err != nil || !isAggregate {
			continue
		}
		child, ok := a.store.Get(ref.TargetId.NodeId)
		if !ok || child.Class == node.ClassMethod {
			continue
		}
		a.deleteOwnedInstance(child)
	}
}

// deleteOwnedInstance recursively deletes n and every Object/Variable it
// aggregates, children first, via the node deleter's full teardown path.
func (a *AddressSpace) deleteOwnedInstance(n *node.Node) {
	for _, ref := range append([]node.ReferenceEntry(nil), n.References...) {
		if ref.IsInverse || !ref.TargetId.IsLocal() {
			continue
		}
		isAggregate, err := a.walker.IsSubtypeOf(ref.ReferenceTypeId, typesystem.Aggregates)
		if err != nil || !isAggregate {
			continue
		}
		child, ok := a.store.Get(ref.TargetId.NodeId)
		if !ok || child.Class == node.ClassMethod {
			continue
		}
		a.deleteOwnedInstance(child)
	}
	a.deleteNode(n.NodeId, true)
}

// attributesFromNode projects template's class-specific fields into a
// NodeAttributes block for the attribute copier to consume when cloning it
// as a fresh instance.
func attributesFromNode(template *node.Node) NodeAttributes {
	attrs := NodeAttributes{
		DisplayName:   template.DisplayName,
		Description:   template.Description,
		WriteMask:     template.WriteMask,
		UserWriteMask: template.UserWriteMask,
	}
	switch template.Class {
	case node.ClassObject:
		attrs.EventNotifier = template.Object.EventNotifier
	case node.ClassVariable:
		vl, _ := template.VariableLike()
		attrs.DataType = vl.DataType
		attrs.ValueRank = vl.ValueRank
		attrs.ArrayDimensions = append([]uint32(nil), vl.ArrayDimensions...)
		attrs.AccessLevel = vl.AccessLevel
		attrs.UserAccessLevel = vl.UserAccessLevel
		attrs.Historizing = vl.Historizing
		attrs.MinimumSamplingInterval = vl.MinimumSamplingInterval
		if vl.Value != nil {
			attrs.Value = vl.Value.Value
		}
	case node.ClassMethod:
		attrs.Executable = template.Method.Executable
	}
	return attrs
}
