package addressspace

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/status"
)

// copyAttributes implements the attribute copier (spec §4.4): validates
// that item's declared attribute class matches item.NodeClass, allocates a
// fresh node of that class via the store, and projects the common header
// plus class-specific fields into it. On any failure the partially built
// node is discarded via store.DeleteNode and the error is returned as-is.
func (a *AddressSpace) copyAttributes(item AddNodesItem) (*node.Node, error) {
	if item.AttributesClass != item.NodeClass {
		return nil, fmt.Errorf("addressspace: attributes declared for %s but item is %s: %w", item.AttributesClass, item.NodeClass, status.ErrNodeAttributesInvalid)
	}

	n, err := a.store.NewNodeOfClass(item.NodeClass)
	if err != nil {
		return nil, err
	}

	n.NodeId = item.RequestedNodeId
	n.BrowseName = item.BrowseName
	n.DisplayName = item.Attributes.DisplayName
	n.Description = item.Attributes.Description
	n.WriteMask = item.Attributes.WriteMask
	n.UserWriteMask = item.Attributes.UserWriteMask

	if err := a.copyClassSpecific(n, item); err != nil {
		a.store.DeleteNode(n)
		return nil, err
	}
	return n, nil
}

func (a *AddressSpace) copyClassSpecific(n *node.Node, item AddNodesItem) error {
	attrs := item.Attributes
	switch n.Class {
	case node.ClassObject:
		n.Object.EventNotifier = attrs.EventNotifier

	case node.ClassVariable, node.ClassVariableType:
		n.ApplyVariableAttributes(attrs.DataType, attrs.ValueRank, attrs.ArrayDimensions,
			attrs.AccessLevel, attrs.UserAccessLevel, attrs.Historizing, attrs.MinimumSamplingInterval, attrs.Value)
		if n.Class == node.ClassVariableType {
			n.VariableType.IsAbstract = attrs.IsAbstract
		}

	case node.ClassObjectType:
		n.ObjectType.IsAbstract = attrs.IsAbstract

	case node.ClassReferenceType:
		n.ReferenceType.IsAbstract = attrs.IsAbstract
		n.ReferenceType.Symmetric = attrs.Symmetric
		n.ReferenceType.InverseName = attrs.InverseName

	case node.ClassDataType:
		n.DataType.IsAbstract = attrs.IsAbstract

	case node.ClassView:
		n.View.ContainsNoLoops = attrs.ContainsNoLoops
		n.View.EventNotifier = attrs.EventNotifier

	case node.ClassMethod:
		n.Method.Executable = attrs.Executable

	default:
		return fmt.Errorf("addressspace: unsupported node class %v: %w", n.Class, status.ErrNodeClassInvalid)
	}
	return nil
}
