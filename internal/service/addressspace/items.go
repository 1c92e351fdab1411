// Package addressspace implements the node adder, reference manager, and
// node deleter (spec §4.4, §4.6-§4.9) — the orchestrators that sit on top
// of the nodestore and typesystem packages and expose the service surface
// of spec §6.
package addressspace

import (
	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
)

// AddNodesItem is the per-item input of the AddNodes service (spec §6).
// Attributes is a class-specific decoded attribute block; AttributesClass
// must match NodeClass or the attribute copier rejects it with
// status.ErrNodeAttributesInvalid.
type AddNodesItem struct {
	RequestedNodeId nodeid.NodeId
	ParentNodeId    nodeid.NodeId
	ReferenceTypeId nodeid.NodeId
	BrowseName      nodeid.QualifiedName
	NodeClass       node.Class
	TypeDefinition  nodeid.NodeId

	Attributes      NodeAttributes
	AttributesClass node.Class
}

// NodeAttributes is the encoded attribute object carried by an
// AddNodesItem (spec §4.4). Only the fields relevant to the item's
// NodeClass are read by the attribute copier.
type NodeAttributes struct {
	DisplayName   nodeid.LocalizedText
	Description   nodeid.LocalizedText
	WriteMask     uint32
	UserWriteMask uint32

	// Variable / VariableType
	DataType                nodeid.NodeId
	ValueRank               int32
	ArrayDimensions         []uint32
	AccessLevel             byte
	UserAccessLevel         byte
	Historizing             bool
	MinimumSamplingInterval float64
	Value                   node.Variant

	// Object / View
	EventNotifier byte

	// VariableType / ObjectType / ReferenceType / DataType
	IsAbstract bool

	// ReferenceType
	Symmetric   bool
	InverseName nodeid.LocalizedText

	// View
	ContainsNoLoops bool

	// Method
	Executable bool
}

// AddNodesResult is the per-item result of the AddNodes service.
type AddNodesResult struct {
	AssignedNodeId nodeid.NodeId
	Err            error
}

// AddReferencesItem is the per-item input of the AddReferences service.
type AddReferencesItem struct {
	SourceId        nodeid.NodeId
	ReferenceTypeId nodeid.NodeId
	IsForward       bool
	TargetId        nodeid.ExpandedNodeId
	TargetClass     node.Class
}

// DeleteNodesItem is the per-item input of the DeleteNodes service.
type DeleteNodesItem struct {
	NodeId                 nodeid.NodeId
	DeleteTargetReferences bool
}

// DeleteReferencesItem is the per-item input of the DeleteReferences
// service.
type DeleteReferencesItem struct {
	SourceId            nodeid.NodeId
	ReferenceTypeId     nodeid.NodeId
	IsForward           bool
	TargetId            nodeid.ExpandedNodeId
	DeleteBidirectional bool
}
