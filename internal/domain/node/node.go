// Package node implements the tagged-variant Node type the address-space
// core stores, type-checks, instantiates, and links: a common header
// shared by every node class, plus exactly one non-nil class-specific
// attribute block selected by Class. Dispatch on Class replaces the casts
// the C original uses to reach a class's attribute block.
package node

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
)

// Class is the OPC UA node class (spec GLOSSARY).
type Class uint8

const (
	ClassObject Class = iota + 1
	ClassVariable
	ClassMethod
	ClassObjectType
	ClassVariableType
	ClassReferenceType
	ClassDataType
	ClassView
)

func (c Class) String() string {
	switch c {
	case ClassObject:
		return "Object"
	case ClassVariable:
		return "Variable"
	case ClassMethod:
		return "Method"
	case ClassObjectType:
		return "ObjectType"
	case ClassVariableType:
		return "VariableType"
	case ClassReferenceType:
		return "ReferenceType"
	case ClassDataType:
		return "DataType"
	case ClassView:
		return "View"
	default:
		return "Unspecified"
	}
}

// IsTypeClass reports whether c is one of the four "type" node classes
// (spec invariant 3 / §4.3 step 4): DataType, VariableType, ObjectType,
// ReferenceType. Their parent reference must be HasSubtype to a node of
// the same class.
func (c Class) IsTypeClass() bool {
	switch c {
	case ClassDataType, ClassVariableType, ClassObjectType, ClassReferenceType:
		return true
	default:
		return false
	}
}

// ReferenceEntry is one edge stored on a node. Every successful reference
// addition stores the same logical edge twice (spec invariant 1): once on
// the source with IsInverse=false, once on the target with IsInverse=true.
type ReferenceEntry struct {
	ReferenceTypeId nodeid.NodeId
	TargetId        nodeid.ExpandedNodeId
	IsInverse       bool
}

// Key uniquely identifies an entry within one node's reference list for
// the purposes of invariant 2 (no two entries share
// (referenceTypeId, targetId.NodeId, isInverse)).
func (r ReferenceEntry) Key() string {
	dir := "fwd"
	if r.IsInverse {
		dir = "inv"
	}
	return r.ReferenceTypeId.Key() + ";" + r.TargetId.NodeId.Key() + ";" + dir
}

// ObjectAttributes is the Object node class attribute block.
type ObjectAttributes struct {
	EventNotifier  byte
	InstanceHandle any
}

// variableLike holds the fields shared by Variable and VariableType (spec
// §3: "VariableType: as Variable plus isAbstract").
type variableLike struct {
	DataType                nodeid.NodeId
	ValueRank               int32
	ArrayDimensions         []uint32
	AccessLevel             byte
	UserAccessLevel         byte
	Historizing             bool
	MinimumSamplingInterval float64
	ValueSource             ValueSourceKind
	Value                   *DataValue
	Source                  *DataSource
}

// ValueSourceKind selects between inline Value storage and an external
// DataSource callback pair (spec §3).
type ValueSourceKind uint8

const (
	ValueSourceData ValueSourceKind = iota
	ValueSourceDataSource
)

// VariableAttributes is the Variable node class attribute block.
type VariableAttributes struct {
	variableLike
}

// VariableTypeAttributes is the VariableType node class attribute block.
type VariableTypeAttributes struct {
	variableLike
	IsAbstract bool
}

// LifecycleManagement is the constructor/destructor pair registrable on an
// ObjectType (setObjectTypeNode_lifecycleManagement). Both run
// synchronously inside the writer section (spec §5) and must not re-enter
// the public API.
type LifecycleManagement struct {
	Constructor func(instanceId nodeid.NodeId) (instanceHandle any, err error)
	Destructor  func(instanceId nodeid.NodeId, instanceHandle any)
}

// ObjectTypeAttributes is the ObjectType node class attribute block.
type ObjectTypeAttributes struct {
	IsAbstract bool
	Lifecycle  *LifecycleManagement
}

// ReferenceTypeAttributes is the ReferenceType node class attribute block.
type ReferenceTypeAttributes struct {
	IsAbstract  bool
	Symmetric   bool
	InverseName nodeid.LocalizedText
}

// DataTypeAttributes is the DataType node class attribute block.
type DataTypeAttributes struct {
	IsAbstract bool
}

// ViewAttributes is the View node class attribute block.
type ViewAttributes struct {
	ContainsNoLoops bool
	EventNotifier   byte
}

// MethodCallback is the user callback registered via
// setMethodNode_callback, invoked synchronously inside the writer section.
type MethodCallback func(objectId, methodId nodeid.NodeId, handle any, inputArgs []Variant) ([]Variant, error)

// MethodAttributes is the Method node class attribute block.
type MethodAttributes struct {
	Executable bool
	Callback   MethodCallback
	Handle     any
}

// Node is the tagged-variant node: a common header plus exactly one
// non-nil class-specific attribute block, selected by Class.
type Node struct {
	NodeId        nodeid.NodeId
	Class         Class
	BrowseName    nodeid.QualifiedName
	DisplayName   nodeid.LocalizedText
	Description   nodeid.LocalizedText
	WriteMask     uint32
	UserWriteMask uint32
	References    []ReferenceEntry

	Object        *ObjectAttributes
	Variable      *VariableAttributes
	VariableType  *VariableTypeAttributes
	ObjectType    *ObjectTypeAttributes
	ReferenceType *ReferenceTypeAttributes
	DataType      *DataTypeAttributes
	View          *ViewAttributes
	Method        *MethodAttributes
}

// New allocates a zero-initialized node of the given class, with the
// matching attribute block allocated and every other left nil. Mirrors
// NodeStore.newNodeOfClass (spec §4.1).
func New(class Class) (*Node, error) {
	n := &Node{Class: class}
	switch class {
	case ClassObject:
		n.Object = &ObjectAttributes{}
	case ClassVariable:
		n.Variable = &VariableAttributes{}
	case ClassVariableType:
		n.VariableType = &VariableTypeAttributes{}
	case ClassObjectType:
		n.ObjectType = &ObjectTypeAttributes{}
	case ClassReferenceType:
		n.ReferenceType = &ReferenceTypeAttributes{}
	case ClassDataType:
		n.DataType = &DataTypeAttributes{}
	case ClassView:
		n.View = &ViewAttributes{}
	case ClassMethod:
		n.Method = &MethodAttributes{}
	default:
		return nil, fmt.Errorf("node: unsupported class %v", class)
	}
	return n, nil
}

// VariableLike returns the fields shared by Variable and VariableType, and
// true if n is one of those two classes.
func (n *Node) VariableLike() (*variableLike, bool) {
	switch n.Class {
	case ClassVariable:
		return &n.Variable.variableLike, true
	case ClassVariableType:
		return &n.VariableType.variableLike, true
	default:
		return nil, false
	}
}

// ApplyVariableAttributes deep-copies dataType/valueRank/arrayDimensions/
// accessLevel/userAccessLevel/historizing/minimumSamplingInterval/value
// into n's variable-like attribute block and sets its value source to
// Data (spec §4.4: "For Variable/VariableType the value is copied by deep
// clone; valueSource is set to data"). No-op if n is not a Variable or
// VariableType.
func (n *Node) ApplyVariableAttributes(dataType nodeid.NodeId, valueRank int32, arrayDimensions []uint32,
	accessLevel, userAccessLevel byte, historizing bool, minimumSamplingInterval float64, value Variant) {
	vl, ok := n.VariableLike()
	if !ok {
		return
	}
	vl.DataType = dataType
	vl.ValueRank = valueRank
	vl.ArrayDimensions = append([]uint32(nil), arrayDimensions...)
	vl.AccessLevel = accessLevel
	vl.UserAccessLevel = userAccessLevel
	vl.Historizing = historizing
	vl.MinimumSamplingInterval = minimumSamplingInterval
	vl.ValueSource = ValueSourceData
	valueCopy := value
	valueCopy.ArrayDimensions = append([]uint32(nil), value.ArrayDimensions...)
	vl.Value = &DataValue{Value: valueCopy}
}

// DataTypeId returns the node's dataType id for Variable/VariableType nodes.
func (n *Node) DataTypeId() (nodeid.NodeId, bool) {
	vl, ok := n.VariableLike()
	if !ok {
		return nodeid.NodeId{}, false
	}
	return vl.DataType, true
}

// IsAbstract reports the isAbstract flag for node classes that carry one;
// non-type-system classes (Object, Method, View) are never abstract.
func (n *Node) IsAbstract() bool {
	switch n.Class {
	case ClassObjectType:
		return n.ObjectType.IsAbstract
	case ClassVariableType:
		return n.VariableType.IsAbstract
	case ClassReferenceType:
		return n.ReferenceType.IsAbstract
	case ClassDataType:
		return n.DataType.IsAbstract
	default:
		return false
	}
}

// AddReference appends entry to n.References, enforcing spec invariant 2
// (no duplicate (referenceTypeId, targetId.nodeId, isInverse)). Growth
// happens by Go's own amortized-doubling append, which stands in for the
// "grow-by-power-of-two reference array" spec §4.8 describes explicitly.
func (n *Node) AddReference(entry ReferenceEntry) error {
	key := entry.Key()
	for _, existing := range n.References {
		if existing.Key() == key {
			return fmt.Errorf("reference %s already present on %s", key, n.NodeId)
		}
	}
	n.References = append(n.References, entry)
	return nil
}

// RemoveReference deletes the entry matching (targetNodeId, referenceTypeId,
// isInverse) using swap-with-last (spec §4.8/§9 open question 3: reference
// order is never a stability contract). Reports whether an entry matched.
func (n *Node) RemoveReference(refType nodeid.NodeId, target nodeid.NodeId, isInverse bool) bool {
	for i := len(n.References) - 1; i >= 0; i-- {
		e := n.References[i]
		if e.IsInverse == isInverse && e.ReferenceTypeId.Equal(refType) && e.TargetId.NodeId.Equal(target) {
			last := len(n.References) - 1
			n.References[i] = n.References[last]
			n.References = n.References[:last]
			return true
		}
	}
	return false
}

// ForwardReferencesOfType returns the forward (non-inverse) entries whose
// ReferenceTypeId equals refType, in storage order.
func (n *Node) ForwardReferencesOfType(refType nodeid.NodeId) []ReferenceEntry {
	var out []ReferenceEntry
	for _, e := range n.References {
		if !e.IsInverse && e.ReferenceTypeId.Equal(refType) {
			out = append(out, e)
		}
	}
	return out
}

// InverseReferencesOfType returns the inverse entries whose ReferenceTypeId
// equals refType, in storage order.
func (n *Node) InverseReferencesOfType(refType nodeid.NodeId) []ReferenceEntry {
	var out []ReferenceEntry
	for _, e := range n.References {
		if e.IsInverse && e.ReferenceTypeId.Equal(refType) {
			out = append(out, e)
		}
	}
	return out
}

// Clone performs the deep copy NodeStore.getCopy (spec §4.1) returns: an
// independently owned Node safe for the caller to mutate and later
// re-Insert, sharing no reference list, id byte slice, arrayDimensions
// slice or attribute block with the stored node. The payload held in a
// Variant's Value, the write callback, DataSource callbacks and opaque
// handles are copied by assignment.
func (n *Node) Clone() *Node {
	cp := *n
	cp.References = append([]ReferenceEntry(nil), n.References...)
	for i := range cp.References {
		cp.References[i].TargetId.NodeId.ByteString = append([]byte(nil), cp.References[i].TargetId.NodeId.ByteString...)
	}
	cp.NodeId.ByteString = append([]byte(nil), n.NodeId.ByteString...)

	switch n.Class {
	case ClassObject:
		o := *n.Object
		cp.Object = &o
	case ClassVariable:
		v := *n.Variable
		cloneVariableLike(&v.variableLike)
		cp.Variable = &v
	case ClassVariableType:
		v := *n.VariableType
		cloneVariableLike(&v.variableLike)
		cp.VariableType = &v
	case ClassObjectType:
		o := *n.ObjectType
		cp.ObjectType = &o
	case ClassReferenceType:
		r := *n.ReferenceType
		cp.ReferenceType = &r
	case ClassDataType:
		d := *n.DataType
		cp.DataType = &d
	case ClassView:
		v := *n.View
		cp.View = &v
	case ClassMethod:
		m := *n.Method
		cp.Method = &m
	}
	return &cp
}

func cloneVariableLike(vl *variableLike) {
	vl.ArrayDimensions = append([]uint32(nil), vl.ArrayDimensions...)
	if vl.Value != nil {
		dv := *vl.Value
		dv.Value.ArrayDimensions = append([]uint32(nil), dv.Value.ArrayDimensions...)
		vl.Value = &dv
	}
	if vl.Source != nil {
		ds := *vl.Source
		vl.Source = &ds
	}
}
