package addressspace

import (
	"errors"
	"testing"

	"github.com/opcfoundry/addrspace/internal/bootstrap"
	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

const testNs uint16 = 1

func newTestAddressSpace(t *testing.T) *AddressSpace {
	t.Helper()
	store := nodestore.New(nil)
	if err := bootstrap.New(store); err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	ns := nodeid.NewNamespaceTable()
	ns.Append("http://example.org/UA/test/")
	return New(store, Options{Namespaces: ns})
}

func variableItem(id nodeid.NodeId, name string, dataType nodeid.NodeId, rank int32, value any) AddNodesItem {
	return AddNodesItem{
		RequestedNodeId: id,
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name},
		NodeClass:       node.ClassVariable,
		TypeDefinition:  typesystem.BaseDataVariableType,
		AttributesClass: node.ClassVariable,
		Attributes: NodeAttributes{
			DisplayName: nodeid.LocalizedText{Text: name},
			DataType:    dataType,
			ValueRank:   rank,
			Value:       node.Variant{Value: value},
		},
	}
}

// S1: add a new ObjectType as a HasSubtype child of BaseObjectType.
func TestScenarioS1AddObjectTypeSubtype(t *testing.T) {
	a := newTestAddressSpace(t)
	item := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 1000),
		ParentNodeId:    typesystem.BaseObjectType,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "MyType"},
		NodeClass:       node.ClassObjectType,
		AttributesClass: node.ClassObjectType,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "MyType"}},
	}
	id, err := a.AddNode(item, nil)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	base, ok := a.Store().Get(typesystem.BaseObjectType)
	if !ok {
		t.Fatal("BaseObjectType vanished")
	}
	found := false
	for _, ref := range base.ForwardReferencesOfType(typesystem.HasSubtype) {
		if ref.TargetId.NodeId.Equal(id) {
			found = true
		}
	}
	if !found {
		t.Error("expected BaseObjectType's forward HasSubtype list to include MyType")
	}
}

// S2: add a Variable under ObjectsFolder with a scalar Int32 value.
func TestScenarioS2AddScalarVariable(t *testing.T) {
	a := newTestAddressSpace(t)
	item := variableItem(nodeid.Numeric(testNs, 2000), "Temp", typesystem.TypeInt32, -1, int32(42))

	id, err := a.AddNode(item, nil)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	n, ok := a.Store().Get(id)
	if !ok {
		t.Fatal("new variable vanished")
	}
	if n.Variable.Value.Value.Value != int32(42) {
		t.Errorf("expected value 42, got %v", n.Variable.Value.Value.Value)
	}

	folder, ok := a.Store().Get(bootstrap.ObjectsFolder)
	if !ok {
		t.Fatal("ObjectsFolder vanished")
	}
	inverseFound := false
	for _, ref := range n.InverseReferencesOfType(typesystem.Organizes) {
		if ref.TargetId.NodeId.Equal(bootstrap.ObjectsFolder) {
			inverseFound = true
		}
	}
	if !inverseFound {
		t.Error("expected the new variable's inverse Organizes edge to land on ObjectsFolder")
	}
	forwardFound := false
	for _, ref := range folder.ForwardReferencesOfType(typesystem.Organizes) {
		if ref.TargetId.NodeId.Equal(id) {
			forwardFound = true
		}
	}
	if !forwardFound {
		t.Error("expected ObjectsFolder's forward Organizes list to include the new variable")
	}
}

// S3: instantiate an Object of a type that aggregates a child Variable.
func TestScenarioS3InstantiateWithAggregatedChild(t *testing.T) {
	a := newTestAddressSpace(t)

	myType := nodeid.Numeric(testNs, 3000)
	_, err := a.AddNode(AddNodesItem{
		RequestedNodeId: myType,
		ParentNodeId:    typesystem.BaseObjectType,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "MyType"},
		NodeClass:       node.ClassObjectType,
		AttributesClass: node.ClassObjectType,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "MyType"}},
	}, nil)
	if err != nil {
		t.Fatalf("add MyType: %v", err)
	}

	tempTemplate := nodeid.Numeric(testNs, 3001)
	_, err = a.AddNode(AddNodesItem{
		RequestedNodeId: tempTemplate,
		ParentNodeId:    myType,
		ReferenceTypeId: typesystem.HasComponent,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Temp"},
		NodeClass:       node.ClassVariable,
		TypeDefinition:  typesystem.BaseDataVariableType,
		AttributesClass: node.ClassVariable,
		Attributes: NodeAttributes{
			DisplayName: nodeid.LocalizedText{Text: "Temp"},
			DataType:    typesystem.TypeDouble,
			ValueRank:   -1,
			Value:       node.Variant{Value: float64(0)},
		},
	}, nil)
	if err != nil {
		t.Fatalf("add Temp template: %v", err)
	}

	instanceId, err := a.AddNode(AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 0),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Instance1"},
		NodeClass:       node.ClassObject,
		TypeDefinition:  myType,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "Instance1"}},
	}, nil)
	if err != nil {
		t.Fatalf("instantiate MyType: %v", err)
	}

	instance, ok := a.Store().Get(instanceId)
	if !ok {
		t.Fatal("instance vanished")
	}

	var childId nodeid.NodeId
	var childFound bool
	for _, ref := range instance.ForwardReferencesOfType(typesystem.HasComponent) {
		child, ok := a.Store().Get(ref.TargetId.NodeId)
		if ok && child.BrowseName.Name == "Temp" {
			childId = ref.TargetId.NodeId
			childFound = true
		}
	}
	if !childFound {
		t.Fatal("expected the instance to have a cloned 'Temp' child")
	}
	if childId.Equal(tempTemplate) {
		t.Error("expected the instance's child to be a freshly assigned id, not the template's own id")
	}
	childNode, _ := a.Store().Get(childId)
	if childNode.Class != node.ClassVariable {
		t.Errorf("expected cloned child to be a Variable, got %v", childNode.Class)
	}
	if childNode.Variable.Value.Value.Value != float64(0) {
		t.Errorf("expected cloned child's value to be 0.0, got %v", childNode.Variable.Value.Value.Value)
	}
	typeDefs := childNode.ForwardReferencesOfType(typesystem.HasTypeDefinition)
	if len(typeDefs) != 1 || !typeDefs[0].TargetId.NodeId.Equal(typesystem.BaseDataVariableType) {
		t.Errorf("expected cloned child's HasTypeDefinition to point at BaseDataVariableType, got %+v", typeDefs)
	}
}

// Property: a constructor failure after the instantiator has already
// cloned and attached a mandated aggregated child must leave zero residue
// — neither the instance nor its already-created child survives, and the
// parent's forward reference is gone too (spec §4.7, §8 property 2).
func TestPropertyConstructorFailureRollsBackClonedChildren(t *testing.T) {
	a := newTestAddressSpace(t)

	myType := nodeid.Numeric(testNs, 7800)
	if _, err := a.AddNode(AddNodesItem{
		RequestedNodeId: myType,
		ParentNodeId:    typesystem.BaseObjectType,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "FailType"},
		NodeClass:       node.ClassObjectType,
		AttributesClass: node.ClassObjectType,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "FailType"}},
	}, nil); err != nil {
		t.Fatalf("add FailType: %v", err)
	}
	if _, err := a.AddNode(AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 7801),
		ParentNodeId:    myType,
		ReferenceTypeId: typesystem.HasComponent,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Temp"},
		NodeClass:       node.ClassVariable,
		TypeDefinition:  typesystem.BaseDataVariableType,
		AttributesClass: node.ClassVariable,
		Attributes: NodeAttributes{
			DisplayName: nodeid.LocalizedText{Text: "Temp"},
			DataType:    typesystem.TypeDouble,
			ValueRank:   -1,
			Value:       node.Variant{Value: float64(0)},
		},
	}, nil); err != nil {
		t.Fatalf("add Temp template: %v", err)
	}

	wantErr := errors.New("constructor refuses to build this instance")
	if err := a.SetObjectTypeNodeLifecycleManagement(myType, node.LifecycleManagement{
		Constructor: func(nodeid.NodeId) (any, error) { return nil, wantErr },
	}); err != nil {
		t.Fatalf("SetObjectTypeNodeLifecycleManagement: %v", err)
	}

	countBefore := a.Store().Count()

	_, err := a.AddNode(AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 0),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "WillFail"},
		NodeClass:       node.ClassObject,
		TypeDefinition:  myType,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "WillFail"}},
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the constructor's own error to surface, got %v", err)
	}

	if got := a.Store().Count(); got != countBefore {
		t.Errorf("expected store count to be unchanged after a failed add (no residual instance or cloned child), before %d after %d", countBefore, got)
	}

	folder, _ := a.Store().Get(bootstrap.ObjectsFolder)
	for _, ref := range folder.References {
		if childNode, ok := a.Store().Get(ref.TargetId.NodeId); ok && childNode.BrowseName.Name == "WillFail" {
			t.Error("expected no dangling reference from ObjectsFolder to the failed instance")
		}
	}
}

// S4: deleting an instance invokes its type's destructor exactly once and
// leaves no dangling reference on the parent.
func TestScenarioS4DeleteInvokesDestructor(t *testing.T) {
	a := newTestAddressSpace(t)

	myType := nodeid.Numeric(testNs, 4000)
	if _, err := a.AddNode(AddNodesItem{
		RequestedNodeId: myType,
		ParentNodeId:    typesystem.BaseObjectType,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "MyType"},
		NodeClass:       node.ClassObjectType,
		AttributesClass: node.ClassObjectType,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "MyType"}},
	}, nil); err != nil {
		t.Fatalf("add MyType: %v", err)
	}

	var destructorCalls int
	var lastId nodeid.NodeId
	var lastHandle any
	if err := a.SetObjectTypeNodeLifecycleManagement(myType, node.LifecycleManagement{
		Constructor: func(id nodeid.NodeId) (any, error) { return "handle-for-" + id.String(), nil },
		Destructor: func(id nodeid.NodeId, handle any) {
			destructorCalls++
			lastId = id
			lastHandle = handle
		},
	}); err != nil {
		t.Fatalf("SetObjectTypeNodeLifecycleManagement: %v", err)
	}

	instanceId, err := a.AddNode(AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 0),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Instance1"},
		NodeClass:       node.ClassObject,
		TypeDefinition:  myType,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "Instance1"}},
	}, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if err := a.DeleteNode(instanceId, true); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	if destructorCalls != 1 {
		t.Errorf("expected destructor to be called exactly once, got %d", destructorCalls)
	}
	if !lastId.Equal(instanceId) {
		t.Errorf("expected destructor to be called with the instance id, got %s", lastId)
	}
	if lastHandle != "handle-for-"+instanceId.String() {
		t.Errorf("expected destructor to receive the constructor's handle, got %v", lastHandle)
	}

	if _, ok := a.Store().Get(instanceId); ok {
		t.Error("expected the instance to be gone from the store")
	}

	folder, _ := a.Store().Get(bootstrap.ObjectsFolder)
	for _, ref := range folder.References {
		if ref.TargetId.NodeId.Equal(instanceId) {
			t.Error("expected no dangling reference from ObjectsFolder to the deleted instance")
		}
	}
}

// S5: adding an identical reference twice rejects the duplicate and does
// not grow the source's reference array.
func TestScenarioS5DuplicateReferenceRejected(t *testing.T) {
	a := newTestAddressSpace(t)

	aId, err := a.AddNode(variableItem(nodeid.Numeric(testNs, 5000), "A", typesystem.TypeInt32, -1, int32(1)), nil)
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	bId, err := a.AddNode(variableItem(nodeid.Numeric(testNs, 5001), "B", typesystem.TypeInt32, -1, int32(2)), nil)
	if err != nil {
		t.Fatalf("add B: %v", err)
	}

	srcBefore, _ := a.Store().Get(aId)
	countBefore := len(srcBefore.References)

	item := AddReferencesItem{
		SourceId:        aId,
		ReferenceTypeId: typesystem.HasComponent,
		IsForward:       true,
		TargetId:        nodeid.Local(bId),
		TargetClass:     node.ClassVariable,
	}
	if err := a.AddReference(item); err != nil {
		t.Fatalf("first AddReference: %v", err)
	}

	err = a.AddReference(item)
	if err == nil {
		t.Error("expected the duplicate AddReference to be rejected")
	}

	srcAfter, _ := a.Store().Get(aId)
	if len(srcAfter.References) != countBefore+1 {
		t.Errorf("expected exactly one new reference entry after the rejected duplicate, got %d new (before %d, after %d)",
			len(srcAfter.References)-countBefore, countBefore, len(srcAfter.References))
	}
}

// S6: a Variable whose dataType doesn't subtype its VariableType template's
// dataType is rejected and leaves no residual node.
func TestScenarioS6TypeMismatchLeavesNoResidue(t *testing.T) {
	a := newTestAddressSpace(t)

	vt := nodeid.Numeric(testNs, 6000)
	if _, err := a.AddNode(AddNodesItem{
		RequestedNodeId: vt,
		ParentNodeId:    typesystem.BaseVariableType,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "IntOnlyType"},
		NodeClass:       node.ClassVariableType,
		AttributesClass: node.ClassVariableType,
		Attributes: NodeAttributes{
			DisplayName: nodeid.LocalizedText{Text: "IntOnlyType"},
			DataType:    typesystem.TypeInt32,
			ValueRank:   -1,
		},
	}, nil); err != nil {
		t.Fatalf("add VariableType: %v", err)
	}

	reqId := nodeid.Numeric(testNs, 6001)
	item := AddNodesItem{
		RequestedNodeId: reqId,
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "BadVar"},
		NodeClass:       node.ClassVariable,
		TypeDefinition:  vt,
		AttributesClass: node.ClassVariable,
		Attributes: NodeAttributes{
			DisplayName: nodeid.LocalizedText{Text: "BadVar"},
			DataType:    typesystem.TypeString,
			ValueRank:   -1,
			Value:       node.Variant{Value: "oops"},
		},
	}

	_, err := a.AddNode(item, nil)
	if !errors.Is(err, status.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, ok := a.Store().Get(reqId); ok {
		t.Error("expected no residual node after a failed AddNode")
	}
}

// Property: a failed AddNode never leaves a node with the requested id in
// the store (spec §8 property 2), exercised via a bad parent reference.
func TestPropertyFailedAddNodeLeavesNoResidue(t *testing.T) {
	a := newTestAddressSpace(t)
	reqId := nodeid.Numeric(testNs, 7000)

	item := AddNodesItem{
		RequestedNodeId: reqId,
		ParentNodeId:    nodeid.Numeric(testNs, 999999), // does not exist
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Orphan"},
		NodeClass:       node.ClassObject,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "Orphan"}},
	}
	_, err := a.AddNode(item, nil)
	if !errors.Is(err, status.ErrParentNodeIdInvalid) {
		t.Fatalf("expected ErrParentNodeIdInvalid, got %v", err)
	}
	if _, ok := a.Store().Get(reqId); ok {
		t.Error("expected no node to exist under the requested id after a failed add")
	}
}

// Property: abstract types cannot be instantiated (spec §8 property 7).
func TestPropertyAbstractTypeCannotBeInstantiated(t *testing.T) {
	a := newTestAddressSpace(t)
	item := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 7100),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "AbstractInstance"},
		NodeClass:       node.ClassObject,
		TypeDefinition:  typesystem.BaseVariableType, // wrong class AND abstract; the class guard rejects it before abstractness is examined
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "AbstractInstance"}},
	}
	_, err := a.AddNode(item, nil)
	if !errors.Is(err, status.ErrTypeDefinitionInvalid) {
		t.Fatalf("expected ErrTypeDefinitionInvalid, got %v", err)
	}

	// A Variable whose type definition has the right class but is abstract
	// reaches the abstractness check itself.
	varItem := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 7101),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: typesystem.Organizes,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "AbstractVariableInstance"},
		NodeClass:       node.ClassVariable,
		TypeDefinition:  typesystem.BaseVariableType,
		AttributesClass: node.ClassVariable,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "AbstractVariableInstance"}},
	}
	_, err = a.AddNode(varItem, nil)
	if !errors.Is(err, status.ErrTypeDefinitionInvalid) {
		t.Fatalf("expected ErrTypeDefinitionInvalid for abstract VariableType, got %v", err)
	}
}

// Property: reference-type inheritance — a non-hierarchical custom
// reference type cannot be used as a parent edge for an Object (spec §8
// property 8).
func TestPropertyNonHierarchicalReferenceRejectedAsParentEdge(t *testing.T) {
	a := newTestAddressSpace(t)

	customRefType := nodeid.Numeric(testNs, 7200)
	if _, err := a.AddNode(AddNodesItem{
		RequestedNodeId: customRefType,
		ParentNodeId:    typesystem.References,
		ReferenceTypeId: typesystem.HasSubtype,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "CustomNonHierarchical"},
		NodeClass:       node.ClassReferenceType,
		AttributesClass: node.ClassReferenceType,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "CustomNonHierarchical"}},
	}, nil); err != nil {
		t.Fatalf("add custom reference type: %v", err)
	}

	item := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 7201),
		ParentNodeId:    bootstrap.ObjectsFolder,
		ReferenceTypeId: customRefType,
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "X"},
		NodeClass:       node.ClassObject,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "X"}},
	}
	_, err := a.AddNode(item, nil)
	if !errors.Is(err, status.ErrReferenceTypeIdInvalid) {
		t.Fatalf("expected ErrReferenceTypeIdInvalid, got %v", err)
	}
}

// Property: addReference is all-or-nothing (spec §8 property 3) —
// exercised via the foreign-server rejection path, which must not leave a
// forward-only entry.
func TestPropertyAddReferenceForeignServerLeavesNoHalfPair(t *testing.T) {
	a := newTestAddressSpace(t)
	aId, err := a.AddNode(variableItem(nodeid.Numeric(testNs, 7300), "A", typesystem.TypeInt32, -1, int32(1)), nil)
	if err != nil {
		t.Fatalf("add A: %v", err)
	}

	before, _ := a.Store().Get(aId)
	countBefore := len(before.References)

	item := AddReferencesItem{
		SourceId:        aId,
		ReferenceTypeId: typesystem.HasComponent,
		IsForward:       true,
		TargetId:        nodeid.ExpandedNodeId{NodeId: nodeid.Numeric(2, 1), ServerIndex: 99},
	}
	err = a.AddReference(item)
	if !errors.Is(err, status.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented for a foreign-server reference, got %v", err)
	}

	after, _ := a.Store().Get(aId)
	if len(after.References) != countBefore {
		t.Error("expected a rejected foreign-server AddReference to leave the source's reference count unchanged")
	}
}

// Orphan objects: an Object may be added with no parent/referenceType.
func TestAddOrphanObject(t *testing.T) {
	a := newTestAddressSpace(t)
	item := AddNodesItem{
		RequestedNodeId: nodeid.Numeric(testNs, 7400),
		BrowseName:      nodeid.QualifiedName{NamespaceIndex: testNs, Name: "Orphan"},
		NodeClass:       node.ClassObject,
		AttributesClass: node.ClassObject,
		Attributes:      NodeAttributes{DisplayName: nodeid.LocalizedText{Text: "Orphan"}},
	}
	id, err := a.AddNode(item, nil)
	if err != nil {
		t.Fatalf("expected an orphan Object add to succeed, got %v", err)
	}
	n, ok := a.Store().Get(id)
	if !ok {
		t.Fatal("orphan object vanished")
	}
	typeDefs := n.ForwardReferencesOfType(typesystem.HasTypeDefinition)
	if len(typeDefs) != 1 || !typeDefs[0].TargetId.NodeId.Equal(typesystem.BaseObjectType) {
		t.Errorf("expected an orphan Object to still default to BaseObjectType, got %+v", typeDefs)
	}
}

// DeleteReferences: best-effort, bidirectional.
func TestDeleteReferenceBidirectional(t *testing.T) {
	a := newTestAddressSpace(t)
	aId, _ := a.AddNode(variableItem(nodeid.Numeric(testNs, 7500), "A", typesystem.TypeInt32, -1, int32(1)), nil)
	bId, _ := a.AddNode(variableItem(nodeid.Numeric(testNs, 7501), "B", typesystem.TypeInt32, -1, int32(2)), nil)

	addItem := AddReferencesItem{
		SourceId:        aId,
		ReferenceTypeId: typesystem.HasComponent,
		IsForward:       true,
		TargetId:        nodeid.Local(bId),
	}
	if err := a.AddReference(addItem); err != nil {
		t.Fatalf("AddReference: %v", err)
	}

	delItem := DeleteReferencesItem{
		SourceId:            aId,
		ReferenceTypeId:     typesystem.HasComponent,
		IsForward:           true,
		TargetId:            nodeid.Local(bId),
		DeleteBidirectional: true,
	}
	if err := a.DeleteReference(delItem); err != nil {
		t.Fatalf("DeleteReference: %v", err)
	}

	bNode, _ := a.Store().Get(bId)
	for _, ref := range bNode.References {
		if ref.TargetId.NodeId.Equal(aId) {
			t.Error("expected the inverse reference on B to be removed too")
		}
	}
}

// DeleteReferences: deleting an entry that was never added reports
// UncertainReferenceNotDeleted.
func TestDeleteReferenceNotFound(t *testing.T) {
	a := newTestAddressSpace(t)
	aId, _ := a.AddNode(variableItem(nodeid.Numeric(testNs, 7600), "A", typesystem.TypeInt32, -1, int32(1)), nil)
	bId, _ := a.AddNode(variableItem(nodeid.Numeric(testNs, 7601), "B", typesystem.TypeInt32, -1, int32(2)), nil)

	delItem := DeleteReferencesItem{
		SourceId:        aId,
		ReferenceTypeId: typesystem.HasComponent,
		IsForward:       true,
		TargetId:        nodeid.Local(bId),
	}
	err := a.DeleteReference(delItem)
	if !errors.Is(err, status.ErrUncertainReferenceNotDeleted) {
		t.Fatalf("expected ErrUncertainReferenceNotDeleted, got %v", err)
	}
}

// AddNodes/AddReferences/DeleteNodes/DeleteReferences are the dispatch
// surface spec §6 names: an empty request array yields ErrNothingToDo as
// the sole result entry rather than an empty slice.
func TestEmptyRequestYieldsNothingToDo(t *testing.T) {
	a := newTestAddressSpace(t)

	addResults := a.AddNodes(nil)
	if len(addResults) != 1 || !errors.Is(addResults[0].Err, status.ErrNothingToDo) {
		t.Errorf("AddNodes(nil) = %+v, want a single ErrNothingToDo result", addResults)
	}

	addRefResults := a.AddReferences(nil)
	if len(addRefResults) != 1 || !errors.Is(addRefResults[0], status.ErrNothingToDo) {
		t.Errorf("AddReferences(nil) = %v, want a single ErrNothingToDo result", addRefResults)
	}

	deleteResults := a.DeleteNodes(nil)
	if len(deleteResults) != 1 || !errors.Is(deleteResults[0], status.ErrNothingToDo) {
		t.Errorf("DeleteNodes(nil) = %v, want a single ErrNothingToDo result", deleteResults)
	}

	deleteRefResults := a.DeleteReferences(nil)
	if len(deleteRefResults) != 1 || !errors.Is(deleteRefResults[0], status.ErrNothingToDo) {
		t.Errorf("DeleteReferences(nil) = %v, want a single ErrNothingToDo result", deleteRefResults)
	}
}

// AddNodes service-level entry point: per-item ordering is preserved.
func TestAddNodesPreservesRequestOrder(t *testing.T) {
	a := newTestAddressSpace(t)
	items := []AddNodesItem{
		variableItem(nodeid.Numeric(testNs, 7700), "First", typesystem.TypeInt32, -1, int32(1)),
		variableItem(nodeid.Numeric(testNs, 7701), "Second", typesystem.TypeInt32, -1, int32(2)),
	}
	results := a.AddNodes(items)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("unexpected errors: %v, %v", results[0].Err, results[1].Err)
	}
	if !results[0].AssignedNodeId.Equal(nodeid.Numeric(testNs, 7700)) {
		t.Errorf("expected result[0] to be the first item's id, got %s", results[0].AssignedNodeId)
	}
	if !results[1].AssignedNodeId.Equal(nodeid.Numeric(testNs, 7701)) {
		t.Errorf("expected result[1] to be the second item's id, got %s", results[1].AssignedNodeId)
	}
}
