package typesystem

import (
	"errors"
	"testing"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
)

// refFixture builds a minimal store with HierarchicalReferences,
// Organizes (a hierarchical, non-abstract subtype), a non-hierarchical
// non-abstract reference type, and a HasSubtype reference type, plus one
// ObjectType and one Object node to validate against.
type refFixture struct {
	store      nodestore.Store
	walker     *HierarchyWalker
	validator  *ReferenceValidator
	objectType nodeid.NodeId
	object     nodeid.NodeId
	nonHier    nodeid.NodeId
}

func newRefFixture(t *testing.T) *refFixture {
	t.Helper()
	s := nodestore.New(nil)

	mk := func(id nodeid.NodeId, class node.Class, abstract bool) *node.Node {
		n, err := s.NewNodeOfClass(class)
		if err != nil {
			t.Fatal(err)
		}
		n.NodeId = id
		if class == node.ClassReferenceType {
			n.ReferenceType.IsAbstract = abstract
		}
		if _, err := s.Insert(n); err != nil {
			t.Fatal(err)
		}
		return n
	}

	hierRoot := mk(HierarchicalReferences, node.ClassReferenceType, true)
	organizes := mk(Organizes, node.ClassReferenceType, false)
	_ = hierRoot.AddReference(node.ReferenceEntry{ReferenceTypeId: HasSubtype, TargetId: nodeid.Local(Organizes)})
	_ = organizes.AddReference(node.ReferenceEntry{ReferenceTypeId: HasSubtype, TargetId: nodeid.Local(HierarchicalReferences), IsInverse: true})

	mk(HasSubtype, node.ClassReferenceType, false)

	nonHier := nodeid.Numeric(1, 500)
	mk(nonHier, node.ClassReferenceType, false)

	objectType := nodeid.Numeric(1, 1)
	mk(objectType, node.ClassObjectType, false)

	object := nodeid.Numeric(1, 2)
	mk(object, node.ClassObject, false)

	w := NewHierarchyWalker(s)
	return &refFixture{
		store:      s,
		walker:     w,
		validator:  NewReferenceValidator(s, w),
		objectType: objectType,
		object:     object,
		nonHier:    nonHier,
	}
}

func TestCheckParentReferenceMissingParent(t *testing.T) {
	f := newRefFixture(t)
	err := f.validator.CheckParentReference(node.ClassObject, nodeid.Numeric(1, 9999), Organizes)
	if !errors.Is(err, status.ErrParentNodeIdInvalid) {
		t.Errorf("expected ErrParentNodeIdInvalid, got %v", err)
	}
}

func TestCheckParentReferenceUnknownReferenceType(t *testing.T) {
	f := newRefFixture(t)
	err := f.validator.CheckParentReference(node.ClassObject, f.object, nodeid.Numeric(1, 9999))
	if !errors.Is(err, status.ErrReferenceTypeIdInvalid) {
		t.Errorf("expected ErrReferenceTypeIdInvalid, got %v", err)
	}
}

func TestCheckParentReferenceAbstractReferenceTypeRejected(t *testing.T) {
	f := newRefFixture(t)
	err := f.validator.CheckParentReference(node.ClassObject, f.object, HierarchicalReferences)
	if !errors.Is(err, status.ErrReferenceNotAllowed) {
		t.Errorf("expected ErrReferenceNotAllowed for an abstract reference type, got %v", err)
	}
}

func TestCheckParentReferenceNonHierarchicalRejectedForObject(t *testing.T) {
	f := newRefFixture(t)
	err := f.validator.CheckParentReference(node.ClassObject, f.object, f.nonHier)
	if !errors.Is(err, status.ErrReferenceTypeIdInvalid) {
		t.Errorf("expected ErrReferenceTypeIdInvalid for a non-hierarchical reference type, got %v", err)
	}
}

func TestCheckParentReferenceHierarchicalAcceptedForObject(t *testing.T) {
	f := newRefFixture(t)
	if err := f.validator.CheckParentReference(node.ClassObject, f.object, Organizes); err != nil {
		t.Errorf("expected a hierarchical reference type to be accepted for an Object parent, got %v", err)
	}
}

func TestCheckParentReferenceTypeNodeRequiresHasSubtype(t *testing.T) {
	f := newRefFixture(t)
	err := f.validator.CheckParentReference(node.ClassObjectType, f.objectType, Organizes)
	if !errors.Is(err, status.ErrReferenceNotAllowed) {
		t.Errorf("expected a type node's parent reference to require HasSubtype, got %v", err)
	}
	if err := f.validator.CheckParentReference(node.ClassObjectType, f.objectType, HasSubtype); err != nil {
		t.Errorf("expected HasSubtype to be accepted for a type-node parent, got %v", err)
	}
}

func TestCheckParentReferenceTypeNodeRequiresSameClassParent(t *testing.T) {
	f := newRefFixture(t)
	// f.objectType is an ObjectType; requesting a VariableType child under
	// it via HasSubtype must fail the same-class check.
	err := f.validator.CheckParentReference(node.ClassVariableType, f.objectType, HasSubtype)
	if !errors.Is(err, status.ErrParentNodeIdInvalid) {
		t.Errorf("expected ErrParentNodeIdInvalid for a cross-class type parent, got %v", err)
	}
}
