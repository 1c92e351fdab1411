package typesystem

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
)

// ReferenceValidator implements checkParentReference (spec §4.3).
type ReferenceValidator struct {
	store  nodestore.Store
	walker *HierarchyWalker
}

// NewReferenceValidator constructs a validator over store and walker.
func NewReferenceValidator(store nodestore.Store, walker *HierarchyWalker) *ReferenceValidator {
	return &ReferenceValidator{store: store, walker: walker}
}

// CheckParentReference validates that referenceTypeId may connect a
// prospective node of class nodeClass to parentId, per spec §4.3's five
// steps. Objects added without a parent (both ids null) bypass this
// entirely at the call site — CheckParentReference is not invoked for
// that case.
func (v *ReferenceValidator) CheckParentReference(nodeClass node.Class, parentId, referenceTypeId nodeid.NodeId) error {
	parent, ok := v.store.Get(parentId)
	if !ok {
		return fmt.Errorf("typesystem: parent %s: %w", parentId, status.ErrParentNodeIdInvalid)
	}

	refTypeNode, ok := v.store.Get(referenceTypeId)
	if !ok || refTypeNode.Class != node.ClassReferenceType {
		return fmt.Errorf("typesystem: reference type %s: %w", referenceTypeId, status.ErrReferenceTypeIdInvalid)
	}

	if refTypeNode.ReferenceType.IsAbstract {
		return fmt.Errorf("typesystem: reference type %s is abstract: %w", referenceTypeId, status.ErrReferenceNotAllowed)
	}

	if nodeClass.IsTypeClass() {
		if !referenceTypeId.Equal(HasSubtype) {
			return fmt.Errorf("typesystem: type node parent reference must be HasSubtype: %w", status.ErrReferenceNotAllowed)
		}
		if parent.Class != nodeClass {
			return fmt.Errorf("typesystem: parent class %s does not match %s: %w", parent.Class, nodeClass, status.ErrParentNodeIdInvalid)
		}
		return nil
	}

	isHierarchical, err := v.walker.IsSubtypeOf(referenceTypeId, HierarchicalReferences)
	if err != nil {
		return err
	}
	if !isHierarchical {
		return fmt.Errorf("typesystem: reference type %s is not hierarchical: %w", referenceTypeId, status.ErrReferenceTypeIdInvalid)
	}
	return nil
}

// IsAbstractReferenceType reports whether id names a ReferenceType node
// with isAbstract set.
func (v *ReferenceValidator) IsAbstractReferenceType(id nodeid.NodeId) (bool, error) {
	n, ok := v.store.Get(id)
	if !ok || n.Class != node.ClassReferenceType {
		return false, fmt.Errorf("typesystem: reference type %s: %w", id, status.ErrReferenceTypeIdInvalid)
	}
	return n.ReferenceType.IsAbstract, nil
}
