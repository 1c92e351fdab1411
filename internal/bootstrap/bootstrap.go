// Package bootstrap seeds the minimal namespace-zero fixture this module
// needs to exercise AddNodes against (SPEC_FULL supplemental feature 2):
// the handful of ReferenceTypes, DataTypes, ObjectType/VariableType roots,
// and the ObjectsFolder that spec.md's own invariants and §8 scenarios
// name by name. This is a fixture, not a namespace-zero implementation —
// the address-space core treats namespace-zero bootstrap as an external
// collaborator out of scope (spec.md §1).
//
// Seeding writes directly to the store, bypassing the validators in
// internal/typesystem and internal/service/addressspace entirely: those
// validators all assume a parent/type already exists to validate against,
// which is exactly what is missing at the root of the tree. The same
// escape hatch typesystem.TypeChecker.CheckVariableNode documents for
// BaseDataVariableType (spec §4.5 step 2) generalizes here to the whole
// seed graph.
package bootstrap

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

// ObjectsFolder is the root Object every instantiated Object/Variable tree
// in this fixture hangs off of.
var ObjectsFolder = nodeid.Numeric(0, 85)

// New seeds store with the namespace-zero fixture and returns an error if
// any insert fails (it should not, against a store New() just produced).
func New(store nodestore.Store) error {
	s := &seeder{store: store}

	s.referenceType(typesystem.References, "References", true, nodeid.NodeId{})
	s.referenceType(typesystem.HierarchicalReferences, "HierarchicalReferences", true, typesystem.References)
	s.referenceType(typesystem.Aggregates, "Aggregates", true, typesystem.HierarchicalReferences)
	s.referenceType(typesystem.HasComponent, "HasComponent", false, typesystem.Aggregates)
	s.referenceType(typesystem.Organizes, "Organizes", false, typesystem.HierarchicalReferences)
	s.referenceType(typesystem.HasSubtype, "HasSubtype", false, typesystem.References)
	s.referenceType(typesystem.HasTypeDefinition, "HasTypeDefinition", false, typesystem.References)

	s.dataType(typesystem.BaseDataType, "BaseDataType", true, nodeid.NodeId{})
	s.dataType(typesystem.TypeBoolean, "Boolean", false, typesystem.BaseDataType)
	s.dataType(typesystem.TypeInt32, "Int32", false, typesystem.BaseDataType)
	s.dataType(typesystem.TypeDouble, "Double", false, typesystem.BaseDataType)
	s.dataType(typesystem.TypeString, "String", false, typesystem.BaseDataType)

	s.objectType(typesystem.BaseObjectType, "BaseObjectType", false, nodeid.NodeId{})

	s.variableType(typesystem.BaseVariableType, "BaseVariableType", true, nodeid.NodeId{}, typesystem.BaseDataType, -2)
	s.variableType(typesystem.BaseDataVariableType, "BaseDataVariableType", false, typesystem.BaseVariableType, typesystem.BaseDataType, -2)

	s.object(ObjectsFolder, "ObjectsFolder", typesystem.BaseObjectType)

	if s.err != nil {
		return fmt.Errorf("bootstrap: %w", s.err)
	}
	return nil
}

// seeder accumulates the first error from a sequence of insert/link calls
// so New's body reads as a flat list of seed statements.
type seeder struct {
	store nodestore.Store
	err   error
}

func (s *seeder) insert(n *node.Node) {
	if s.err != nil {
		return
	}
	if _, err := s.store.Insert(n); err != nil {
		s.err = fmt.Errorf("insert %s: %w", n.NodeId, err)
	}
}

// link adds the forward entry of refType onto a pointing at b, and the
// inverse entry onto b pointing at a, bypassing the reference manager's
// namespace/abstractness checks since neither side may exist yet in a
// form those checks could evaluate.
func (s *seeder) link(a, b *node.Node, refType nodeid.NodeId) {
	if s.err != nil {
		return
	}
	if err := a.AddReference(node.ReferenceEntry{ReferenceTypeId: refType, TargetId: nodeid.Local(b.NodeId)}); err != nil {
		s.err = err
		return
	}
	if err := b.AddReference(node.ReferenceEntry{ReferenceTypeId: refType, TargetId: nodeid.Local(a.NodeId), IsInverse: true}); err != nil {
		s.err = err
	}
}

func (s *seeder) referenceType(id nodeid.NodeId, name string, abstract bool, parent nodeid.NodeId) {
	n, err := node.New(node.ClassReferenceType)
	if err != nil {
		s.err = err
		return
	}
	n.NodeId = id
	n.BrowseName = nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name}
	n.DisplayName = nodeid.LocalizedText{Locale: "en", Text: name}
	n.ReferenceType.IsAbstract = abstract
	s.insert(n)
	s.maybeSubtype(n, parent)
}

func (s *seeder) dataType(id nodeid.NodeId, name string, abstract bool, parent nodeid.NodeId) {
	n, err := node.New(node.ClassDataType)
	if err != nil {
		s.err = err
		return
	}
	n.NodeId = id
	n.BrowseName = nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name}
	n.DisplayName = nodeid.LocalizedText{Locale: "en", Text: name}
	n.DataType.IsAbstract = abstract
	s.insert(n)
	s.maybeSubtype(n, parent)
}

func (s *seeder) objectType(id nodeid.NodeId, name string, abstract bool, parent nodeid.NodeId) {
	n, err := node.New(node.ClassObjectType)
	if err != nil {
		s.err = err
		return
	}
	n.NodeId = id
	n.BrowseName = nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name}
	n.DisplayName = nodeid.LocalizedText{Locale: "en", Text: name}
	n.ObjectType.IsAbstract = abstract
	s.insert(n)
	s.maybeSubtype(n, parent)
}

func (s *seeder) variableType(id nodeid.NodeId, name string, abstract bool, parent, dataType nodeid.NodeId, valueRank int32) {
	n, err := node.New(node.ClassVariableType)
	if err != nil {
		s.err = err
		return
	}
	n.NodeId = id
	n.BrowseName = nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name}
	n.DisplayName = nodeid.LocalizedText{Locale: "en", Text: name}
	n.VariableType.IsAbstract = abstract
	n.VariableType.DataType = dataType
	n.VariableType.ValueRank = valueRank
	s.insert(n)
	s.maybeSubtype(n, parent)
}

func (s *seeder) object(id nodeid.NodeId, name string, typeDefinition nodeid.NodeId) {
	n, err := node.New(node.ClassObject)
	if err != nil {
		s.err = err
		return
	}
	n.NodeId = id
	n.BrowseName = nodeid.QualifiedName{NamespaceIndex: id.NamespaceIndex, Name: name}
	n.DisplayName = nodeid.LocalizedText{Locale: "en", Text: name}
	s.insert(n)

	if s.err != nil {
		return
	}
	typeNode, ok := s.store.Get(typeDefinition)
	if !ok {
		s.err = fmt.Errorf("bootstrap: type definition %s for %s not seeded yet", typeDefinition, name)
		return
	}
	s.link(n, typeNode, typesystem.HasTypeDefinition)
}

// maybeSubtype links n to parent via HasSubtype, skipping root type nodes
// (parent.IsNull()) that have no supertype.
func (s *seeder) maybeSubtype(n *node.Node, parent nodeid.NodeId) {
	if parent.IsNull() || s.err != nil {
		return
	}
	parentNode, ok := s.store.Get(parent)
	if !ok {
		s.err = fmt.Errorf("bootstrap: supertype %s for %s not seeded yet", parent, n.NodeId)
		return
	}
	// HasSubtype's forward entry lives on the supertype pointing at the
	// subtype; HierarchyWalker.computeChain climbs via the inverse entry
	// on the subtype (internal/typesystem/hierarchy.go), so the forward
	// side here must be parentNode, not n.
	s.link(parentNode, n, typesystem.HasSubtype)
}
