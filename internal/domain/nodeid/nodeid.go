// Package nodeid implements the OPC UA identifier types the address-space
// core keys every node and reference by: NodeId, ExpandedNodeId,
// QualifiedName, LocalizedText, and the namespace table that gives a
// namespace index meaning.
package nodeid

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentifierKind is the tag of a NodeId's identifier union.
type IdentifierKind uint8

const (
	IdentifierNumeric IdentifierKind = iota
	IdentifierString
	IdentifierGUID
	IdentifierByteString
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierNumeric:
		return "numeric"
	case IdentifierString:
		return "string"
	case IdentifierGUID:
		return "guid"
	case IdentifierByteString:
		return "bytestring"
	default:
		return "unknown"
	}
}

// NodeId identifies a node within a namespace. Exactly one of the
// identifier fields is meaningful, selected by Kind.
type NodeId struct {
	NamespaceIndex uint16
	Kind           IdentifierKind

	Numeric    uint32
	StringID   string
	Guid       uuid.UUID
	ByteString []byte
}

// Numeric constructs a numeric NodeId. A Value of 0 means "assign me one"
// to NodeStore.Insert.
func Numeric(ns uint16, value uint32) NodeId {
	return NodeId{NamespaceIndex: ns, Kind: IdentifierNumeric, Numeric: value}
}

// String constructs a string-identifier NodeId.
func String(ns uint16, value string) NodeId {
	return NodeId{NamespaceIndex: ns, Kind: IdentifierString, StringID: value}
}

// GUID constructs a guid-identifier NodeId.
func GUID(ns uint16, value uuid.UUID) NodeId {
	return NodeId{NamespaceIndex: ns, Kind: IdentifierGUID, Guid: value}
}

// NewGUID allocates a fresh random guid-identifier NodeId in ns.
func NewGUID(ns uint16) NodeId {
	return GUID(ns, uuid.New())
}

// ByteStringID constructs a bytestring-identifier NodeId.
func ByteStringID(ns uint16, value []byte) NodeId {
	cp := make([]byte, len(value))
	copy(cp, value)
	return NodeId{NamespaceIndex: ns, Kind: IdentifierByteString, ByteString: cp}
}

// IsNull reports whether id is the zero value of its kind (for numeric ids:
// namespace 0 and value 0), the general absent-id sentinel used for null
// parentId/typeDefinition. NodeStore.Insert's "assign me one" check is
// IsZeroNumeric instead, which accepts any namespace.
func (id NodeId) IsNull() bool {
	switch id.Kind {
	case IdentifierNumeric:
		return id.Numeric == 0 && id.NamespaceIndex == 0
	case IdentifierString:
		return id.StringID == ""
	case IdentifierGUID:
		return id.Guid == uuid.Nil
	case IdentifierByteString:
		return len(id.ByteString) == 0
	default:
		return true
	}
}

// IsZeroNumeric reports whether id has a numeric identifier of value 0,
// the signal NodeStore.Insert uses to assign a fresh id in id's namespace.
func (id NodeId) IsZeroNumeric() bool {
	return id.Kind == IdentifierNumeric && id.Numeric == 0
}

// Key returns a value comparable with == and usable as a map key, unique
// per distinct NodeId. NodeStore implementations key their internal maps
// by this rather than by NodeId directly, since ByteString identifiers
// carry a non-comparable slice.
func (id NodeId) Key() string {
	switch id.Kind {
	case IdentifierNumeric:
		return fmt.Sprintf("ns=%d;i=%d", id.NamespaceIndex, id.Numeric)
	case IdentifierString:
		return fmt.Sprintf("ns=%d;s=%s", id.NamespaceIndex, id.StringID)
	case IdentifierGUID:
		return fmt.Sprintf("ns=%d;g=%s", id.NamespaceIndex, id.Guid.String())
	case IdentifierByteString:
		return fmt.Sprintf("ns=%d;b=%x", id.NamespaceIndex, id.ByteString)
	default:
		return fmt.Sprintf("ns=%d;?", id.NamespaceIndex)
	}
}

// Equal reports whether id and other identify the same node.
func (id NodeId) Equal(other NodeId) bool {
	return id.Key() == other.Key()
}

func (id NodeId) String() string {
	switch id.Kind {
	case IdentifierNumeric:
		return fmt.Sprintf("ns=%d;i=%d", id.NamespaceIndex, id.Numeric)
	case IdentifierString:
		return fmt.Sprintf("ns=%d;s=%s", id.NamespaceIndex, id.StringID)
	case IdentifierGUID:
		return fmt.Sprintf("ns=%d;g=%s", id.NamespaceIndex, id.Guid.String())
	default:
		return fmt.Sprintf("ns=%d;b=%x", id.NamespaceIndex, id.ByteString)
	}
}

// ExpandedNodeId is a NodeId optionally qualified by a foreign server
// index or namespace URI, used for reference targets so a reference can
// point outside the local address space.
type ExpandedNodeId struct {
	NodeId       NodeId
	NamespaceURI string
	ServerIndex  uint32
}

// IsLocal reports whether the target resolves in this server's own
// address space (server index 0, no namespace URI override).
func (e ExpandedNodeId) IsLocal() bool {
	return e.ServerIndex == 0 && e.NamespaceURI == ""
}

func (e ExpandedNodeId) Key() string {
	return fmt.Sprintf("%s;srv=%d;uri=%s", e.NodeId.Key(), e.ServerIndex, e.NamespaceURI)
}

// Local wraps a NodeId as an ExpandedNodeId targeting the local server.
func Local(id NodeId) ExpandedNodeId { return ExpandedNodeId{NodeId: id} }

// QualifiedName is a namespace-qualified name, used for BrowseName.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

func (q QualifiedName) String() string { return fmt.Sprintf("%d:%s", q.NamespaceIndex, q.Name) }

// Equal reports whether q and other are the same qualified name;
// instantiation's child lookup (spec §4.6) uses this to merge aggregated
// children by identity.
func (q QualifiedName) Equal(other QualifiedName) bool {
	return q.NamespaceIndex == other.NamespaceIndex && q.Name == other.Name
}

// LocalizedText is a locale-tagged display string.
type LocalizedText struct {
	Locale string
	Text   string
}
