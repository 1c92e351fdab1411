package typesystem

import "github.com/opcfoundry/addrspace/internal/domain/nodeid"

// Well-known namespace-zero node ids the type system reasons about by
// name. Mirrors the handful of identifiers spec.md's own invariants and
// §8 scenarios name explicitly.
var (
	HasSubtype             = nodeid.Numeric(0, 45)
	HasTypeDefinition      = nodeid.Numeric(0, 40)
	HierarchicalReferences = nodeid.Numeric(0, 33)
	Aggregates             = nodeid.Numeric(0, 44)
	HasComponent           = nodeid.Numeric(0, 47)
	Organizes              = nodeid.Numeric(0, 35)
	References             = nodeid.Numeric(0, 31)

	BaseObjectType       = nodeid.Numeric(0, 58)
	BaseVariableType     = nodeid.Numeric(0, 62)
	BaseDataVariableType = nodeid.Numeric(0, 63)

	BaseDataType = nodeid.Numeric(0, 24)

	// Builtin scalar DataTypes the type checker can synthesize a null
	// value for (spec §4.5 step 6). Stored values are coerced (step 9)
	// only for Int32, Int64, Float and Double.
	TypeBoolean  = nodeid.Numeric(0, 1)
	TypeSByte    = nodeid.Numeric(0, 2)
	TypeByte     = nodeid.Numeric(0, 3)
	TypeInt16    = nodeid.Numeric(0, 4)
	TypeUInt16   = nodeid.Numeric(0, 5)
	TypeInt32    = nodeid.Numeric(0, 6)
	TypeUInt32   = nodeid.Numeric(0, 7)
	TypeInt64    = nodeid.Numeric(0, 8)
	TypeUInt64   = nodeid.Numeric(0, 9)
	TypeFloat    = nodeid.Numeric(0, 10)
	TypeDouble   = nodeid.Numeric(0, 11)
	TypeString   = nodeid.Numeric(0, 12)
	TypeDateTime = nodeid.Numeric(0, 13)
	TypeGuid     = nodeid.Numeric(0, 14)
)
