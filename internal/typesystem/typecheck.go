package typesystem

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
)

// TypeChecker implements the Variable/VariableType template validation of
// spec §4.5 — the hardest logic in the core.
type TypeChecker struct {
	store  nodestore.Store
	walker *HierarchyWalker
	log    *zap.Logger
}

// NewTypeChecker constructs a checker over store and walker.
func NewTypeChecker(store nodestore.Store, walker *HierarchyWalker, log *zap.Logger) *TypeChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &TypeChecker{store: store, walker: walker, log: log.Named("typecheck")}
}

// CheckVariableNode validates n (a Variable or VariableType not yet
// inserted, or already inserted and being re-checked) against its
// VariableType template typeDefId, mutating n in place per spec §4.5
// steps 1, 6, 7, 9. Re-running this on an already-valid Variable is a
// no-op (spec §8 property 6).
func (c *TypeChecker) CheckVariableNode(n *node.Node, typeDefId nodeid.NodeId) error {
	vl, ok := n.VariableLike()
	if !ok {
		return fmt.Errorf("typesystem: %s is not a Variable/VariableType: %w", n.Class, status.ErrNodeClassInvalid)
	}

	// Step 1: default an unset dataType to BaseDataType.
	if vl.DataType.IsNull() {
		c.log.Warn("dataType unset; defaulting to BaseDataType", zap.String("node_id", n.NodeId.String()))
		vl.DataType = BaseDataType
	}

	// Step 2: bootstrap escape hatch.
	if n.NodeId.Equal(BaseDataVariableType) {
		return nil
	}

	vt, ok := c.store.Get(typeDefId)
	if !ok || vt.Class != node.ClassVariableType {
		return fmt.Errorf("typesystem: type definition %s: %w", typeDefId, status.ErrTypeDefinitionInvalid)
	}
	if vt.VariableType.IsAbstract && n.Class == node.ClassVariable {
		return fmt.Errorf("typesystem: type definition %s is abstract: %w", typeDefId, status.ErrTypeDefinitionInvalid)
	}

	// Step 4: dataType subtype check. A template with no dataType of its
	// own (the root VariableType) is unconstrained: treat it as
	// BaseDataType rather than letting a null id fail every subtype check.
	templateDataType := vt.VariableType.DataType
	if templateDataType.IsNull() {
		templateDataType = BaseDataType
	}
	isSubtype, err := c.walker.IsSubtypeOf(vl.DataType, templateDataType)
	if err != nil {
		return err
	}
	if !isSubtype {
		return fmt.Errorf("typesystem: dataType %s is not a subtype of template dataType %s: %w", vl.DataType, templateDataType, status.ErrTypeMismatch)
	}

	// Step 5: read current value.
	value, err := c.readValue(n)
	if err != nil {
		return err
	}

	// Step 6: synthesize a null value when empty and the dataType is concrete.
	if value.Empty() && isConcreteScalarType(vl.DataType) {
		synthesized := synthesizeNullValue(vl.DataType, vl.ValueRank)
		if err := c.writeValue(n, synthesized); err != nil {
			return err
		}
		value = synthesized
	}

	// Step 7: reconcile valueRank with the observed value shape.
	if len(vl.ArrayDimensions) == 0 && !value.IsArray && vl.ValueRank == 0 {
		vl.ValueRank = vt.VariableType.ValueRank
	}
	if value.IsArray && vl.ValueRank == 1 && len(vl.ArrayDimensions) == 0 {
		vl.ArrayDimensions = []uint32{0}
	}

	// Step 8: rank/dimension compatibility.
	if !compatibleValueRankArrayDimensions(vl.ValueRank, len(vl.ArrayDimensions)) {
		return fmt.Errorf("typesystem: valueRank %d incompatible with %d array dimensions: %w", vl.ValueRank, len(vl.ArrayDimensions), status.ErrTypeMismatch)
	}
	if !compatibleValueRanks(vl.ValueRank, vt.VariableType.ValueRank) {
		return fmt.Errorf("typesystem: valueRank %d incompatible with template valueRank %d: %w", vl.ValueRank, vt.VariableType.ValueRank, status.ErrTypeMismatch)
	}
	if !compatibleArrayDimensions(vl.ArrayDimensions, vt.VariableType.ArrayDimensions) {
		return fmt.Errorf("typesystem: arrayDimensions incompatible with template: %w", status.ErrTypeMismatch)
	}

	// Step 9: coerce the stored value to the declared dataType.
	if vl.ValueSource == node.ValueSourceData {
		if err := c.typeCheckValue(n); err != nil {
			return err
		}
	}
	return nil
}

func (c *TypeChecker) readValue(n *node.Node) (node.Variant, error) {
	vl, _ := n.VariableLike()
	switch vl.ValueSource {
	case node.ValueSourceDataSource:
		if vl.Source == nil {
			return node.Variant{}, nil
		}
		dv, err := vl.Source.Read(vl.Source.Handle)
		if err != nil {
			return node.Variant{}, fmt.Errorf("typesystem: data source read: %w", err)
		}
		return dv.Value, nil
	default:
		if vl.Value == nil {
			return node.Variant{}, nil
		}
		return vl.Value.Value, nil
	}
}

func (c *TypeChecker) writeValue(n *node.Node, value node.Variant) error {
	vl, _ := n.VariableLike()
	switch vl.ValueSource {
	case node.ValueSourceDataSource:
		if vl.Source == nil {
			return fmt.Errorf("typesystem: %s has no DataSource to write through: %w", n.NodeId, status.ErrInternalError)
		}
		return vl.Source.Write(vl.Source.Handle, node.DataValue{Value: value})
	default:
		if vl.Value != nil {
			old := vl.Value.Value
			if vl.Value.WriteCallback != nil {
				if err := vl.Value.WriteCallback(old, value); err != nil {
					return fmt.Errorf("typesystem: value write callback: %w", err)
				}
			}
			vl.Value.Value = value
		} else {
			vl.Value = &node.DataValue{Value: value}
		}
		return nil
	}
}

// typeCheckValue coerces the node's stored inline value to its declared
// dataType (spec §4.5 step 9) for four builtin scalars only: Int32 and
// Int64 (from Go integer kinds) and Double and Float (from float32,
// float64, int and int32). Every other dataType — the remaining builtins
// and structured/extension-object types alike — and any value of a Go type
// those conversions do not accept pass through unchanged; no coercion
// failure is reported, and the function always returns nil.
func (c *TypeChecker) typeCheckValue(n *node.Node) error {
	vl, _ := n.VariableLike()
	if vl.Value == nil {
		return nil
	}
	coerced, ok := coerceBuiltin(vl.DataType, vl.Value.Value.Value)
	if !ok {
		return nil
	}
	vl.Value.Value.Value = coerced
	return nil
}

// isConcreteScalarType reports whether id names one of the builtin
// primitive DataTypes (spec §4.5 step 6's "concrete primitive/structured
// type").
func isConcreteScalarType(id nodeid.NodeId) bool {
	switch id.Key() {
	case TypeBoolean.Key(), TypeSByte.Key(), TypeByte.Key(), TypeInt16.Key(), TypeUInt16.Key(),
		TypeInt32.Key(), TypeUInt32.Key(), TypeInt64.Key(), TypeUInt64.Key(), TypeFloat.Key(),
		TypeDouble.Key(), TypeString.Key(), TypeDateTime.Key(), TypeGuid.Key():
		return true
	default:
		return false
	}
}

func synthesizeNullValue(dataType nodeid.NodeId, valueRank int32) node.Variant {
	if valueRank == 1 {
		return node.Variant{Value: zeroScalar(dataType), IsArray: true, ArrayDimensions: []uint32{0}}
	}
	return node.Variant{Value: zeroScalar(dataType)}
}

func zeroScalar(dataType nodeid.NodeId) any {
	switch dataType.Key() {
	case TypeBoolean.Key():
		return false
	case TypeSByte.Key():
		return int8(0)
	case TypeByte.Key():
		return uint8(0)
	case TypeInt16.Key():
		return int16(0)
	case TypeUInt16.Key():
		return uint16(0)
	case TypeInt32.Key():
		return int32(0)
	case TypeUInt32.Key():
		return uint32(0)
	case TypeInt64.Key():
		return int64(0)
	case TypeUInt64.Key():
		return uint64(0)
	case TypeFloat.Key():
		return float32(0)
	case TypeDouble.Key():
		return float64(0)
	case TypeString.Key():
		return ""
	case TypeDateTime.Key():
		return time.Time{}
	case TypeGuid.Key():
		return [16]byte{}
	default:
		return nil
	}
}

func coerceBuiltin(dataType nodeid.NodeId, value any) (any, bool) {
	switch dataType.Key() {
	case TypeInt32.Key():
		if v, ok := asInt64(value); ok {
			return int32(v), true
		}
	case TypeInt64.Key():
		if v, ok := asInt64(value); ok {
			return v, true
		}
	case TypeDouble.Key():
		if v, ok := asFloat64(value); ok {
			return v, true
		}
	case TypeFloat.Key():
		if v, ok := asFloat64(value); ok {
			return float32(v), true
		}
	}
	return value, false
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	default:
		return 0, false
	}
}

// compatibleValueRankArrayDimensions implements spec §4.5 step 8's first
// pairwise rule: scalar ranks permit dimsCount=0; a fixed positive rank
// must equal dimsCount.
func compatibleValueRankArrayDimensions(rank int32, dimsCount int) bool {
	switch {
	case rank == -1 || rank == -2 || rank == -3:
		return dimsCount == 0
	case rank == 0:
		return true
	case rank > 0:
		return int(rank) == dimsCount
	default:
		return false
	}
}

// compatibleValueRanks implements spec §4.5 step 8's second pairwise rule:
// child ⊑ parent under {any ⊒ scalarOrArray ⊒ {scalar, oneOrMoreDim},
// positive n only ⊑ itself or the permissive parents}.
func compatibleValueRanks(child, parent int32) bool {
	const (
		any_          int32 = -3
		scalarOrArray int32 = -2
		scalar        int32 = -1
		oneOrMoreDim  int32 = 0
	)
	if parent == any_ {
		return true
	}
	if parent == scalarOrArray {
		return child == scalar || child == oneOrMoreDim || child > 0 || child == scalarOrArray
	}
	if parent == scalar {
		return child == scalar
	}
	if parent == oneOrMoreDim {
		return child == oneOrMoreDim || child > 0
	}
	if parent > 0 {
		return child == parent
	}
	return false
}

// compatibleArrayDimensions implements spec §4.5 step 8's third pairwise
// rule: a parent with no arrayDimensions accepts any child; otherwise the
// lengths must match and each child dimension equals the corresponding
// parent dimension, or the parent dimension is 0 (unconstrained).
func compatibleArrayDimensions(child, parent []uint32) bool {
	if len(parent) == 0 {
		return true
	}
	if len(child) != len(parent) {
		return false
	}
	for i := range parent {
		if parent[i] != 0 && parent[i] != child[i] {
			return false
		}
	}
	return true
}
