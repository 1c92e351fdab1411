package node

import "time"

// Variant is the OPC UA-ish typed value container carried by a Variable's
// DataValue. A nil Value is the "empty value" spec §4.5 step 5 tests for.
// IsArray distinguishes a one-element array from a scalar, since both can
// otherwise look like the same Go value.
type Variant struct {
	Value           any
	IsArray         bool
	ArrayDimensions []uint32
}

// Empty reports whether v carries no value at all (distinct from a
// zero-valued scalar, which is "empty" only before typeCheckValue
// synthesizes it per spec §4.5 step 6).
func (v Variant) Empty() bool {
	return v.Value == nil
}

// DataValue is the inline value storage of a Variable whose ValueSource is
// Data. WriteCallback, when set, is invoked by the node's normal write path
// with the old and new values before the new value is stored; a non-nil
// error aborts the write (setVariableNode_valueCallback).
type DataValue struct {
	Value         Variant
	SourceTime    time.Time
	ServerTime    time.Time
	StatusCode    uint32
	WriteCallback func(old, new Variant) error
}

// DataSource replaces inline value storage with a pair of user callbacks
// (setVariableNode_dataSource). Handle is opaque and passed back to both.
type DataSource struct {
	Handle any
	Read   func(handle any) (DataValue, error)
	Write  func(handle any, value DataValue) error
}
