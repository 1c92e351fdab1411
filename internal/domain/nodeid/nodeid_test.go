package nodeid

import "testing"

func TestNodeIdIsNull(t *testing.T) {
	cases := []struct {
		name string
		id   NodeId
		want bool
	}{
		{"zero numeric", Numeric(0, 0), true},
		{"nonzero numeric", Numeric(1, 42), false},
		{"empty string", String(1, ""), true},
		{"nonempty string", String(1, "x"), false},
		{"empty bytestring", ByteStringID(1, nil), true},
		{"nonempty bytestring", ByteStringID(1, []byte{1}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.id.IsNull(); got != tc.want {
				t.Errorf("IsNull() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNodeIdIsZeroNumeric(t *testing.T) {
	if !Numeric(1, 0).IsZeroNumeric() {
		t.Error("expected zero numeric id to report IsZeroNumeric")
	}
	if Numeric(1, 7).IsZeroNumeric() {
		t.Error("expected nonzero numeric id to not report IsZeroNumeric")
	}
	if String(1, "").IsZeroNumeric() {
		t.Error("expected string id to never report IsZeroNumeric")
	}
}

func TestNodeIdEqualAndKey(t *testing.T) {
	a := Numeric(1, 100)
	b := Numeric(1, 100)
	c := Numeric(2, 100)

	if !a.Equal(b) {
		t.Error("expected identical numeric ids to be Equal")
	}
	if a.Equal(c) {
		t.Error("expected ids in different namespaces to not be Equal")
	}
	if a.Key() != b.Key() {
		t.Error("expected identical ids to share a Key")
	}
	if a.Key() == c.Key() {
		t.Error("expected ids in different namespaces to have distinct Keys")
	}
}

func TestByteStringIDCopiesInput(t *testing.T) {
	src := []byte{1, 2, 3}
	id := ByteStringID(1, src)
	src[0] = 99
	if id.ByteString[0] != 1 {
		t.Error("ByteStringID must copy its input, not alias it")
	}
}

func TestExpandedNodeIdIsLocal(t *testing.T) {
	local := Local(Numeric(1, 1))
	if !local.IsLocal() {
		t.Error("Local() must produce a local ExpandedNodeId")
	}
	foreign := ExpandedNodeId{NodeId: Numeric(1, 1), ServerIndex: 2}
	if foreign.IsLocal() {
		t.Error("nonzero ServerIndex must not be local")
	}
	uriForeign := ExpandedNodeId{NodeId: Numeric(1, 1), NamespaceURI: "http://example.org/"}
	if uriForeign.IsLocal() {
		t.Error("nonempty NamespaceURI must not be local")
	}
}

func TestQualifiedNameEqual(t *testing.T) {
	a := QualifiedName{NamespaceIndex: 1, Name: "Temp"}
	b := QualifiedName{NamespaceIndex: 1, Name: "Temp"}
	c := QualifiedName{NamespaceIndex: 2, Name: "Temp"}
	if !a.Equal(b) {
		t.Error("expected equal qualified names to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected qualified names with different namespaces to differ")
	}
}

func TestNamespaceTable(t *testing.T) {
	tbl := NewNamespaceTable()
	if tbl.Count() != 1 {
		t.Fatalf("expected a fresh table to pre-populate index 0, got count %d", tbl.Count())
	}
	if uri, err := tbl.URI(0); err != nil || uri != OpcUaNamespaceURI {
		t.Fatalf("URI(0) = %q, %v; want %q, nil", uri, err, OpcUaNamespaceURI)
	}

	idx := tbl.Append("http://example.org/UA/")
	if idx != 1 {
		t.Fatalf("expected first appended namespace to get index 1, got %d", idx)
	}

	// Appending the same URI again must return the existing index, not grow.
	idx2 := tbl.Append("http://example.org/UA/")
	if idx2 != idx {
		t.Fatalf("re-appending an existing URI should return its existing index, got %d want %d", idx2, idx)
	}
	if tbl.Count() != 2 {
		t.Fatalf("expected count 2 after one distinct append, got %d", tbl.Count())
	}

	if got, ok := tbl.IndexOf("http://example.org/UA/"); !ok || got != 1 {
		t.Fatalf("IndexOf = %d, %v; want 1, true", got, ok)
	}
	if _, ok := tbl.IndexOf("http://nowhere/"); ok {
		t.Error("IndexOf should report false for an unregistered URI")
	}

	if !tbl.Valid(0) || !tbl.Valid(1) {
		t.Error("indices within the configured count must be Valid")
	}
	if tbl.Valid(2) {
		t.Error("an index beyond the configured count must be invalid")
	}
	if _, err := tbl.URI(5); err == nil {
		t.Error("URI() of an out-of-range index must return an error")
	}
}
