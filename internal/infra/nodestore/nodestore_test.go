package nodestore

import (
	"errors"
	"testing"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
)

func TestInsertAssignsFreshNumericId(t *testing.T) {
	s := New(nil)
	n, err := s.NewNodeOfClass(node.ClassObject)
	if err != nil {
		t.Fatal(err)
	}
	n.NodeId = nodeid.Numeric(1, 0)

	id, err := s.Insert(n)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id.Numeric == 0 {
		t.Error("expected Insert to assign a nonzero numeric id when requested id is zero")
	}

	n2, _ := s.NewNodeOfClass(node.ClassObject)
	n2.NodeId = nodeid.Numeric(1, 0)
	id2, err := s.Insert(n2)
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if id2.Numeric == id.Numeric {
		t.Error("expected distinct assigned numeric ids across inserts")
	}
}

func TestInsertRejectsDuplicateId(t *testing.T) {
	s := New(nil)
	n1, _ := s.NewNodeOfClass(node.ClassObject)
	n1.NodeId = nodeid.Numeric(1, 100)
	if _, err := s.Insert(n1); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	n2, _ := s.NewNodeOfClass(node.ClassObject)
	n2.NodeId = nodeid.Numeric(1, 100)
	_, err := s.Insert(n2)
	if !errors.Is(err, status.ErrNodeIdExists) {
		t.Errorf("expected ErrNodeIdExists, got %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("expected count 1 after rejected duplicate insert, got %d", s.Count())
	}
}

func TestGetAndGetCopy(t *testing.T) {
	s := New(nil)
	n, _ := s.NewNodeOfClass(node.ClassVariable)
	n.NodeId = nodeid.Numeric(1, 1)
	n.ApplyVariableAttributes(nodeid.Numeric(0, 6), -1, nil, 1, 1, false, 0, node.Variant{Value: int32(5)})
	id, _ := s.Insert(n)

	borrowed, ok := s.Get(id)
	if !ok {
		t.Fatal("expected Get to find the inserted node")
	}
	if borrowed.Variable.Value.Value.Value != int32(5) {
		t.Errorf("unexpected borrowed value: %v", borrowed.Variable.Value.Value.Value)
	}

	cp, ok := s.GetCopy(id)
	if !ok {
		t.Fatal("expected GetCopy to find the inserted node")
	}
	cp.Variable.Value.Value.Value = int32(99)
	if borrowed.Variable.Value.Value.Value != int32(5) {
		t.Error("mutating a GetCopy result must not affect the stored node")
	}

	if _, ok := s.Get(nodeid.Numeric(1, 999)); ok {
		t.Error("Get of an unknown id must report false")
	}
}

func TestRemove(t *testing.T) {
	s := New(nil)
	n, _ := s.NewNodeOfClass(node.ClassObject)
	n.NodeId = nodeid.Numeric(1, 1)
	id, _ := s.Insert(n)

	if err := s.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get(id); ok {
		t.Error("expected node to be gone after Remove")
	}
	if err := s.Remove(id); !errors.Is(err, status.ErrNodeIdUnknown) {
		t.Errorf("expected ErrNodeIdUnknown removing an already-removed id, got %v", err)
	}
}

func TestRemoveCompactsKeysConsistently(t *testing.T) {
	s := New(nil)
	var ids []nodeid.NodeId
	for i := 0; i < 5; i++ {
		n, _ := s.NewNodeOfClass(node.ClassObject)
		n.NodeId = nodeid.Numeric(1, uint32(i+1))
		id, err := s.Insert(n)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	// Remove a middle entry, then verify every other id is still reachable
	// (exercises the swap-with-last compaction in Remove).
	if err := s.Remove(ids[2]); err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		if i == 2 {
			continue
		}
		if _, ok := s.Get(id); !ok {
			t.Errorf("id %s missing after unrelated removal", id)
		}
	}
	if s.Count() != 4 {
		t.Errorf("expected count 4, got %d", s.Count())
	}
}

func TestAllReturnsEveryStoredId(t *testing.T) {
	s := New(nil)
	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		n, _ := s.NewNodeOfClass(node.ClassObject)
		n.NodeId = nodeid.Numeric(1, uint32(i+1))
		id, _ := s.Insert(n)
		want[id.Key()] = true
	}
	got := s.All()
	if len(got) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(got))
	}
	for _, id := range got {
		if !want[id.Key()] {
			t.Errorf("unexpected id in All(): %s", id)
		}
	}
}
