package entities

import "testing"

func TestBasinMultiset_KeyIsOrderIndependent(t *testing.T) {
	a := NewBasinMultiset([]BasinSpec{{Type: BasinESink}, {Type: BasinEDrain}, {Type: BasinEDrain}})
	b := NewBasinMultiset([]BasinSpec{{Type: BasinEDrain}, {Type: BasinEDrain}, {Type: BasinESink}})

	if a.Key() != "E_DRAIN:2,E_SINK:1" {
		t.Errorf("Expected key E_DRAIN:2,E_SINK:1, got %s", a.Key())
	}
	if a.Key() != b.Key() {
		t.Errorf("Expected equal keys, got %s and %s", a.Key(), b.Key())
	}
	if a.Size() != 3 {
		t.Errorf("Expected size 3, got %d", a.Size())
	}
}

func TestBasinMultiset_DistinctTypes(t *testing.T) {
	m := NewBasinMultiset([]BasinSpec{{Type: BasinESinkDI}, {Type: BasinESink}})
	if m.Key() != "E_SINK:1,E_SINK_DI:1" {
		t.Errorf("Expected E_SINK_DI to stay distinct, got %s", m.Key())
	}
	if (BasinMultiset{}).Key() != "" {
		t.Error("Expected empty key for empty multiset")
	}
	if (BasinMultiset{BasinEDrain: 0}).Key() != "" {
		t.Error("Expected zero counts to be ignored")
	}
}

func TestSinkModel_MaxBasins(t *testing.T) {
	tests := map[SinkModel]int{ModelB1: 1, ModelB2: 2, ModelB3: 3, "T2-B9": 0}
	for model, expected := range tests {
		if got := model.MaxBasins(); got != expected {
			t.Errorf("%s.MaxBasins() = %d, want %d", model, got, expected)
		}
	}
}

func TestPegboardType_Code(t *testing.T) {
	if Perforated.Code() != "PERF" || Solid.Code() != "SOLID" {
		t.Errorf("Unexpected pegboard codes %s %s", Perforated.Code(), Solid.Code())
	}
}

func TestBasinSpec_IsCustom(t *testing.T) {
	if !(BasinSpec{Type: BasinESink}).IsCustom() {
		t.Error("Expected basin without size code to be custom")
	}
	if (BasinSpec{Type: BasinESink, SizeCode: Basin24x20x8}).IsCustom() {
		t.Error("Expected basin with size code not to be custom")
	}
}

func TestBOMNode_WalkAndCount(t *testing.T) {
	root := &BOMNode{ID: "A", Components: []*BOMNode{
		{ID: "B", Components: []*BOMNode{{ID: "D"}}},
		{ID: "C"},
	}}

	var order []PartNumber
	root.Walk(func(n *BOMNode) { order = append(order, n.ID) })

	expected := []PartNumber{"A", "B", "D", "C"}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d nodes, got %d", len(expected), len(order))
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("Walk order[%d] = %s, want %s", i, order[i], expected[i])
		}
	}
	if root.CountNodes() != 4 {
		t.Errorf("Expected 4 nodes, got %d", root.CountNodes())
	}
	if root.IsLeaf() || !root.Components[1].IsLeaf() {
		t.Error("Unexpected leaf classification")
	}
}
