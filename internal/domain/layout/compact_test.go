package layout

import (
	"reflect"
	"testing"
)

func positionsOf(elements []CustomElement) map[string]float64 {
	out := make(map[string]float64, len(elements))
	for _, el := range elements {
		out[el.ID] = el.Position.EffectiveOrder()
	}
	return out
}

func TestCompactRenumbersEachBucket(t *testing.T) {
	input := []CustomElement{
		{ID: "m2", Position: At(70)},
		{ID: "m1", Position: At(15)},
		{ID: "ms", Position: Named(SymbolMiddle)},
		{ID: "t1", Position: At(7)},
		{ID: "b1", Position: At(450)},
		{ID: "f1", Position: At(2500)},
		{ID: "h-before", Position: At(-14)},
		{ID: "h-after", Position: At(-3)},
	}

	got := positionsOf(Compact(input))
	want := map[string]float64{
		"h-before": -11,
		"h-after":  -10,
		"t1":       0,
		"m1":       10,
		"ms":       50,
		"m2":       51,
		"b1":       100,
		"f1":       1000,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compact = %v, want %v", got, want)
	}
}

func TestCompactPreservesPartition(t *testing.T) {
	input := []CustomElement{
		{ID: "a", Position: At(-30)},
		{ID: "b", Position: At(-25)},
		{ID: "c", Position: At(-1)},
		{ID: "d", Position: Named(SymbolTop)},
		{ID: "e", Position: At(3)},
		{ID: "f", Position: Named(SymbolBottom)},
	}

	before, after := Partition(input), Partition(Compact(input))
	for _, b := range Buckets {
		if !reflect.DeepEqual(idsOf(before.In(b)), idsOf(after.In(b))) {
			t.Errorf("bucket %s: %v -> %v", b, idsOf(before.In(b)), idsOf(after.In(b)))
		}
	}
	if !reflect.DeepEqual(idsOf(before.BeforeLogo()), idsOf(after.BeforeLogo())) {
		t.Errorf("before-logo membership changed: %v", idsOf(after.BeforeLogo()))
	}
}

func TestRenumberShrinksStepWhenCrowded(t *testing.T) {
	var crowded []CustomElement
	for i := 0; i < 20; i++ {
		crowded = append(crowded, CustomElement{ID: string(rune('a' + i)), Position: At(5)})
	}

	out := Renumber(BucketTop, crowded)
	for i, el := range out {
		if el.Bucket() != BucketTop {
			t.Fatalf("element %d escaped the top bucket at %v", i, el.Position.Value())
		}
		if i > 0 && el.Position.Value() <= out[i-1].Position.Value() {
			t.Fatalf("positions not increasing at %d", i)
		}
	}
	if crowded[0].Position.Value() != 5 {
		t.Error("Renumber modified its input")
	}
}

func TestCompactKeepsSymbolicPositions(t *testing.T) {
	input := []CustomElement{
		{ID: "b2", Position: At(300)},
		{ID: "sb", Position: Named(SymbolBottom)},
		{ID: "st", Position: Named(SymbolTop)},
		{ID: "x", Position: Named("sidebar")},
	}

	for _, el := range Compact(input) {
		if !el.Position.IsSymbolic() && el.ID != "b2" {
			t.Errorf("%s became numeric: %v", el.ID, el.Position)
		}
	}
}

func TestRenumberFitsAroundSymbolic(t *testing.T) {
	tests := []struct {
		name  string
		in    []CustomElement
		order []string
	}{
		{
			name:  "numeric before symbolic middle",
			in:    []CustomElement{{ID: "a", Position: At(90)}, {ID: "s", Position: Named(SymbolMiddle)}, {ID: "b", Position: At(95)}},
			order: []string{"a", "s", "b"},
		},
		{
			name:  "symbolic middle first",
			in:    []CustomElement{{ID: "s", Position: Named(SymbolMiddle)}, {ID: "a", Position: At(20)}},
			order: []string{"s", "a"},
		},
		{
			name:  "numeric ahead of symbolic bottom",
			in:    []CustomElement{{ID: "a", Position: At(500)}, {ID: "b", Position: At(600)}, {ID: "s", Position: Named(SymbolBottom)}},
			order: []string{"a", "b", "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Renumber(Classify(tt.in[0].Position), tt.in)
			if got := idsOf(SortBucket(out)); !reflect.DeepEqual(got, tt.order) {
				t.Errorf("render order = %v, want %v", got, tt.order)
			}
			for _, el := range out {
				if el.Bucket() != Classify(tt.in[0].Position) {
					t.Errorf("%s left its bucket: %v", el.ID, el.Position)
				}
			}
		})
	}
}

func TestCompactPreservesResolvedStyle(t *testing.T) {
	input := []CustomElement{
		{ID: "sb", Type: TypeText, Position: Named(SymbolBottom)},
		{ID: "n5", Type: TypeText, Position: At(5)},
		{ID: "m", Type: TypeText, Position: At(60)},
		{ID: "b", Type: TypeText, Position: At(400)},
		{ID: "f", Type: TypeText, Position: At(1200)},
		{ID: "h", Type: TypeText, Position: At(-40)},
	}

	styles := func(elements []CustomElement) map[string]string {
		out := make(map[string]string, len(elements))
		for _, el := range elements {
			out[el.ID] = ResolveStyle(el, el.Bucket()).String()
		}
		return out
	}

	before, after := styles(input), styles(Compact(input))
	for id, want := range before {
		if after[id] != want {
			t.Errorf("%s style changed:\n before %s\n after  %s", id, want, after[id])
		}
	}
}
