package reading

import "testing"

func TestParseDimension_Variants(t *testing.T) {
	cases := map[string]Dimension{
		"Social":             Social,
		"social":             Social,
		"PERSONAL":           Personal,
		"Cognitive":          Cognitive,
		"Knowledge-Building": KnowledgeBuilding,
		"knowledge building": KnowledgeBuilding,
		"knowledgebuilding":  KnowledgeBuilding,
		"Knowledge_Building": KnowledgeBuilding,
	}
	for label, want := range cases {
		got, ok := ParseDimension(label)
		if !ok || got != want {
			t.Errorf("ParseDimension(%q) = (%v, %v), want %v", label, got, ok, want)
		}
	}

	for _, bad := range []string{"", "metacognitive", "knowledge"} {
		if _, ok := ParseDimension(bad); ok {
			t.Errorf("ParseDimension(%q) should fail", bad)
		}
	}
}

func TestDimensions_CanonicalOrder(t *testing.T) {
	want := []string{"Social", "Personal", "Cognitive", "Knowledge-Building"}
	for i, d := range Dimensions {
		if d.String() != want[i] {
			t.Errorf("Dimensions[%d] = %s, want %s", i, d, want[i])
		}
		if int(d) != i {
			t.Errorf("Dimensions[%d] has value %d; canonical order must match enum order", i, int(d))
		}
	}
}
