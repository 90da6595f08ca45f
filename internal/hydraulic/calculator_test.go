package hydraulic

import (
	"math"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestCalculate_EmptyCounts(t *testing.T) {
	res := Calculate(Input{Counts: map[string]int{}, Method: MethodM1})

	if res.TotalLU != 0 {
		t.Fatalf("TotalLU = %v, want 0", res.TotalLU)
	}
	if res.TotalLps != 0 {
		t.Fatalf("TotalLps = %v, want 0", res.TotalLps)
	}
	// Zero flow still matches the first table entry (0 <= 2.5).
	if res.RecommendedDN == nil || *res.RecommendedDN != "DN15" {
		t.Fatalf("RecommendedDN = %v, want DN15", res.RecommendedDN)
	}
}

func TestCalculate_UnknownFixturesIgnored(t *testing.T) {
	res := Calculate(Input{
		Counts: map[string]int{"jacuzzi": 4, "fountain": 2},
		Method: MethodM1,
	})
	if res.TotalLU != 0 {
		t.Fatalf("unknown fixtures must contribute nothing, TotalLU = %v", res.TotalLU)
	}
	if res.RecommendedDN == nil || *res.RecommendedDN != "DN15" {
		t.Fatalf("RecommendedDN = %v, want DN15", res.RecommendedDN)
	}
}

func TestCalculate_MethodsDivergeOnFlowNotLU(t *testing.T) {
	counts := map[string]int{"wc": 1}

	m1 := Calculate(Input{Counts: counts, Method: MethodM1})
	m2 := Calculate(Input{Counts: counts, Method: MethodM2})

	if m1.TotalLU != m2.TotalLU {
		t.Fatalf("TotalLU must not depend on method: %v vs %v", m1.TotalLU, m2.TotalLU)
	}
	if m1.TotalLps == m2.TotalLps {
		t.Fatalf("regression curves must differ: both gave %v l/s", m1.TotalLps)
	}
}

func TestCalculate_RoundingIsCeiling(t *testing.T) {
	inputs := []map[string]int{
		{"wc": 1},
		{"wc": 3, "dusche": 2},
		{"badewanne": 5, "waschtisch": 4, "garten": 1},
		{"urinoir": 7, "hydrant": 1},
	}
	for _, counts := range inputs {
		res := Calculate(Input{Counts: counts, Method: MethodM2})

		// Multiple of 0.1 (within float tolerance).
		steps := res.TotalLps / 0.1
		if math.Abs(steps-math.Round(steps)) > 1e-9 {
			t.Fatalf("TotalLps %v is not a multiple of 0.1 for %v", res.TotalLps, counts)
		}

		// Never below the unrounded design flow.
		lu := res.TotalLU
		raw := designFlowBase(MethodM2, lu*0.1)
		if counts["hydrant"] > 0 {
			raw += 0.27
		}
		if res.TotalLps < raw-1e-9 {
			t.Fatalf("TotalLps %v rounded below raw flow %v for %v", res.TotalLps, raw, counts)
		}
	}
}

func TestCalculate_HydrantDefaultInference(t *testing.T) {
	counts := map[string]int{"hydrant": 1}

	inferred := Calculate(Input{Counts: counts, Method: MethodM1})
	explicit := Calculate(Input{Counts: counts, Method: MethodM1, IncludeHydrantExtra: boolPtr(true)})
	disabled := Calculate(Input{Counts: counts, Method: MethodM1, IncludeHydrantExtra: boolPtr(false)})

	if inferred.TotalLps != explicit.TotalLps {
		t.Fatalf("inferred %v != explicit true %v", inferred.TotalLps, explicit.TotalLps)
	}
	// Hydrant carries zero LU, so the allowance is the entire flow:
	// 0.27 l/s pre-rounding, 0.3 after ceiling.
	if inferred.TotalLps != 0.3 {
		t.Fatalf("TotalLps = %v, want 0.3", inferred.TotalLps)
	}
	if disabled.TotalLps != 0 {
		t.Fatalf("disabled hydrant extra: TotalLps = %v, want 0", disabled.TotalLps)
	}
}

func TestCalculate_HydrantExtraOverrideWithoutHydrant(t *testing.T) {
	res := Calculate(Input{
		Counts:              map[string]int{"wc": 1},
		Method:              MethodM1,
		IncludeHydrantExtra: boolPtr(true),
	})
	base := Calculate(Input{
		Counts:              map[string]int{"wc": 1},
		Method:              MethodM1,
		IncludeHydrantExtra: boolPtr(false),
	})
	if res.TotalLps <= base.TotalLps {
		t.Fatalf("explicit hydrant extra must raise the flow: %v vs %v", res.TotalLps, base.TotalLps)
	}
}

func TestRecommendDiameter_Boundaries(t *testing.T) {
	cases := []struct {
		m3   float64
		want string // "" means nil
	}{
		{0, "DN15"},
		{2.5, "DN15"},
		{2.5000001, "DN20"},
		{4.0, "DN20"},
		{6.3, "DN25"},
		{10.0, "DN32"},
		{16.0, "DN40"},
		{25.0, "DN50"},
		{25.0001, ""},
	}
	for _, tc := range cases {
		got := recommendDiameter(tc.m3)
		if tc.want == "" {
			if got != nil {
				t.Fatalf("recommendDiameter(%v) = %q, want nil", tc.m3, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("recommendDiameter(%v) = %v, want %q", tc.m3, got, tc.want)
		}
	}
}

func TestCalculate_VolumetricConversion(t *testing.T) {
	res := Calculate(Input{Counts: map[string]int{"dusche": 3}, Method: MethodM1})
	want := res.TotalLps * 3.6
	if math.Abs(res.TotalM3PerHour-want) > 1e-12 {
		t.Fatalf("TotalM3PerHour = %v, want %v", res.TotalM3PerHour, want)
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("badewanne"); !ok {
		t.Fatalf("badewanne missing from catalog")
	}
	if _, ok := Lookup("nonexistent"); ok {
		t.Fatalf("unexpected catalog hit for unknown id")
	}
	if len(AllFixtures) != 13 {
		t.Fatalf("catalog size = %d, want 13", len(AllFixtures))
	}
}
