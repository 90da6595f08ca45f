// Package hydraulic implements the drinking-water sizing engine used by the
// plumber tools: a static fixture catalog with loading-unit weights and a
// pure calculator that converts fixture counts into a peak design flow and a
// recommended nominal pipe diameter.
//
// All functions in this package are side-effect free and safe for concurrent
// use; the catalog is built once at package initialization and never mutated.
package hydraulic

// Fixture describes a single plumbing fixture and its cold/hot loading-unit
// weights. The LU values are dimensionless demand weights taken from the
// sizing tables used by Swiss installers.
type Fixture struct {
	// ID is the stable catalog key referenced by calculation inputs.
	ID string `json:"id"`
	// Name is the German display name shown in the calculator UI.
	Name string `json:"name"`
	// ColdLU is the cold-water loading-unit weight.
	ColdLU float64 `json:"lu_cold"`
	// HotLU is the hot-water loading-unit weight.
	HotLU float64 `json:"lu_warm"`
}

// Catalog sections. The grouping is presentational only; the calculator
// resolves every fixture through the flattened lookup map.
var (
	// SanitaryFixtures covers the standard bathroom fixtures.
	SanitaryFixtures = []Fixture{
		{ID: "wc", Name: "WC-Spülkasten", ColdLU: 1, HotLU: 0},
		{ID: "waschtisch", Name: "Waschtisch", ColdLU: 1, HotLU: 1},
		{ID: "dusche", Name: "Dusche", ColdLU: 2, HotLU: 2},
		{ID: "badewanne", Name: "Badewanne", ColdLU: 3, HotLU: 3},
		{ID: "bidet", Name: "Bidet", ColdLU: 1, HotLU: 1},
		{ID: "urinoir", Name: "Urinoir Spülung automatisch", ColdLU: 3, HotLU: 0},
	}

	// OutdoorFixtures covers balcony, garden, and utility taps.
	OutdoorFixtures = []Fixture{
		{ID: "balkon", Name: "Entnahmearmatur für Balkon", ColdLU: 2, HotLU: 0},
		{ID: "garten", Name: "Entnahmearmatur Garten und Garage", ColdLU: 5, HotLU: 0},
		{ID: "waschrinne", Name: "Waschrinne", ColdLU: 1, HotLU: 1},
		{ID: "waschtrog", Name: "Waschtrog", ColdLU: 2, HotLU: 2},
	}

	// CommercialFixtures covers light commercial equipment.
	CommercialFixtures = []Fixture{
		{ID: "automat", Name: "Getränkeautomat", ColdLU: 1, HotLU: 0},
		{ID: "coiffeur", Name: "Coiffeurbrause", ColdLU: 1, HotLU: 1},
	}

	// SafetyFixtures covers fire-safety outlets. The hydrant carries no LU
	// weight; it contributes a fixed flow allowance instead (see Calculate).
	SafetyFixtures = []Fixture{
		{ID: "hydrant", Name: "Wasserlöschposten", ColdLU: 0, HotLU: 0},
	}
)

// AllFixtures is the flattened catalog in presentation order.
var AllFixtures = concat(SanitaryFixtures, OutdoorFixtures, CommercialFixtures, SafetyFixtures)

// fixtureMap resolves a fixture id to its definition. Built once at init.
var fixtureMap = func() map[string]Fixture {
	m := make(map[string]Fixture, len(AllFixtures))
	for _, f := range AllFixtures {
		m[f.ID] = f
	}
	return m
}()

// Lookup returns the fixture definition for id. The second return value
// reports whether the id exists in the catalog.
func Lookup(id string) (Fixture, bool) {
	f, ok := fixtureMap[id]
	return f, ok
}

// Sections returns the catalog grouped for UI presentation.
func Sections() map[string][]Fixture {
	return map[string][]Fixture{
		"sanitary":   SanitaryFixtures,
		"outdoor":    OutdoorFixtures,
		"commercial": CommercialFixtures,
		"safety":     SafetyFixtures,
	}
}

func concat(groups ...[]Fixture) []Fixture {
	var out []Fixture
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
