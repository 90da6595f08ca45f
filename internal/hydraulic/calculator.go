package hydraulic

import "math"

// Method selects the empirical regression curve used to convert the total
// loading units into a peak design flow.
type Method string

const (
	// MethodM1 is the steeper regression curve (qt^0.353 × 0.459).
	MethodM1 Method = "m1"
	// MethodM2 is the flatter regression curve (qt^0.257 × 0.598).
	MethodM2 Method = "m2"
)

// ValidMethod reports whether m is one of the supported regression methods.
func ValidMethod(m Method) bool { return m == MethodM1 || m == MethodM2 }

const (
	// hydrantID is the catalog id whose presence enables the hydrant
	// allowance by default.
	hydrantID = "hydrant"

	// hydrantExtraLps is the fixed allowance for a fire hydrant outlet.
	hydrantExtraLps = 0.27

	// luToLpsFactor converts loading units to the theoretical flow qt.
	luToLpsFactor = 0.1

	// lpsToM3PerHour converts liters/second to cubic meters/hour.
	lpsToM3PerHour = 3.6

	// flowStepLps is the granularity the design flow is rounded up to.
	flowStepLps = 0.1
)

// diameterCapacity pairs a nominal diameter label with the maximum flow it
// can carry, in m³/h. The table must stay ascending by capacity.
type diameterCapacity struct {
	DN string
	Q3 float64
}

// diameterTable is the Swiss sizing-table capacity lookup used to recommend
// a pipe size.
var diameterTable = []diameterCapacity{
	{DN: "DN15", Q3: 2.5},
	{DN: "DN20", Q3: 4.0},
	{DN: "DN25", Q3: 6.3},
	{DN: "DN32", Q3: 10.0},
	{DN: "DN40", Q3: 16.0},
	{DN: "DN50", Q3: 25.0},
}

// Input carries the per-request parameters of a sizing calculation.
type Input struct {
	// Counts maps a fixture id to how many of that fixture are installed.
	// Unknown ids are skipped, not rejected.
	Counts map[string]int `json:"counts"`
	// Method selects the regression curve (m1 or m2).
	Method Method `json:"method"`
	// IncludeHydrantExtra overrides the hydrant allowance. When nil the
	// allowance is inferred from a positive "hydrant" count.
	IncludeHydrantExtra *bool `json:"includeHydrantExtra,omitempty"`
}

// Result holds the aggregated sizing outcome. It is recomputed fresh on
// every call and never updated incrementally.
type Result struct {
	// TotalLU is the summed loading-unit weight of all known fixtures.
	TotalLU float64 `json:"totalLU"`
	// TotalLps is the design flow in l/s, rounded up to 0.1.
	TotalLps float64 `json:"totalLps"`
	// TotalM3PerHour is TotalLps converted to m³/h.
	TotalM3PerHour float64 `json:"totalM3PerHour"`
	// RecommendedDN is the first diameter whose capacity covers the flow,
	// or nil when the flow exceeds the table.
	RecommendedDN *string `json:"dn"`
}

// Calculate converts fixture counts into a design flow and a recommended
// nominal diameter. It is total: any input shape yields a well-defined
// result, and degenerate inputs produce a zero-ish result rather than an
// error. Unknown fixture ids contribute nothing.
func Calculate(in Input) Result {
	totalLU := totalLoadingUnits(in.Counts)
	qt := totalLU * luToLpsFactor
	base := designFlowBase(in.Method, qt)

	includeHydrant := false
	if in.IncludeHydrantExtra != nil {
		includeHydrant = *in.IncludeHydrantExtra
	} else {
		includeHydrant = in.Counts[hydrantID] > 0
	}

	total := base
	if includeHydrant {
		total += hydrantExtraLps
	}

	// Ceiling to the flow step is a safety margin, never cosmetic rounding.
	rounded := ceilTo(total, flowStepLps)
	m3 := rounded * lpsToM3PerHour

	return Result{
		TotalLU:        totalLU,
		TotalLps:       rounded,
		TotalM3PerHour: m3,
		RecommendedDN:  recommendDiameter(m3),
	}
}

// totalLoadingUnits sums count × (cold + hot) over every known fixture with
// a positive count. Negative counts pass through unguarded, matching the
// permissive contract of the calculator.
func totalLoadingUnits(counts map[string]int) float64 {
	var sum float64
	for id, count := range counts {
		if count == 0 {
			continue
		}
		f, ok := fixtureMap[id]
		if !ok {
			continue
		}
		sum += float64(count) * (f.ColdLU + f.HotLU)
	}
	return sum
}

// designFlowBase applies the selected regression curve to the theoretical
// flow qt. Flows at or below zero map to zero.
func designFlowBase(m Method, qt float64) float64 {
	if qt <= 0 {
		return 0
	}
	if m == MethodM1 {
		return math.Pow(qt, 0.353) * 0.459
	}
	return math.Pow(qt, 0.257) * 0.598
}

// ceilTo rounds value up to the next multiple of step.
func ceilTo(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Ceil(value/step) * step
}

// recommendDiameter walks the ascending capacity table and returns the first
// diameter able to carry the flow. A flow beyond the table yields nil; that
// is a legitimate out-of-range outcome, not an error.
func recommendDiameter(m3PerHour float64) *string {
	for _, row := range diameterTable {
		if m3PerHour <= row.Q3 {
			dn := row.DN
			return &dn
		}
	}
	return nil
}
