// Package zoning holds the static zoning table and derived building parameters.
package zoning

// Rule is the set of development limits for one zoning code.
type Rule struct {
	Code              string  `json:"code" yaml:"code"`
	MinSetback        string  `json:"min_setback" yaml:"min_setback"`
	MinLotArea        string  `json:"min_lot_area" yaml:"min_lot_area"`
	MinFrontage       string  `json:"min_frontage" yaml:"min_frontage"`
	FloorAreaRatio    float64 `json:"floor_area_ratio" yaml:"floor_area_ratio"`
	OccupationRatio   float64 `json:"occupation_ratio" yaml:"occupation_ratio"`
	PermeabilityRatio float64 `json:"permeability_ratio" yaml:"permeability_ratio"`
	MaxFloors         int     `json:"max_floors" yaml:"max_floors"`
}

// Table is a read-only lookup of rules keyed by zoning code.
// It is safe for concurrent use.
type Table struct {
	byCode map[string]int
	rules  []Rule
}

var defaultRules = []Rule{
	{Code: "ZR1", FloorAreaRatio: 1.5, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 3, MinSetback: "5 m", MinLotArea: "360 m²", MinFrontage: "12 m"},
	{Code: "ZR2", FloorAreaRatio: 1.0, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 2, MinSetback: "5 m", MinLotArea: "360 m²", MinFrontage: "12 m"},
	{Code: "ZR3", FloorAreaRatio: 1.0, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 2, MinSetback: "5 m", MinLotArea: "360 m²", MinFrontage: "12 m"},
	{Code: "ZR4", FloorAreaRatio: 1.0, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 2, MinSetback: "5 m", MinLotArea: "360 m²", MinFrontage: "12 m"},
	{Code: "ZR5", FloorAreaRatio: 1.0, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 2, MinSetback: "5 m", MinLotArea: "360 m²", MinFrontage: "12 m"},
	{Code: "ZUM", FloorAreaRatio: 2.0, OccupationRatio: 0.70, PermeabilityRatio: 0.20, MaxFloors: 6, MinSetback: "5 m", MinLotArea: "300 m²", MinFrontage: "12 m"},
	{Code: "ZC", FloorAreaRatio: 3.0, OccupationRatio: 0.80, PermeabilityRatio: 0.15, MaxFloors: 8, MinSetback: "5 m", MinLotArea: "300 m²", MinFrontage: "12 m"},
	{Code: "ZPI", FloorAreaRatio: 2.5, OccupationRatio: 0.60, PermeabilityRatio: 0.25, MaxFloors: 6, MinSetback: "10 m", MinLotArea: "1.000 m²", MinFrontage: "20 m"},
	{Code: "ZOE", FloorAreaRatio: 1.0, OccupationRatio: 0.50, PermeabilityRatio: 0.30, MaxFloors: 3, MinSetback: "5 m", MinLotArea: "500 m²", MinFrontage: "15 m"},
	{Code: "ZPDS", FloorAreaRatio: 0.5, OccupationRatio: 0.20, PermeabilityRatio: 0.50, MaxFloors: 2, MinSetback: "10 m", MinLotArea: "2.000 m²", MinFrontage: "30 m"},
}

var defaultTable = NewTable(defaultRules)

// Default returns the built-in zoning table shared by all requests.
func Default() *Table {
	return defaultTable
}

// NewTable builds a table from rules. On duplicate codes the first rule wins.
func NewTable(rules []Rule) *Table {
	t := &Table{
		byCode: make(map[string]int, len(rules)),
		rules:  make([]Rule, 0, len(rules)),
	}

	for _, r := range rules {
		if _, ok := t.byCode[r.Code]; ok {
			continue
		}
		t.byCode[r.Code] = len(t.rules)
		t.rules = append(t.rules, r)
	}

	return t
}

// Lookup returns the rule for code. Matching is exact: callers must trim
// the code themselves, and there is no fallback rule.
func (t *Table) Lookup(code string) (Rule, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return Rule{}, false
	}

	return t.rules[i], true
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}
