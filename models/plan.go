package models

// PlanStep is one stage of the fixed five-week step-down plan.
type PlanStep struct {
	Week    int `json:"week"`
	MinCups int `json:"minCups"`
	MaxCups int `json:"maxCups"`
}

// PlanSteps is the single authoritative allowance table.
// Week numbers are strictly increasing, allowances strictly non-increasing.
// Every limit computation in the app must go through this table; do not
// redefine it elsewhere.
var PlanSteps = [5]PlanStep{
	{Week: 1, MinCups: 3, MaxCups: 4},
	{Week: 2, MinCups: 2, MaxCups: 3},
	{Week: 3, MinCups: 1, MaxCups: 2},
	{Week: 4, MinCups: 0, MaxCups: 1},
	{Week: 5, MinCups: 0, MaxCups: 0},
}
