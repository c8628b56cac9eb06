package services

import (
	"math"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
)

const millisPerDay = 24 * 60 * 60 * 1000

// CurrentStep computes which week of the step-down plan a user is on.
// The difference is taken as an absolute value so a plan start recorded
// slightly in the future (clock skew between app instances) still yields a
// valid step instead of a negative one.
// The result changes the instant the elapsed time crosses a 7-day multiple,
// so callers must recompute on every check rather than cache it.
func CurrentStep(planStart time.Time, now time.Time) int {
	diff := now.Sub(planStart)
	if diff < 0 {
		diff = -diff
	}
	elapsedDays := math.Ceil(float64(diff.Milliseconds()) / millisPerDay)
	step := int(math.Ceil(elapsedDays / 7))
	if step < 1 {
		step = 1
	}
	if step > len(models.PlanSteps) {
		step = len(models.PlanSteps)
	}
	return step
}

// StepAllowance returns the cup allowance for a plan step.
// An unknown step falls back to the strictest (last) entry, so a bogus value
// can never grant a larger allowance than the plan end state.
func StepAllowance(step int) models.PlanStep {
	for _, s := range models.PlanSteps {
		if s.Week == step {
			return s
		}
	}
	return models.PlanSteps[len(models.PlanSteps)-1]
}
