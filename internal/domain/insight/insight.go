// Package insight renders short templated awareness text from driver
// attribution. It is a pure function of its inputs and independent of the
// scoring math, so it can be swapped without touching the engine.
package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/sentrahq/sentra/internal/domain/model"
)

// Templates rotate by calendar day so the text varies over time while a
// recomputation for the same date stays byte-for-byte identical.
var templates = []string{
	"Your %s %s shifted from your usual pattern. These patterns can appear before mental fatigue.",
	"We're noticing changes in %s. Small adjustments often help before things feel heavier.",
	"Your baseline shows recent shifts in %s. This is pattern awareness, not a diagnosis. You're in control.",
}

// Text builds the one-line insight for the given drivers and date.
func Text(drivers []model.DriverContribution, day time.Time) string {
	labels := driverLabels(drivers)
	joined := joinLabels(labels)
	hasHave := "have"
	if len(labels) <= 1 {
		hasHave = "has"
	}

	tpl := templates[day.YearDay()%len(templates)]
	if strings.Count(tpl, "%s") == 2 {
		return fmt.Sprintf(tpl, joined, hasHave)
	}
	return fmt.Sprintf(tpl, joined)
}

func driverLabels(drivers []model.DriverContribution) []string {
	out := make([]string, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, d.Label)
	}
	return out
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return "signals"
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " and " + labels[1]
	default:
		return fmt.Sprintf("%s, %s, and %s", labels[0], labels[1], labels[2])
	}
}
