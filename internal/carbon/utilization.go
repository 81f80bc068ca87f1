package carbon

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseUtilization parses a CPU utilization given either as a fraction
// ("0.75") or as a percentage ("75%"). The result must fall within [0, 1];
// out-of-range values are rejected rather than clamped.
func ParseUtilization(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty cpu utilization", ErrInvalidInput)
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cpu utilization %q: %v", ErrInvalidInput, s, err)
	}
	v /= scale

	if err := nonNegative("cpu_utilization", v); err != nil {
		return 0, err
	}
	if v > 1 {
		return 0, fmt.Errorf("%w: cpu_utilization must be within [0, 1], got %g", ErrInvalidInput, v)
	}
	return v, nil
}

