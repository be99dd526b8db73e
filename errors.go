package beatmap

import (
	"fmt"
	"strconv"
)

// InvalidGeometryError is returned whenever a geometry value would make the
// seconds to pixels mapping divide by zero or produce NaN. Use errors.As to
// detect it.
type InvalidGeometryError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid geometry: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid geometry: %s = %s", e.Field, strconv.FormatFloat(e.Value, 'g', -1, 64))
}
