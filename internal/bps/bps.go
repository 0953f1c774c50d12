// Package bps normalizes dollar figures into basis points of a reference
// portfolio value.
package bps

import (
	"encoding/json"
	"math"
)

// PerUnit is the number of basis points in 1.0.
const PerUnit = 10_000

// ToBasisPoints returns value / reference × 10,000. It reports false when
// value is unknown, either input is not finite, reference is zero, or the
// result is not finite; callers must render that as "not computable" rather
// than as zero.
func ToBasisPoints(value *float64, reference float64) (float64, bool) {
	if value == nil || !finite(*value) || !finite(reference) || reference == 0 {
		return 0, false
	}
	v := *value / reference * PerUnit
	if !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Value is a basis-point figure that serializes as null when it could not
// be computed.
type Value struct {
	BPS   float64
	Valid bool
}

// Of wraps ToBasisPoints.
func Of(value *float64, reference float64) Value {
	v, ok := ToBasisPoints(value, reference)
	return Value{BPS: v, Valid: ok}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.BPS)
}
