// Package doubler holds the only computation the service performs.
package doubler

import (
	"errors"
	"math"
)

// ErrOverflow is returned when the doubled value does not fit in an int64.
var ErrOverflow = errors.New("value out of range")

// MaxValue and MinValue bound the inputs Double accepts.
const (
	MaxValue = math.MaxInt64 / 2
	MinValue = math.MinInt64 / 2
)

// Double returns value*2, or ErrOverflow when the product would wrap.
func Double(value int64) (int64, error) {
	if value > MaxValue || value < MinValue {
		return 0, ErrOverflow
	}
	return value * 2, nil
}
