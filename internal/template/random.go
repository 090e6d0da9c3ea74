package template

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// BoundError reports invalid ${randomInt(…)} bounds.
type BoundError struct {
	Detail string
}

func (e *BoundError) Error() string {
	return e.Detail
}

// parseMinMax validates randomInt arguments. Both must fit a signed
// 32-bit integer; min defaults to 0, max to math.MaxInt32.
func parseMinMax(minStr, maxStr string) (int32, int32, error) {
	min := int64(0)
	max := int64(math.MaxInt32)

	if minStr != "" {
		parsed, err := strconv.ParseInt(minStr, 10, 32)
		if err != nil {
			return 0, 0, &BoundError{Detail: fmt.Sprintf("min param out of bounds: %d..%d", math.MinInt32, math.MaxInt32)}
		}
		min = parsed
	}
	if maxStr != "" {
		parsed, err := strconv.ParseInt(maxStr, 10, 32)
		if err != nil {
			return 0, 0, &BoundError{Detail: fmt.Sprintf("max param out of bounds: %d..%d", math.MinInt32, math.MaxInt32)}
		}
		max = parsed
	}
	if max < min {
		return 0, 0, &BoundError{Detail: "min cannot be greater than max"}
	}
	return int32(min), int32(max), nil
}

// randomInt draws uniformly from [min, max). An empty range yields min.
func randomInt(min, max int32) string {
	span := int64(max) - int64(min)
	if span == 0 {
		return strconv.FormatInt(int64(min), 10)
	}
	return strconv.FormatInt(int64(min)+rand.Int63n(span), 10)
}
