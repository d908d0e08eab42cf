package editors

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumberSentinel is returned by ParseNumber when no number can be read.
const NumberSentinel = 0.0

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading number of free text such as "0.3s", "24px"
// or "1.5rem". Anything unparseable, NaN or infinite yields NumberSentinel.
func ParseNumber(value any) float64 {
	var out float64
	switch typed := value.(type) {
	case nil:
		return NumberSentinel
	case float64:
		out = typed
	case float32:
		out = float64(typed)
	case int:
		out = float64(typed)
	case int64:
		out = float64(typed)
	case int32:
		out = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return NumberSentinel
		}
		out = parsed
	case string:
		match := leadingNumber.FindString(strings.TrimSpace(typed))
		if match == "" {
			return NumberSentinel
		}
		parsed, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return NumberSentinel
		}
		out = parsed
	default:
		return NumberSentinel
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return NumberSentinel
	}
	return out
}

// ParseInteger is ParseNumber truncated toward zero. Values outside the int
// range yield NumberSentinel.
func ParseInteger(value any) int {
	number := math.Trunc(ParseNumber(value))
	if number < math.MinInt || number >= math.MaxInt {
		return int(NumberSentinel)
	}
	return int(number)
}
