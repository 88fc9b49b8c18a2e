// Package validate turns an extracted score object into a safe Result.
package validate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/sway/internal/domain/model"
)

// Score object keys.
const (
	KeyPersuasive = "persuasive"
	KeyEmpathy    = "empathy"
)

// Validate maps an extraction outcome to a Result. Any missing object,
// failed coercion or out-of-range value yields the zero result for both axes.
func Validate(obj map[string]any, ok bool) model.Result {
	r, valid := Check(obj, ok)
	if !valid {
		return model.ZeroResult()
	}
	return r
}

// Check is Validate that also reports whether the object was accepted.
func Check(obj map[string]any, ok bool) (model.Result, bool) {
	if !ok || obj == nil {
		return model.ZeroResult(), false
	}
	p, okP := Coerce(obj[KeyPersuasive])
	e, okE := Coerce(obj[KeyEmpathy])
	if !okP || !okE {
		return model.ZeroResult(), false
	}
	r := model.Result{Persuasive: p, Empathy: e}
	if !r.InRange() {
		return model.ZeroResult(), false
	}
	return r, true
}

// Coerce converts a decoded JSON value to an integer.
// Integers pass through, finite numbers truncate toward zero, booleans are
// 1 or 0 and strings must hold a base-10 integer. Everything else fails.
func Coerce(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return fromInt64(x)
	case float64:
		return fromFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return fromInt64(i)
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return fromInt64(i)
	default:
		return 0, false
	}
}

func fromInt64(i int64) (int, bool) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		// Far outside the score range either way.
		return 0, false
	}
	return int(i), true
}

func fromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt32+1 || f <= math.MinInt32-1 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
