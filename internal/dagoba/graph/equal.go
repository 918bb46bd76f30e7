package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ParseID normalises a caller supplied identifier. Integer-like values
// (1, int64(1), 1.0, json.Number("1")) and the string "1" all map to the
// same ID. nil and the empty string are not identifiers.
func ParseID(v any) (ID, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case ID:
		return x, x != ""
	case string:
		return ID(x), x != ""
	case int:
		return ID(strconv.Itoa(x)), true
	case int8, int16, int32, int64:
		return ID(strconv.FormatInt(reflect.ValueOf(x).Int(), 10)), true
	case uint, uint8, uint16, uint32, uint64:
		return ID(strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)), true
	case float32:
		return formatFloatID(float64(x))
	case float64:
		return formatFloatID(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return formatFloatID(f)
		}
		return ID(x.String()), x != ""
	case bool:
		return "", false
	default:
		return ID(fmt.Sprint(x)), true
	}
}

func formatFloatID(f float64) (ID, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return ID(strconv.FormatFloat(f, 'f', -1, 64)), true
}

// LooseEqual compares two property values the way a scripting language's
// == would: numbers compare numerically regardless of their Go type,
// numeric strings compare equal to the matching number, booleans count as
// 0 and 1, and nil only equals nil.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	fa, aNum := toNumber(a)
	fb, bNum := toNumber(b)
	if aNum && bNum {
		return fa == fb
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	switch {
	case aStr && bStr:
		return sa == sb
	case aStr && bNum:
		f, err := strconv.ParseFloat(strings.TrimSpace(sa), 64)
		return err == nil && f == fb
	case bStr && aNum:
		f, err := strconv.ParseFloat(strings.TrimSpace(sb), 64)
		return err == nil && f == fa
	case aStr || bStr:
		return false
	}

	return reflect.DeepEqual(a, b)
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsObject reports whether v is a property object and returns it as a map.
func AsObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case Props:
		return x, true
	case map[string]any:
		return x, true
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return m, true
	}
	return nil, false
}

// Getter is implemented by vertices and edges: property lookup including
// reserved pseudo-properties such as _id and _label.
type Getter interface {
	Get(key string) (any, bool)
}

// MatchProps reports whether every key/value pair of want loosely equals
// the corresponding property of thing.
func MatchProps(thing Getter, want map[string]any) bool {
	for key, expected := range want {
		got, _ := thing.Get(key)
		if !LooseEqual(got, expected) {
			return false
		}
	}
	return true
}
