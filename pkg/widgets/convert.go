package widgets

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout accepted by the "date" converter.
const DateLayout = "2006-01-02"

func builtinConverters() map[string]Converter {
	return map[string]Converter{
		"trim":  stringConverter(strings.TrimSpace),
		"upper": stringConverter(strings.ToUpper),
		"lower": stringConverter(strings.ToLower),
		"int":   convertInt,
		"float": convertFloat,
		"date":  convertDate,
		"lines": convertLines,
	}
}

func stringConverter(fn func(string) string) Converter {
	return func(value any) (any, error) {
		return fn(stringify(value)), nil
	}
}

func convertInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, Invalid("%v is not a whole number", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, Invalid("%q is not a whole number", v.String())
		}
		return int(n), nil
	}
	text := strings.TrimSpace(stringify(value))
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, Invalid("%q is not a whole number", text)
	}
	return n, nil
}

func convertFloat(value any) (any, error) {
	if f, ok := toFloat(value); ok {
		return f, nil
	}
	text := strings.TrimSpace(stringify(value))
	text = strings.ReplaceAll(text, ",", ".")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, Invalid("%q is not a number", text)
	}
	return f, nil
}

func convertDate(value any) (any, error) {
	if t, ok := value.(time.Time); ok {
		return t, nil
	}
	text := strings.TrimSpace(stringify(value))
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return nil, Invalid("%q is not a valid date (expected YYYY-MM-DD)", text)
	}
	return t, nil
}

func convertLines(value any) (any, error) {
	text := strings.ReplaceAll(stringify(value), "\r\n", "\n")
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// stringify renders a raw value as text; nil becomes the empty string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
