package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the scalar held by a Value
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindTime
)

// String returns the kind name used in summaries
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single cell: a number, text, a date or an explicit null
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Time time.Time
}

// Null returns the explicit missing value
func Null() Value { return Value{Kind: KindNull} }

// Number wraps a float; NaN and Inf become null
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps a string; blank strings become null
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Null()
	}
	return Value{Kind: KindText, Str: s}
}

// Time wraps a timestamp; the zero time becomes null
func Time(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return Value{Kind: KindTime, Time: t}
}

// IsNull reports whether the value is missing
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric reading of the value. Text is parsed leniently so
// numeric columns loaded as strings still work; dates and nulls are not numbers.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Timestamp returns the temporal reading of the value, parsing text dates
func (v Value) Timestamp() (time.Time, bool) {
	switch v.Kind {
	case KindTime:
		return v.Time, true
	case KindText:
		return ParseTime(v.Str)
	default:
		return time.Time{}, false
	}
}

// Label returns the categorical reading of the value
func (v Value) Label() (string, bool) {
	switch v.Kind {
	case KindText:
		return v.Str, true
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	case KindTime:
		return v.Time.Format(time.RFC3339), true
	default:
		return "", false
	}
}

// String renders the value for logs and hashing
func (v Value) String() string {
	if label, ok := v.Label(); ok {
		return label
	}
	return "<null>"
}

// ValueOf converts a loosely typed Go value (as decoded from JSON) into a Value
func ValueOf(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Text(t.String())
	case bool:
		return Text(strconv.FormatBool(t))
	case time.Time:
		return Time(t)
	case string:
		return Text(t)
	default:
		return Text(fmt.Sprintf("%v", t))
	}
}

// MarshalJSON renders numbers as JSON numbers, dates as RFC3339 and null as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Str)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON scalar
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// timeLayouts are tried in order when parsing text dates
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"2006-01-02T15:04:05.000Z",
}

// ParseTime parses the date formats commonly found in uploaded spreadsheets
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
