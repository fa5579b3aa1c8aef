package capability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of result shapes a capability can produce.
// Decay stages switch on it instead of sniffing runtime types.
type Kind int

const (
	KindOther Kind = iota
	KindNumber
	KindText
	KindSequence
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindBool:
		return "bool"
	default:
		return "other"
	}
}

// Value is the tagged-union result of a capability execution.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind     Kind
	Number   float64
	Text     string
	Sequence []string
	Bool     bool
}

// Number wraps a numeric result.
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// Text wraps a text result.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Sequence wraps an ordered-collection result.
func Sequence(items []string) Value { return Value{Kind: KindSequence, Sequence: items} }

// Bool wraps a boolean result.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// None is the absent value for KindOther results.
func None() Value { return Value{Kind: KindOther} }

// Zero returns the fixed default for a result kind. Stubbed capabilities
// return this in place of real work.
func Zero(k Kind) Value {
	switch k {
	case KindNumber:
		return Number(0)
	case KindText:
		return Text("")
	case KindSequence:
		return Sequence([]string{})
	case KindBool:
		return Bool(false)
	default:
		return None()
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindSequence:
		return "[" + strings.Join(v.Sequence, ", ") + "]"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "<none>"
	}
}

// MarshalJSON renders the active variant, for the status API.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.Number, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(v.Text)
	case KindSequence:
		if v.Sequence == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Sequence)
	case KindBool:
		return []byte(strconv.FormatBool(v.Bool)), nil
	default:
		return []byte("null"), nil
	}
}

// Func is a capability implementation. Arguments are optional; the
// built-in catalogue ignores them.
type Func func(args ...Value) (Value, error)

// Outcome is the result of executing a capability through the registry.
// Unavailable marks the defined no-result cases (deleted capability,
// caught execution failure) that are not caller errors.
type Outcome struct {
	Value       Value
	Unavailable bool
}

func (o Outcome) String() string {
	if o.Unavailable {
		return "<unavailable>"
	}
	return fmt.Sprintf("%v", o.Value)
}
