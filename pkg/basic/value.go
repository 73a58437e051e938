package basic

import "strconv"

// Value is the tagged union flowing through the evaluator. A variable's
// runtime form is decided by its value, with the $ name suffix as the sole
// declared type discriminator.
type Value struct {
	Num       float64
	Str       string
	IsNumeric bool
}

// NumberValue wraps a float64 as a numeric Value.
func NumberValue(n float64) Value {
	return Value{Num: n, IsNumeric: true}
}

// StringValue wraps a string as a string Value.
func StringValue(s string) Value {
	return Value{Str: s}
}

// Display returns the value's PRINT representation.
func (v Value) Display() string {
	if v.IsNumeric {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

// Truthy reports whether the value counts as true in an IF condition:
// any non-zero numeric value.
func (v Value) Truthy() bool {
	return v.IsNumeric && v.Num != 0
}

// zeroValueFor returns the auto-vivification value for an unset variable:
// "" for $-suffixed names, 0 otherwise.
func zeroValueFor(name string) Value {
	if isStringName(name) {
		return StringValue("")
	}
	return NumberValue(0)
}

func isStringName(name string) bool {
	return len(name) > 0 && name[len(name)-1] == '$'
}
