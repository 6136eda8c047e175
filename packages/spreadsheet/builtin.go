package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Version is reported by the VERSION() function.
const Version = "1.4.0"

// divisionPlaces bounds the fractional digits kept by division and AVERAGE.
const divisionPlaces = 28

// maxRoundPlaces bounds the digits argument of ROUND.
const maxRoundPlaces = divisionPlaces

// BuiltInFunctions contains the eagerly evaluated spreadsheet functions.
// every argument is either a Value or a *CellRange. IF, IFERROR, CHOOSE and
// INDIRECT are lazy and live in the evaluator.
type BuiltInFunctions struct {
	version string
}

// NewDefaultBuiltInFunctions creates a BuiltInFunctions with default
// implementations
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	return &BuiltInFunctions{version: Version}
}

// lazyFunctions are dispatched by the evaluator before arguments are
// evaluated.
var lazyFunctions = map[string]bool{
	"IF":       true,
	"IFERROR":  true,
	"CHOOSE":   true,
	"INDIRECT": true,
}

// rangeFunctions accept range arguments; everything else treats a range
// argument as a type error.
var rangeFunctions = map[string]bool{
	"SUM":         true,
	"MIN":         true,
	"MAX":         true,
	"AVERAGE":     true,
	"COUNT":       true,
	"AND":         true,
	"OR":          true,
	"XOR":         true,
	"CONCATENATE": true,
	"VLOOKUP":     true,
	"HLOOKUP":     true,
}

// eagerFunctions names every function Call dispatches.
var eagerFunctions = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "XOR": true, "EXACT": true,
	"ISBLANK": true, "ISERROR": true, "SUM": true, "MIN": true, "MAX": true,
	"AVERAGE": true, "COUNT": true, "VERSION": true, "CONCATENATE": true,
	"LEN": true, "UPPER": true, "LOWER": true, "TRIM": true, "ABS": true,
	"ROUND": true, "VLOOKUP": true, "HLOOKUP": true,
}

// Has reports whether name is a known function, lazy or eager.
func (bf *BuiltInFunctions) Has(name string) bool {
	name = strings.ToUpper(name)
	return lazyFunctions[name] || eagerFunctions[name]
}

// Call invokes a built-in function by name with the given arguments
func (bf *BuiltInFunctions) Call(name string, args ...any) Value {
	switch strings.ToUpper(name) {
	case "AND":
		return bf.AND(args...)
	case "OR":
		return bf.OR(args...)
	case "NOT":
		return bf.NOT(args...)
	case "XOR":
		return bf.XOR(args...)
	case "EXACT":
		return bf.EXACT(args...)
	case "ISBLANK":
		return bf.ISBLANK(args...)
	case "ISERROR":
		return bf.ISERROR(args...)
	case "SUM":
		return bf.SUM(args...)
	case "MIN":
		return bf.MIN(args...)
	case "MAX":
		return bf.MAX(args...)
	case "AVERAGE":
		return bf.AVERAGE(args...)
	case "COUNT":
		return bf.COUNT(args...)
	case "VERSION":
		return bf.VERSION(args...)
	case "CONCATENATE":
		return bf.CONCATENATE(args...)
	case "LEN":
		return bf.LEN(args...)
	case "UPPER":
		return bf.UPPER(args...)
	case "LOWER":
		return bf.LOWER(args...)
	case "TRIM":
		return bf.TRIM(args...)
	case "ABS":
		return bf.ABS(args...)
	case "ROUND":
		return bf.ROUND(args...)
	case "VLOOKUP":
		return bf.VLOOKUP(args...)
	case "HLOOKUP":
		return bf.HLOOKUP(args...)
	default:
		return ErrorValue(ErrorCodeName, fmt.Sprintf("unknown function: %s", name))
	}
}

func typeError(format string, args ...any) Value {
	return ErrorValue(ErrorCodeValue, fmt.Sprintf(format, args...))
}

// checkForError returns the first error among args, looking inside ranges.
func checkForError(args ...any) (Value, bool) {
	for _, arg := range args {
		switch a := arg.(type) {
		case Value:
			if a.IsError() {
				return a, true
			}
		case *CellRange:
			for v := range a.IterateValues() {
				if v.IsError() {
					return v, true
				}
			}
		}
	}
	return Value{}, false
}

// flatten expands range arguments into their values.
func flatten(args []any) []Value {
	values := make([]Value, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case Value:
			values = append(values, a)
		case *CellRange:
			for v := range a.IterateValues() {
				values = append(values, v)
			}
		}
	}
	return values
}

func scalarArg(arg any) (Value, bool) {
	v, ok := arg.(Value)
	return v, ok
}

func (bf *BuiltInFunctions) booleans(name string, args []any) ([]bool, Value, bool) {
	if len(args) < 1 {
		return nil, typeError("%s takes one or more arguments", name), false
	}
	if errVal, ok := checkForError(args...); ok {
		return nil, errVal, false
	}
	values := flatten(args)
	out := make([]bool, 0, len(values))
	for _, v := range values {
		b, err := toBool(v)
		if err != nil {
			return nil, Value{typ: CellValueTypeError, err: err}, false
		}
		out = append(out, b)
	}
	return out, Value{}, true
}

func (bf *BuiltInFunctions) AND(args ...any) Value {
	values, errVal, ok := bf.booleans("AND", args)
	if !ok {
		return errVal
	}
	result := true
	for _, b := range values {
		result = result && b
	}
	return BoolValue(result)
}

func (bf *BuiltInFunctions) OR(args ...any) Value {
	values, errVal, ok := bf.booleans("OR", args)
	if !ok {
		return errVal
	}
	result := false
	for _, b := range values {
		result = result || b
	}
	return BoolValue(result)
}

func (bf *BuiltInFunctions) XOR(args ...any) Value {
	values, errVal, ok := bf.booleans("XOR", args)
	if !ok {
		return errVal
	}
	result := false
	for _, b := range values {
		result = result != b
	}
	return BoolValue(result)
}

func (bf *BuiltInFunctions) NOT(args ...any) Value {
	if len(args) != 1 {
		return typeError("NOT takes exactly one argument")
	}
	values, errVal, ok := bf.booleans("NOT", args)
	if !ok {
		return errVal
	}
	return BoolValue(!values[0])
}

func (bf *BuiltInFunctions) EXACT(args ...any) Value {
	if len(args) != 2 {
		return typeError("EXACT takes exactly two arguments")
	}
	if errVal, ok := checkForError(args...); ok {
		return errVal
	}
	a, _ := scalarArg(args[0])
	b, _ := scalarArg(args[1])
	left, _ := toText(a)
	right, _ := toText(b)
	return BoolValue(left == right)
}

func (bf *BuiltInFunctions) ISBLANK(args ...any) Value {
	if len(args) != 1 {
		return typeError("ISBLANK takes exactly one argument")
	}
	v, _ := scalarArg(args[0])
	return BoolValue(v.IsEmpty())
}

func (bf *BuiltInFunctions) ISERROR(args ...any) Value {
	if len(args) != 1 {
		return typeError("ISERROR takes exactly one argument")
	}
	v, _ := scalarArg(args[0])
	return BoolValue(v.IsError())
}

// numbers coerces every argument (ranges flattened) to a decimal.
func numbers(args []any) ([]decimal.Decimal, Value, bool) {
	if errVal, ok := checkForError(args...); ok {
		return nil, errVal, false
	}
	values := flatten(args)
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, err := toNumber(v)
		if err != nil {
			return nil, Value{typ: CellValueTypeError, err: err}, false
		}
		out = append(out, d)
	}
	return out, Value{}, true
}

func (bf *BuiltInFunctions) SUM(args ...any) Value {
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	sum := decimal.Zero
	for _, d := range values {
		sum = sum.Add(d)
	}
	return NumberValue(sum)
}

func (bf *BuiltInFunctions) MIN(args ...any) Value {
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	if len(values) == 0 {
		return typeError("MIN of no values")
	}
	return NumberValue(decimal.Min(values[0], values[1:]...))
}

func (bf *BuiltInFunctions) MAX(args ...any) Value {
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	if len(values) == 0 {
		return typeError("MAX of no values")
	}
	return NumberValue(decimal.Max(values[0], values[1:]...))
}

func (bf *BuiltInFunctions) AVERAGE(args ...any) Value {
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	if len(values) == 0 {
		return ErrorValue(ErrorCodeDiv0, "AVERAGE of no values")
	}
	sum := decimal.Zero
	for _, d := range values {
		sum = sum.Add(d)
	}
	return NumberValue(sum.DivRound(decimal.NewFromInt(int64(len(values))), divisionPlaces))
}

// COUNT counts the number values among its arguments.
func (bf *BuiltInFunctions) COUNT(args ...any) Value {
	count := int64(0)
	for _, v := range flatten(args) {
		if v.Type() == CellValueTypeNumber {
			count++
		}
	}
	return NumberValue(decimal.NewFromInt(count))
}

func (bf *BuiltInFunctions) VERSION(args ...any) Value {
	if len(args) != 0 {
		return typeError("VERSION does not take any arguments")
	}
	return TextValue(bf.version)
}

func (bf *BuiltInFunctions) CONCATENATE(args ...any) Value {
	if errVal, ok := checkForError(args...); ok {
		return errVal
	}
	var sb strings.Builder
	for _, v := range flatten(args) {
		s, _ := toText(v)
		sb.WriteString(s)
	}
	return TextValue(sb.String())
}

// textArg validates a single-argument string function.
func textArg(name string, args []any) (string, Value, bool) {
	if len(args) != 1 {
		return "", typeError("%s takes exactly one argument", name), false
	}
	if errVal, ok := checkForError(args...); ok {
		return "", errVal, false
	}
	v, _ := scalarArg(args[0])
	s, _ := toText(v)
	return s, Value{}, true
}

func (bf *BuiltInFunctions) LEN(args ...any) Value {
	s, errVal, ok := textArg("LEN", args)
	if !ok {
		return errVal
	}
	return NumberValue(decimal.NewFromInt(int64(len([]rune(s)))))
}

func (bf *BuiltInFunctions) UPPER(args ...any) Value {
	s, errVal, ok := textArg("UPPER", args)
	if !ok {
		return errVal
	}
	return TextValue(strings.ToUpper(s))
}

func (bf *BuiltInFunctions) LOWER(args ...any) Value {
	s, errVal, ok := textArg("LOWER", args)
	if !ok {
		return errVal
	}
	return TextValue(strings.ToLower(s))
}

func (bf *BuiltInFunctions) TRIM(args ...any) Value {
	s, errVal, ok := textArg("TRIM", args)
	if !ok {
		return errVal
	}
	return TextValue(strings.Join(strings.Fields(s), " "))
}

func (bf *BuiltInFunctions) ABS(args ...any) Value {
	if len(args) != 1 {
		return typeError("ABS takes exactly one argument")
	}
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	return NumberValue(values[0].Abs())
}

// ROUND(number, digits?) rounds half away from zero.
func (bf *BuiltInFunctions) ROUND(args ...any) Value {
	if len(args) < 1 || len(args) > 2 {
		return typeError("ROUND takes one or two arguments")
	}
	values, errVal, ok := numbers(args)
	if !ok {
		return errVal
	}
	places := int32(0)
	if len(values) == 2 {
		digits := values[1]
		if digits.Abs().GreaterThan(decimal.NewFromInt(maxRoundPlaces)) {
			return typeError("ROUND digits %s outside [-%d, %d]", digits, maxRoundPlaces, maxRoundPlaces)
		}
		places = int32(digits.IntPart())
	}
	return NumberValue(values[0].Round(places))
}

// lookupMatches is exact matching: same type and equal payload.
func lookupMatches(key, candidate Value) bool {
	if key.Type() != candidate.Type() {
		return false
	}
	return key.Equal(candidate)
}

// lookupArgs validates (key, range, index) for VLOOKUP and HLOOKUP.
func lookupArgs(name string, args []any) (Value, *CellRange, int, Value, bool) {
	if len(args) != 3 {
		return Value{}, nil, 0, typeError("%s takes exactly three arguments", name), false
	}
	key, ok := scalarArg(args[0])
	if !ok {
		return Value{}, nil, 0, typeError("%s key must be a single value", name), false
	}
	if key.IsError() {
		return Value{}, nil, 0, key, false
	}
	table, ok := args[1].(*CellRange)
	if !ok {
		return Value{}, nil, 0, typeError("%s needs a cell range", name), false
	}
	idxVal, ok := scalarArg(args[2])
	if !ok {
		return Value{}, nil, 0, typeError("%s index must be a single value", name), false
	}
	if idxVal.IsError() {
		return Value{}, nil, 0, idxVal, false
	}
	idx, err := toNumber(idxVal)
	if err != nil {
		return Value{}, nil, 0, Value{typ: CellValueTypeError, err: err}, false
	}
	return key, table, int(idx.IntPart()), Value{}, true
}

// VLOOKUP(key, range, col) scans the first column of range top to bottom
// and returns column col of the first matching row.
func (bf *BuiltInFunctions) VLOOKUP(args ...any) Value {
	key, table, col, errVal, ok := lookupArgs("VLOOKUP", args)
	if !ok {
		return errVal
	}
	bounds := table.GetBounds()
	if col < 1 || col > bounds.Width() {
		return typeError("VLOOKUP column %d is outside the range", col)
	}
	for row := 0; row < bounds.Height(); row++ {
		if lookupMatches(key, table.At(row, 0)) {
			return table.At(row, col-1)
		}
	}
	return typeError("VLOOKUP could not find %s", key.String())
}

// HLOOKUP(key, range, row) scans the first row of range left to right and
// returns row row of the first matching column.
func (bf *BuiltInFunctions) HLOOKUP(args ...any) Value {
	key, table, row, errVal, ok := lookupArgs("HLOOKUP", args)
	if !ok {
		return errVal
	}
	bounds := table.GetBounds()
	if row < 1 || row > bounds.Height() {
		return typeError("HLOOKUP row %d is outside the range", row)
	}
	for col := 0; col < bounds.Width(); col++ {
		if lookupMatches(key, table.At(0, col)) {
			return table.At(row-1, col)
		}
	}
	return typeError("HLOOKUP could not find %s", key.String())
}
