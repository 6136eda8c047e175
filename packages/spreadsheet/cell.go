package spreadsheet

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrorCode represents the spreadsheet error kinds a cell value can hold.
// the numeric order is significant: sorting ranks errors by it.
type ErrorCode uint8

const (
	ErrorCodeParse    ErrorCode = 1 // #ERROR! - formula could not be parsed
	ErrorCodeCircular ErrorCode = 2 // #CIRCREF! - cell takes part in a cycle
	ErrorCodeRef      ErrorCode = 3 // #REF! - invalid cell or sheet reference
	ErrorCodeName     ErrorCode = 4 // #NAME? - unrecognized function name
	ErrorCodeValue    ErrorCode = 5 // #VALUE! - wrong type of argument or operand
	ErrorCodeDiv0     ErrorCode = 6 // #DIV/0! - division by zero
)

// ErrorMapper maps error codes to their literal tokens
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeParse:    "#ERROR!",
	ErrorCodeCircular: "#CIRCREF!",
	ErrorCodeRef:      "#REF!",
	ErrorCodeName:     "#NAME?",
	ErrorCodeValue:    "#VALUE!",
	ErrorCodeDiv0:     "#DIV/0!",
}

var errorTokens = func() map[string]ErrorCode {
	m := make(map[string]ErrorCode, len(ErrorMapper))
	for code, token := range ErrorMapper {
		m[token] = code
	}
	return m
}()

// ErrorCodeFromToken recognizes a literal error token, case-insensitively.
func ErrorCodeFromToken(s string) (ErrorCode, bool) {
	code, ok := errorTokens[strings.ToUpper(strings.TrimSpace(s))]
	return code, ok
}

// SpreadsheetError is the payload of an error value. Message carries detail
// for humans; only ErrorCode takes part in comparisons.
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
}

func (e *SpreadsheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &SpreadsheetError{
		ErrorCode: code,
		Message:   message,
	}
}

// CellType is the kind of a Value.
type CellType uint8

const (
	CellValueTypeEmpty   CellType = 0
	CellValueTypeNumber  CellType = 1
	CellValueTypeString  CellType = 2
	CellValueTypeBoolean CellType = 4
	CellValueTypeError   CellType = 5
)

func (t CellType) String() string {
	switch t {
	case CellValueTypeEmpty:
		return "empty"
	case CellValueTypeNumber:
		return "number"
	case CellValueTypeString:
		return "text"
	case CellValueTypeBoolean:
		return "boolean"
	case CellValueTypeError:
		return "error"
	}
	return "unknown"
}

// Value is a computed cell value: empty, number, text, boolean or error.
// the zero Value is empty.
type Value struct {
	typ CellType
	num decimal.Decimal
	str string
	b   bool
	err *SpreadsheetError
}

func EmptyValue() Value { return Value{} }

// NumberValue stores d in normalized form.
func NumberValue(d decimal.Decimal) Value {
	return Value{typ: CellValueTypeNumber, num: normalizeDecimal(d)}
}

func TextValue(s string) Value { return Value{typ: CellValueTypeString, str: s} }

func BoolValue(b bool) Value { return Value{typ: CellValueTypeBoolean, b: b} }

func ErrorValue(code ErrorCode, message string) Value {
	return Value{typ: CellValueTypeError, err: NewSpreadsheetError(code, message)}
}

func (v Value) Type() CellType { return v.typ }

func (v Value) IsEmpty() bool { return v.typ == CellValueTypeEmpty }

func (v Value) IsError() bool { return v.typ == CellValueTypeError }

// Number returns the decimal payload; zero unless Type is number.
func (v Value) Number() decimal.Decimal { return v.num }

// Text returns the string payload; "" unless Type is text.
func (v Value) Text() string { return v.str }

func (v Value) Bool() bool { return v.b }

// Err returns the error payload, nil unless Type is error.
func (v Value) Err() *SpreadsheetError { return v.err }

// ErrorCode returns the error kind, 0 unless Type is error.
func (v Value) ErrorCode() ErrorCode {
	if v.err == nil {
		return 0
	}
	return v.err.ErrorCode
}

// Equal reports whether two values are the same for change detection.
// error values compare by kind only.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case CellValueTypeNumber:
		return v.num.Equal(o.num)
	case CellValueTypeString:
		return v.str == o.str
	case CellValueTypeBoolean:
		return v.b == o.b
	case CellValueTypeError:
		return v.ErrorCode() == o.ErrorCode()
	}
	return true
}

// String renders the value the way it would be displayed in a grid.
func (v Value) String() string {
	switch v.typ {
	case CellValueTypeNumber:
		return v.num.String()
	case CellValueTypeString:
		return v.str
	case CellValueTypeBoolean:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case CellValueTypeError:
		return ErrorMapper[v.err.ErrorCode]
	}
	return ""
}

// normalizeDecimal strips trailing fractional zeros and any exponent so
// 1.50 becomes 1.5 and 1E+2 becomes 100.
func normalizeDecimal(d decimal.Decimal) decimal.Decimal {
	n, err := decimal.NewFromString(d.String())
	if err != nil {
		return d
	}
	return n
}

var quotedNumeral = regexp.MustCompile(`^-?\d*(\.\d+)?$`)

// parseLiteral interprets non-formula cell contents. contents must already
// be trimmed and non-empty.
func parseLiteral(contents string) Value {
	if strings.HasPrefix(contents, "'") {
		rest := contents[1:]
		if rest != "" && quotedNumeral.MatchString(rest) {
			if d, err := decimal.NewFromString(rest); err == nil {
				return NumberValue(d)
			}
		}
		return TextValue(rest)
	}

	switch strings.ToLower(contents) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if strings.HasPrefix(contents, "#") {
		if code, ok := ErrorCodeFromToken(contents); ok {
			return ErrorValue(code, "")
		}
		return TextValue(contents)
	}

	if d, ok := parseNumber(contents); ok {
		return NumberValue(d)
	}
	return TextValue(contents)
}

// parseNumber parses decimal text. infinities and NaN are not numbers here,
// decimal.NewFromString rejects them.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// isFormula reports whether trimmed contents hold a formula.
func isFormula(contents string) bool {
	return strings.HasPrefix(contents, "=")
}

// toNumber coerces a value for arithmetic. empty is 0, booleans are 0/1,
// numeric text is parsed.
func toNumber(v Value) (decimal.Decimal, *SpreadsheetError) {
	switch v.typ {
	case CellValueTypeEmpty:
		return decimal.Zero, nil
	case CellValueTypeNumber:
		return v.num, nil
	case CellValueTypeBoolean:
		if v.b {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case CellValueTypeString:
		if d, ok := parseNumber(v.str); ok {
			return d, nil
		}
		return decimal.Zero, NewSpreadsheetError(ErrorCodeValue, "cannot convert \""+v.str+"\" to a number")
	}
	return decimal.Zero, v.err
}

// toText coerces a value for concatenation and string functions.
func toText(v Value) (string, *SpreadsheetError) {
	switch v.typ {
	case CellValueTypeEmpty:
		return "", nil
	case CellValueTypeNumber:
		return v.num.String(), nil
	case CellValueTypeBoolean:
		if v.b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case CellValueTypeString:
		return v.str, nil
	}
	return "", v.err
}

// toBool coerces a value for logical functions. text must spell true or
// false; numbers are true when non-zero.
func toBool(v Value) (bool, *SpreadsheetError) {
	switch v.typ {
	case CellValueTypeEmpty:
		return false, nil
	case CellValueTypeNumber:
		return !v.num.IsZero(), nil
	case CellValueTypeBoolean:
		return v.b, nil
	case CellValueTypeString:
		switch strings.ToLower(v.str) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, NewSpreadsheetError(ErrorCodeValue, "cannot convert \""+v.str+"\" to a boolean")
	}
	return false, v.err
}

// literalError reinterprets text spelling an error token as that error.
func literalError(v Value) (Value, bool) {
	if v.typ != CellValueTypeString {
		return v, false
	}
	code, ok := ErrorCodeFromToken(v.str)
	if !ok {
		return v, false
	}
	return ErrorValue(code, ""), true
}

// compareForSort orders values for range sorting:
// empty < error (by code) < number < text (case-insensitive) < boolean.
func compareForSort(a, b Value) int {
	ra, rb := sortRank(a), sortRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch a.typ {
	case CellValueTypeError:
		return compareInts(int(a.ErrorCode()), int(b.ErrorCode()))
	case CellValueTypeNumber:
		return a.num.Cmp(b.num)
	case CellValueTypeString:
		return strings.Compare(strings.ToLower(a.str), strings.ToLower(b.str))
	case CellValueTypeBoolean:
		return compareInts(boolInt(a.b), boolInt(b.b))
	}
	return 0
}

func sortRank(v Value) int {
	switch v.typ {
	case CellValueTypeEmpty:
		return 0
	case CellValueTypeError:
		return 1
	case CellValueTypeNumber:
		return 2
	case CellValueTypeString:
		return 3
	}
	return 4
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
