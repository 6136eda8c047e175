package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxRangeCells bounds how many cells one range reference may expand to.
const maxRangeCells = 1_000_000

// evalContext evaluates one formula on behalf of one cell, collecting the
// cells it reads as parents.
type evalContext struct {
	storage *Storage
	funcs   *BuiltInFunctions
	sheet   string // folded name of the sheet the formula lives on

	parents []cellKey
	seen    map[cellKey]struct{}
}

func newEvalContext(storage *Storage, funcs *BuiltInFunctions, sheet string) *evalContext {
	return &evalContext{
		storage: storage,
		funcs:   funcs,
		sheet:   sheet,
		seen:    make(map[cellKey]struct{}),
	}
}

func (ec *evalContext) addParent(key cellKey) {
	if _, ok := ec.seen[key]; ok {
		return
	}
	ec.seen[key] = struct{}{}
	ec.parents = append(ec.parents, key)
}

// evaluateFormula computes the value of a parsed formula. an empty result,
// such as a reference to a blank cell, stays empty.
func (ec *evalContext) evaluateFormula(ast ASTNode) Value {
	return ec.evalScalar(ast)
}

// evalScalar evaluates a node that must produce a single value.
func (ec *evalContext) evalScalar(node ASTNode) Value {
	v, rng := ec.eval(node)
	if rng != nil {
		return typeError("a range cannot be used as a single value")
	}
	return v
}

// eval evaluates a node to either a value or, for range nodes, a range.
func (ec *evalContext) eval(node ASTNode) (Value, *CellRange) {
	switch n := node.(type) {
	case *NumberNode:
		return NumberValue(n.Value), nil
	case *StringNode:
		return TextValue(n.Value), nil
	case *BooleanNode:
		return BoolValue(n.Value), nil
	case *ErrorNode:
		return ErrorValue(n.Code, ""), nil
	case *CellRefNode:
		return ec.resolveCell(n.Sheet, n.Ref), nil
	case *RangeNode:
		rng, errVal := ec.resolveRange(n.Sheet, n.From, n.To)
		if rng == nil {
			return errVal, nil
		}
		return Value{}, rng
	case *UnaryOpNode:
		return ec.evalUnary(n), nil
	case *BinaryOpNode:
		return ec.evalBinary(n), nil
	case *FunctionCallNode:
		return ec.evalFunction(n)
	}
	return ErrorValue(ErrorCodeParse, fmt.Sprintf("unsupported node %T", node)), nil
}

// sheetKey resolves a written qualifier to a folded sheet name.
func (ec *evalContext) sheetKey(sheet string) string {
	if sheet == "" {
		return ec.sheet
	}
	return foldName(sheet)
}

// resolveCell reads a referenced cell, recording it as a parent.
func (ec *evalContext) resolveCell(sheet, ref string) Value {
	parsed, err := ParseReference(ref)
	if err != nil {
		return ErrorValue(ErrorCodeRef, fmt.Sprintf("bad reference %s", ref))
	}
	key := cellKey{sheet: ec.sheetKey(sheet), addr: parsed.Address}
	ec.addParent(key)
	if _, ok := ec.storage.worksheets.getByKey(key.sheet); !ok {
		return ErrorValue(ErrorCodeRef, fmt.Sprintf("no sheet named %s", sheet))
	}
	return ec.readValue(key)
}

func (ec *evalContext) readValue(key cellKey) Value {
	rec, ok := ec.storage.cells.lookup(key)
	if !ok {
		return EmptyValue()
	}
	if v, isErr := literalError(rec.value); isErr {
		return v
	}
	return rec.value
}

// resolveRange expands a range reference into its values, recording every
// cell as a parent. on failure the returned range is nil and the value
// holds the error.
func (ec *evalContext) resolveRange(sheet, from, to string) (*CellRange, Value) {
	start, err := ParseReference(from)
	if err != nil {
		return nil, ErrorValue(ErrorCodeRef, fmt.Sprintf("bad reference %s", from))
	}
	end, err := ParseReference(to)
	if err != nil {
		return nil, ErrorValue(ErrorCodeRef, fmt.Sprintf("bad reference %s", to))
	}
	bounds := NewRangeAddress(start.Address, end.Address)
	if bounds.Width()*bounds.Height() > maxRangeCells {
		return nil, typeError("range %s is too large", bounds)
	}

	key := ec.sheetKey(sheet)
	_, sheetExists := ec.storage.worksheets.getByKey(key)
	rng := &CellRange{bounds: bounds, values: make([][]Value, 0, bounds.Height())}
	for _, line := range bounds.Rows() {
		row := make([]Value, len(line))
		for i, addr := range line {
			cell := cellKey{sheet: key, addr: addr}
			ec.addParent(cell)
			if sheetExists {
				row[i] = ec.readValue(cell)
			}
		}
		rng.values = append(rng.values, row)
	}
	if !sheetExists {
		return nil, ErrorValue(ErrorCodeRef, fmt.Sprintf("no sheet named %s", sheet))
	}
	return rng, Value{}
}

func (ec *evalContext) evalUnary(n *UnaryOpNode) Value {
	v := ec.evalScalar(n.Operand)
	if v.IsError() {
		return v
	}
	if errVal, ok := literalError(v); ok {
		return errVal
	}
	d, err := toNumber(v)
	if err != nil {
		return Value{typ: CellValueTypeError, err: err}
	}
	if n.Op == UnaryOpMinus {
		d = d.Neg()
	}
	return NumberValue(d)
}

func (ec *evalContext) evalBinary(n *BinaryOpNode) Value {
	left := ec.evalScalar(n.Left)
	right := ec.evalScalar(n.Right)
	switch n.Op {
	case BinOpConcat:
		return concatValues(left, right)
	case BinOpAdd, BinOpSubtract, BinOpMultiply, BinOpDivide:
		return arithmetic(n.Op, left, right)
	}
	return compareOp(n.Op, left, right)
}

// operandError applies the error precedence of arithmetic and comparison:
// error values left then right, then text spelling an error token, right
// first.
func operandError(left, right Value) (Value, bool) {
	if left.IsError() {
		return left, true
	}
	if right.IsError() {
		return right, true
	}
	if v, ok := literalError(right); ok {
		return v, true
	}
	if v, ok := literalError(left); ok {
		return v, true
	}
	return Value{}, false
}

func arithmetic(op BinaryOp, left, right Value) Value {
	if errVal, ok := operandError(left, right); ok {
		return errVal
	}
	a, err := toNumber(left)
	if err != nil {
		return Value{typ: CellValueTypeError, err: err}
	}
	b, err := toNumber(right)
	if err != nil {
		return Value{typ: CellValueTypeError, err: err}
	}
	switch op {
	case BinOpAdd:
		return NumberValue(a.Add(b))
	case BinOpSubtract:
		return NumberValue(a.Sub(b))
	case BinOpMultiply:
		return NumberValue(a.Mul(b))
	}
	if b.IsZero() {
		return ErrorValue(ErrorCodeDiv0, "division by zero")
	}
	return NumberValue(a.DivRound(b, divisionPlaces))
}

func concatText(v Value) string {
	s, _ := toText(v)
	if v.Type() == CellValueTypeString {
		if lower := strings.ToLower(s); lower == "true" || lower == "false" {
			return strings.ToUpper(s)
		}
	}
	return s
}

func concatValues(left, right Value) Value {
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	return TextValue(concatText(left) + concatText(right))
}

// zeroOf is the value an empty operand stands for when compared against a
// value of type t.
func zeroOf(t CellType) Value {
	switch t {
	case CellValueTypeString:
		return TextValue("")
	case CellValueTypeBoolean:
		return BoolValue(false)
	}
	return NumberValue(decimal.Zero)
}

// crossTypeRank orders values of different types: number < text < boolean.
func crossTypeRank(v Value) int {
	switch v.Type() {
	case CellValueTypeNumber:
		return 0
	case CellValueTypeString:
		return 1
	}
	return 2
}

func compareValues(left, right Value) int {
	switch {
	case left.IsEmpty() && right.IsEmpty():
		return 0
	case left.IsEmpty():
		left = zeroOf(right.Type())
	case right.IsEmpty():
		right = zeroOf(left.Type())
	}
	if left.Type() != right.Type() {
		return compareInts(crossTypeRank(left), crossTypeRank(right))
	}
	switch left.Type() {
	case CellValueTypeNumber:
		return left.Number().Cmp(right.Number())
	case CellValueTypeString:
		return strings.Compare(strings.ToLower(left.Text()), strings.ToLower(right.Text()))
	}
	return compareInts(boolInt(left.Bool()), boolInt(right.Bool()))
}

func compareOp(op BinaryOp, left, right Value) Value {
	if errVal, ok := operandError(left, right); ok {
		return errVal
	}
	c := compareValues(left, right)
	switch op {
	case BinOpEqual:
		return BoolValue(c == 0)
	case BinOpNotEqual:
		return BoolValue(c != 0)
	case BinOpLess:
		return BoolValue(c < 0)
	case BinOpLessEqual:
		return BoolValue(c <= 0)
	case BinOpGreater:
		return BoolValue(c > 0)
	case BinOpGreaterEqual:
		return BoolValue(c >= 0)
	}
	return ErrorValue(ErrorCodeParse, fmt.Sprintf("unknown operator %s", op))
}

// evalFunction calls a function. the lazy functions hand back the selected
// argument unchanged, so it may be a range.
func (ec *evalContext) evalFunction(n *FunctionCallNode) (Value, *CellRange) {
	name := strings.ToUpper(n.Name)
	if !ec.funcs.Has(name) {
		return ErrorValue(ErrorCodeName, fmt.Sprintf("unknown function: %s", n.Name)), nil
	}
	switch name {
	case "IF":
		return ec.evalIf(n.Args)
	case "IFERROR":
		return ec.evalIfError(n.Args)
	case "CHOOSE":
		return ec.evalChoose(n.Args)
	case "INDIRECT":
		return ec.evalIndirect(n.Args), nil
	}

	args := make([]any, 0, len(n.Args))
	for _, argNode := range n.Args {
		v, rng := ec.eval(argNode)
		if rng == nil {
			args = append(args, v)
			continue
		}
		if !rangeFunctions[name] {
			return typeError("%s does not accept a range", name), nil
		}
		args = append(args, rng)
	}
	return ec.funcs.Call(name, args...), nil
}

// IF(cond, then, else?) evaluates only the selected branch. a condition
// that is an error cannot become a boolean.
func (ec *evalContext) evalIf(args []ASTNode) (Value, *CellRange) {
	if len(args) < 2 || len(args) > 3 {
		return typeError("IF takes two or three arguments"), nil
	}
	cond := ec.evalScalar(args[0])
	if cond.IsError() {
		return typeError("IF condition is %s", cond), nil
	}
	b, err := toBool(cond)
	if err != nil {
		return Value{typ: CellValueTypeError, err: err}, nil
	}
	if b {
		return ec.eval(args[1])
	}
	if len(args) == 3 {
		return ec.eval(args[2])
	}
	return BoolValue(false), nil
}

// IFERROR(value, fallback?) evaluates fallback only when value is an error.
func (ec *evalContext) evalIfError(args []ASTNode) (Value, *CellRange) {
	if len(args) < 1 || len(args) > 2 {
		return typeError("IFERROR takes one or two arguments"), nil
	}
	v, rng := ec.eval(args[0])
	if rng != nil || !v.IsError() {
		return v, rng
	}
	if len(args) == 2 {
		return ec.eval(args[1])
	}
	return TextValue(""), nil
}

// CHOOSE(index, v1, ..., vn) evaluates only the selected value. the index
// must lie in [1, n]; a fractional index is truncated.
func (ec *evalContext) evalChoose(args []ASTNode) (Value, *CellRange) {
	if len(args) < 2 {
		return typeError("CHOOSE takes an index and at least one value"), nil
	}
	idxVal := ec.evalScalar(args[0])
	if idxVal.IsError() {
		return idxVal, nil
	}
	d, err := toNumber(idxVal)
	if err != nil {
		return Value{typ: CellValueTypeError, err: err}, nil
	}
	if d.LessThan(decimal.NewFromInt(1)) || d.GreaterThan(decimal.NewFromInt(int64(len(args)-1))) {
		return typeError("CHOOSE index %s is out of range", d), nil
	}
	return ec.eval(args[d.IntPart()])
}

// INDIRECT("sheet!A1") reads the named cell. only a string literal is
// accepted so that the reference is known without evaluating anything.
func (ec *evalContext) evalIndirect(args []ASTNode) Value {
	if len(args) != 1 {
		return typeError("INDIRECT takes exactly one argument")
	}
	lit, ok := args[0].(*StringNode)
	if !ok {
		return ErrorValue(ErrorCodeParse, "INDIRECT needs a string literal")
	}
	sheet, ref := splitLocation(lit.Value)
	return ec.resolveCell(sheet, ref)
}
