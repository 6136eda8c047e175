package spreadsheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NodePosition is the rune span of a node in the formula text.
type NodePosition struct {
	Start int
	End   int
}

// ASTNode is a parsed formula expression. the set of implementations is
// closed; the evaluator switches over all of them.
type ASTNode interface {
	GetPosition() NodePosition
	astNode()
}

// StringNode is a quoted string literal.
type StringNode struct {
	Value    string
	Position NodePosition
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value    decimal.Decimal
	Position NodePosition
}

// BooleanNode is TRUE or FALSE.
type BooleanNode struct {
	Value    bool
	Position NodePosition
}

// ErrorNode is a literal error token such as #REF!.
type ErrorNode struct {
	Code     ErrorCode
	Position NodePosition
}

// CellRefNode is a reference to one cell, optionally sheet-qualified.
// Ref is kept as written so bounds are checked at evaluation time.
type CellRefNode struct {
	Sheet    string // unquoted sheet name, "" for the formula's own sheet
	Ref      string
	Position NodePosition
}

// RangeNode is a reference to a block of cells.
type RangeNode struct {
	Sheet    string
	From     string
	To       string
	Position NodePosition
}

type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

type FunctionCallNode struct {
	Name     string // upper-cased
	Args     []ASTNode
	Position NodePosition
}

func (n *StringNode) GetPosition() NodePosition       { return n.Position }
func (n *NumberNode) GetPosition() NodePosition       { return n.Position }
func (n *BooleanNode) GetPosition() NodePosition      { return n.Position }
func (n *ErrorNode) GetPosition() NodePosition        { return n.Position }
func (n *CellRefNode) GetPosition() NodePosition      { return n.Position }
func (n *RangeNode) GetPosition() NodePosition        { return n.Position }
func (n *BinaryOpNode) GetPosition() NodePosition     { return n.Position }
func (n *UnaryOpNode) GetPosition() NodePosition      { return n.Position }
func (n *FunctionCallNode) GetPosition() NodePosition { return n.Position }

func (*StringNode) astNode()       {}
func (*NumberNode) astNode()       {}
func (*BooleanNode) astNode()      {}
func (*ErrorNode) astNode()        {}
func (*CellRefNode) astNode()      {}
func (*RangeNode) astNode()        {}
func (*BinaryOpNode) astNode()     {}
func (*UnaryOpNode) astNode()      {}
func (*FunctionCallNode) astNode() {}

// Parser is a recursive descent parser over lexer tokens. precedence from
// low to high: comparison, concatenation, addition, multiplication, unary,
// primary.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseFormula lexes and parses formula text, which must start with '='.
func ParseFormula(formula string) (ASTNode, error) {
	tokens, err := NewLexer(formula).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 {
		return nil, errors.New("no tokens to parse")
	}
	if p.tokens[p.pos].Type != TokenEquals {
		return nil, errors.New("formula must start with '='")
	}
	p.pos++

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if p.peek().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.peek().Value)
	}
	return node, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func binary(op BinaryOp, left, right ASTNode) *BinaryOpNode {
	return &BinaryOpNode{
		Op:       op,
		Left:     left,
		Right:    right,
		Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
	}
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (ASTNode, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp {
			return left, nil
		}
		var op BinaryOp
		switch tok.Value {
		case "=", "==":
			op = BinOpEqual
		case "<>", "!=":
			op = BinOpNotEqual
		case "<":
			op = BinOpLess
		case "<=":
			op = BinOpLessEqual
		case ">":
			op = BinOpGreater
		case ">=":
			op = BinOpGreaterEqual
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

// parseConcatenation handles string concatenation operator
func (p *Parser) parseConcatenation() (ASTNode, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp || tok.Value != "&" {
			return left, nil
		}
		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		left = binary(BinOpConcat, left, right)
	}
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp {
			return left, nil
		}
		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp {
			return left, nil
		}
		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary(op, left, right)
	}
}

// parseUnary handles prefix + and -
func (p *Parser) parseUnary() (ASTNode, error) {
	tok := p.peek()
	if tok.Type != TokenUnaryPrefixOp {
		return p.parsePrimary()
	}

	op := UnaryOpPlus
	if tok.Value == "-" {
		op = UnaryOpMinus
	}
	p.pos++
	operand, err := p.parseUnary() // recurse for chained unary operators
	if err != nil {
		return nil, err
	}
	return &UnaryOpNode{
		Op:       op,
		Operand:  operand,
		Position: NodePosition{Start: tok.Pos, End: operand.GetPosition().End},
	}, nil
}

func (p *Parser) parsePrimary() (ASTNode, error) {
	tok := p.peek()
	position := NodePosition{Start: tok.Pos, End: tok.End}

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", tok.Value)
		}
		return &NumberNode{Value: val, Position: position}, nil

	case TokenString:
		p.pos++
		return &StringNode{Value: tok.Value, Position: position}, nil

	case TokenBoolean:
		p.pos++
		return &BooleanNode{Value: tok.Value == "TRUE", Position: position}, nil

	case TokenErrorLiteral:
		p.pos++
		code, ok := ErrorCodeFromToken(tok.Value)
		if !ok {
			return nil, fmt.Errorf("unknown error literal: %s", tok.Value)
		}
		return &ErrorNode{Code: code, Position: position}, nil

	case TokenCell:
		p.pos++
		sheet, ref := splitSheetQualifier(tok.Value)
		return &CellRefNode{Sheet: sheet, Ref: ref, Position: position}, nil

	case TokenRange:
		p.pos++
		sheet, ref := splitSheetQualifier(tok.Value)
		from, to, _ := strings.Cut(ref, ":")
		return &RangeNode{Sheet: sheet, From: from, To: to, Position: position}, nil

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokenRightParen {
			return nil, errors.New("expected closing parenthesis")
		}
		p.pos++
		return node, nil

	case TokenIdentifier:
		return nil, fmt.Errorf("unknown identifier: %s", tok.Value)
	}

	return nil, fmt.Errorf("unexpected token: %s", tok.Value)
}

// parseFunctionCall parses NAME(arg, ...)
func (p *Parser) parseFunctionCall() (ASTNode, error) {
	funcTok := p.peek()
	p.pos++

	if p.peek().Type != TokenLeftParen {
		return nil, errors.New("expected '(' after function name")
	}
	p.pos++

	args := []ASTNode{}
	if p.peek().Type == TokenRightParen {
		end := p.peek().End
		p.pos++
		return &FunctionCallNode{
			Name:     funcTok.Value,
			Args:     args,
			Position: NodePosition{Start: funcTok.Pos, End: end},
		}, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.peek().Type {
		case TokenRightParen:
			end := p.peek().End
			p.pos++
			return &FunctionCallNode{
				Name:     funcTok.Value,
				Args:     args,
				Position: NodePosition{Start: funcTok.Pos, End: end},
			}, nil
		case TokenComma:
			p.pos++
		default:
			return nil, errors.New("expected ',' or ')' in function arguments")
		}
	}
}

// splitSheetQualifier splits "Sheet1!A1" or "'My Sheet'!A1:B2" into the
// unquoted sheet name and the reference part.
func splitSheetQualifier(raw string) (sheet, ref string) {
	i := strings.LastIndexByte(raw, '!')
	if i < 0 {
		return "", raw
	}
	sheet = raw[:i]
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		sheet = sheet[1 : len(sheet)-1]
	}
	return sheet, raw[i+1:]
}

// referencedSheets lists the sheet qualifiers written in a formula, folded.
func referencedSheets(node ASTNode) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(n ASTNode)
	walk = func(n ASTNode) {
		switch n := n.(type) {
		case *CellRefNode:
			if n.Sheet != "" && !seen[foldName(n.Sheet)] {
				seen[foldName(n.Sheet)] = true
				out = append(out, foldName(n.Sheet))
			}
		case *RangeNode:
			if n.Sheet != "" && !seen[foldName(n.Sheet)] {
				seen[foldName(n.Sheet)] = true
				out = append(out, foldName(n.Sheet))
			}
		case *BinaryOpNode:
			walk(n.Left)
			walk(n.Right)
		case *UnaryOpNode:
			walk(n.Operand)
		case *FunctionCallNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		}
	}
	walk(node)
	return out
}
