package spreadsheet

import (
	"errors"
	"strings"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenEquals
	TokenNumber
	TokenString
	TokenBoolean
	TokenErrorLiteral
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenComma
	TokenColon
	TokenLeftParen
	TokenRightParen
	TokenIdentifier
	TokenWhitespace
	TokenError
)

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

var binaryOpText = map[BinaryOp]string{
	BinOpAdd:          "+",
	BinOpSubtract:     "-",
	BinOpMultiply:     "*",
	BinOpDivide:       "/",
	BinOpConcat:       "&",
	BinOpEqual:        "=",
	BinOpNotEqual:     "<>",
	BinOpLess:         "<",
	BinOpLessEqual:    "<=",
	BinOpGreater:      ">",
	BinOpGreaterEqual: ">=",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charQuote      = '"'
	charApostrophe = '\''
	charAmpersand  = '&'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charLess       = '<'
	charEqual      = '='
	charGreater    = '>'
	charUnderscore = '_'
	charExclaim    = '!'
	charDollar     = '$'
	charHash       = '#'
)

// value tokens are accepted wherever an operand may start
var operandTokens = map[TokenType]bool{
	TokenNumber:        true,
	TokenString:        true,
	TokenBoolean:       true,
	TokenErrorLiteral:  true,
	TokenCell:          true,
	TokenRange:         true,
	TokenFunction:      true,
	TokenIdentifier:    true,
	TokenLeftParen:     true,
	TokenUnaryPrefixOp: true,
}

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenEquals: true, // formula prefix
	},
	StateAfterEquals:   operandTokens,
	StateAfterOperator: operandTokens,
	StateAfterLeftParen: withTokens(operandTokens,
		TokenRightParen, // empty parens for arg-less functions like VERSION()
	),
	StateAfterComma: operandTokens,
	StateAfterValue: {
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true, // only if in function
		TokenEOF:        true,
		// whitespace is significant - no consecutive values
	},
	StateAfterRightParen: {
		TokenBinaryOp:   true,
		TokenRightParen: true, // if nested
		TokenComma:      true, // if in function
		TokenEOF:        true,
	},
	StateAfterIdentifier: {
		TokenLeftParen:  true, // function call
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true,
		TokenEOF:        true,
	},
}

func withTokens(base map[TokenType]bool, extra ...TokenType) map[TokenType]bool {
	m := make(map[TokenType]bool, len(base)+len(extra))
	for k, v := range base {
		m[k] = v
	}
	for _, t := range extra {
		m[t] = true
	}
	return m
}

// Token represents a lexical token with its rune span in the input.
// for cell and range tokens Value is the raw source text.
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
	End   int // rune position just past the token
}

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterEquals
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
	StateAfterComma
	StateAfterIdentifier
)

// Lexer tokenizes spreadsheet formula expressions
type Lexer struct {
	input      string
	runes      []rune // UTF-8 aware representation
	pos        int
	state      TokenState
	parenDepth int
	tokens     []Token
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input),
		state:  StateStart,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire formula, including the leading '='.
func (l *Lexer) Tokenize() ([]Token, error) {
	if len(l.runes) == 0 || l.runes[0] != charEqual {
		return nil, errors.New("formula must start with '='")
	}
	l.pos = 0

	for {
		tok := l.nextToken()
		tok.End = l.pos
		if tok.Type == TokenError {
			return nil, errors.New(tok.Value)
		}
		if tok.Type == TokenEOF {
			break
		}
		if !l.validateTransition(tok.Type) {
			return nil, errors.New("unexpected token: " + tok.Value)
		}
		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)
	}

	if l.parenDepth > 0 {
		return nil, errors.New("unbalanced parentheses: missing closing parenthesis")
	}
	if !l.validateTransition(TokenEOF) {
		return nil, errors.New("unexpected end of formula")
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos, End: l.pos})
	return l.tokens, nil
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenEquals:
		l.state = StateAfterEquals
	case TokenNumber, TokenString, TokenBoolean, TokenErrorLiteral, TokenCell, TokenRange:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	case TokenComma:
		l.state = StateAfterComma
	case TokenIdentifier, TokenFunction:
		l.state = StateAfterIdentifier
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	if ch == charQuote {
		return l.scanString()
	}

	if ch == charApostrophe {
		return l.scanWorksheetRef()
	}

	if l.isDigit(ch) || (ch == charPeriod && l.isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charColon:
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charAmpersand, charLess, charGreater, charExclaim:
		return l.scanBinaryOp()
	case charEqual:
		// the formula prefix is only ever the first character
		if l.pos == 0 {
			l.pos++
			return Token{Type: TokenEquals, Value: "=", Pos: startPos}
		}
		l.pos++
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "==", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "=", Pos: startPos}
	case charHash:
		return l.scanErrorLiteral()
	}

	if l.isAlpha(ch) || ch == charUnderscore || ch == charDollar {
		return l.scanIdentifierOrCell()
	}

	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

// nextSignificant returns the next rune that is not whitespace without
// consuming anything.
func (l *Lexer) nextSignificant() rune {
	for i := 0; ; i++ {
		ch := l.peek(i)
		if !isWhitespace(ch) {
			return ch
		}
	}
}

func isWhitespace(ch rune) bool {
	return ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		if isWhitespace(l.current()) {
			l.pos++
		} else {
			break
		}
	}
}

func (l *Lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

func (l *Lexer) isRefChar(ch rune) bool {
	return l.isAlphaNumeric(ch) || ch == charDollar
}

// scanNumber scans a number token including decimals and scientific notation
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && l.isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++ // consume '.'
		for l.pos < len(l.runes) && l.isDigit(l.current()) {
			l.pos++
		}
	}

	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++
		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}
		if !l.isDigit(l.current()) {
			// not scientific notation, restore position
			l.pos = savedPos
		} else {
			for l.pos < len(l.runes) && l.isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanString scans a string literal with support for double-quote escapes
func (l *Lexer) scanString() Token {
	startPos := l.pos
	l.pos++ // consume opening quote

	var result []rune
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charQuote {
			if l.peek(1) == charQuote {
				result = append(result, charQuote)
				l.pos += 2
				continue
			}
			l.pos++ // consume closing quote
			return Token{Type: TokenString, Value: string(result), Pos: startPos}
		}
		result = append(result, ch)
		l.pos++
	}

	return Token{Type: TokenError, Value: "unclosed string literal", Pos: startPos}
}

// scanErrorLiteral scans one of the known error tokens such as #REF!
func (l *Lexer) scanErrorLiteral() Token {
	startPos := l.pos
	rest := strings.ToUpper(string(l.runes[l.pos:]))
	for _, token := range ErrorMapper {
		if strings.HasPrefix(rest, token) {
			l.pos += len([]rune(token))
			return Token{Type: TokenErrorLiteral, Value: token, Pos: startPos}
		}
	}
	l.pos++
	return Token{Type: TokenError, Value: "unknown error literal", Pos: startPos}
}

// scanIdentifierOrCell scans identifiers, functions, cells, ranges, and booleans
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && (l.isRefChar(l.current()) || l.current() == charUnderscore || l.current() == charPeriod) {
		l.pos++
	}

	value := l.substring(startPos, l.pos)
	upperValue := strings.ToUpper(value)

	// a sheet qualifier wins over every other reading, so a sheet called
	// TRUE still works
	if l.current() == charExclaim && l.peek(1) != charEqual {
		return l.scanReferenceAfterSheet(startPos)
	}

	if l.nextSignificant() == charLParen && !strings.ContainsRune(value, charDollar) {
		return Token{Type: TokenFunction, Value: upperValue, Pos: startPos}
	}

	if upperValue == "TRUE" || upperValue == "FALSE" {
		return Token{Type: TokenBoolean, Value: upperValue, Pos: startPos}
	}

	if l.isCell(value) {
		return l.scanRangeTail(startPos)
	}

	if strings.ContainsRune(value, charDollar) {
		return Token{Type: TokenError, Value: "invalid reference: " + value, Pos: startPos}
	}
	return Token{Type: TokenIdentifier, Value: value, Pos: startPos}
}

// scanRangeTail extends a cell token into a range when followed by ':' and
// another cell.
func (l *Lexer) scanRangeTail(startPos int) Token {
	if l.current() != charColon {
		return Token{Type: TokenCell, Value: l.substring(startPos, l.pos), Pos: startPos}
	}
	savedPos := l.pos
	l.pos++ // consume ':'
	cellStart := l.pos
	for l.pos < len(l.runes) && l.isRefChar(l.current()) {
		l.pos++
	}
	if l.isCell(l.substring(cellStart, l.pos)) {
		return Token{Type: TokenRange, Value: l.substring(startPos, l.pos), Pos: startPos}
	}
	// not a valid range, restore position and return just the cell
	l.pos = savedPos
	return Token{Type: TokenCell, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// isCell checks if a string looks like a cell reference (A1, $B$12). bounds
// are checked later so that out-of-range references evaluate to #REF!.
func (l *Lexer) isCell(s string) bool {
	s = strings.TrimPrefix(s, "$")
	letterEnd := 0
	for letterEnd < len(s) && isASCIILetter(s[letterEnd]) {
		letterEnd++
	}
	if letterEnd == 0 {
		return false
	}
	digits := strings.TrimPrefix(s[letterEnd:], "$")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// scanWorksheetRef scans a reference whose sheet name is single-quoted,
// like 'My Sheet'!A1
func (l *Lexer) scanWorksheetRef() Token {
	startPos := l.pos
	l.pos++ // consume opening single quote

	for l.pos < len(l.runes) && l.current() != charApostrophe {
		l.pos++
	}
	if l.pos >= len(l.runes) {
		return Token{Type: TokenError, Value: "unclosed worksheet name", Pos: startPos}
	}
	l.pos++ // consume closing single quote

	if l.current() != charExclaim {
		return Token{Type: TokenError, Value: "expected ! after worksheet name", Pos: startPos}
	}
	return l.scanReferenceAfterSheet(startPos)
}

// scanReferenceAfterSheet scans the cell or range following "sheet!". the
// returned token spans the qualifier too.
func (l *Lexer) scanReferenceAfterSheet(startPos int) Token {
	l.pos++ // consume !

	cellStart := l.pos
	for l.pos < len(l.runes) && l.isRefChar(l.current()) {
		l.pos++
	}
	cellRef := l.substring(cellStart, l.pos)
	if !l.isCell(cellRef) {
		return Token{Type: TokenError, Value: "invalid cell reference after worksheet", Pos: startPos}
	}
	return l.scanRangeTail(startPos)
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// scanBinaryOp scans binary operators
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	switch ch {
	case charLess:
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<=", Pos: startPos}
		} else if l.current() == charGreater {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<>", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: "<", Pos: startPos}
	case charGreater:
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: ">=", Pos: startPos}
		}
		return Token{Type: TokenBinaryOp, Value: ">", Pos: startPos}
	case charExclaim:
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "!=", Pos: startPos}
		}
		return Token{Type: TokenError, Value: "unexpected '!'", Pos: startPos}
	case charAsterisk:
		return Token{Type: TokenBinaryOp, Value: "*", Pos: startPos}
	case charSlash:
		return Token{Type: TokenBinaryOp, Value: "/", Pos: startPos}
	case charAmpersand:
		return Token{Type: TokenBinaryOp, Value: "&", Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown operator", Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	switch l.state {
	case StateStart, StateAfterEquals, StateAfterOperator, StateAfterLeftParen, StateAfterComma:
		return true
	default:
		return false
	}
}
