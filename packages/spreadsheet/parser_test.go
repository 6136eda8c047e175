package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parses(formula string) bool {
	_, err := ParseFormula(formula)
	return err == nil
}

func TestParserBasicFormulas(t *testing.T) {
	validFormulas := []string{
		"=1+2",
		"=A1",
		"=a1+$B$2",
		"=SUM(A1:A10)",
		"=Sheet2!A1",
		"=Sheet2!A1:B2",
		"=SUM(Sheet2!A1:A10)",
		"=Sheet2!A1 + Sheet3!B1",
		"='My Data'!A1",
		"='Q1 (draft)'!A1:$B$2",
		"=SUM(B2:A1)",
		"=SUM(A1:A1)",
		"=SUM(A1:Z1000)",
		"=VERSION()",
		"=-(-1)",
		"=1++2",
		"=#REF!+1",
		"=A1<>B1",
		"=A1!=B1",
		"=A1==B1",
		"=IF(A1>=1, \"yes\", \"no\")",
		`="Hello 世界"`,
		`="Test 😀 emoji"`,
		`="say ""hi"""`,
		`=CONCATENATE("Hello ", "世界")`,
		"=IFERROR        (A1, 1)",
		"=SUM\t(1, 2)",
	}

	for _, formula := range validFormulas {
		t.Run(formula, func(t *testing.T) {
			assert.True(t, parses(formula), "failed to parse valid formula: %s", formula)
		})
	}
}

func TestParserInvalidFormulas(t *testing.T) {
	invalidFormulas := []string{
		"",
		"1+2",
		"=",
		"=SUM(",
		"=SUM(1,)",
		"=A1:",
		`="hello`,
		"=1 2",
		"=(1+2",
		"=1+2)",
		"=foo",
		"=#HASHTAG",
		"='Unclosed!A1",
		"='Sheet'A1",
		"=Sheet1!",
		"=A1 B1",
	}

	for _, formula := range invalidFormulas {
		t.Run(formula, func(t *testing.T) {
			assert.False(t, parses(formula), "expected formula to fail: %s", formula)
		})
	}
}

func TestParserPrecedence(t *testing.T) {
	tests := []struct {
		formula string
		check   func(t *testing.T, node ASTNode)
	}{
		{"=1+2*3", func(t *testing.T, node ASTNode) {
			add := node.(*BinaryOpNode)
			assert.Equal(t, BinOpAdd, add.Op)
			assert.Equal(t, BinOpMultiply, add.Right.(*BinaryOpNode).Op)
		}},
		{`="a"&1+2`, func(t *testing.T, node ASTNode) {
			concat := node.(*BinaryOpNode)
			assert.Equal(t, BinOpConcat, concat.Op)
			assert.Equal(t, BinOpAdd, concat.Right.(*BinaryOpNode).Op)
		}},
		{`=1&2=3`, func(t *testing.T, node ASTNode) {
			cmp := node.(*BinaryOpNode)
			assert.Equal(t, BinOpEqual, cmp.Op)
			assert.Equal(t, BinOpConcat, cmp.Left.(*BinaryOpNode).Op)
		}},
		{"=-A1*2", func(t *testing.T, node ASTNode) {
			mul := node.(*BinaryOpNode)
			assert.Equal(t, BinOpMultiply, mul.Op)
			neg := mul.Left.(*UnaryOpNode)
			assert.Equal(t, UnaryOpMinus, neg.Op)
		}},
		{"=8/4/2", func(t *testing.T, node ASTNode) {
			outer := node.(*BinaryOpNode)
			assert.Equal(t, BinOpDivide, outer.Op)
			assert.IsType(t, &BinaryOpNode{}, outer.Left)
			assert.IsType(t, &NumberNode{}, outer.Right)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			node, err := ParseFormula(tt.formula)
			require.NoError(t, err)
			tt.check(t, node)
		})
	}
}

func TestParserReferences(t *testing.T) {
	node, err := ParseFormula("='My Data'!$A1:b$2")
	require.NoError(t, err)
	rng, ok := node.(*RangeNode)
	require.True(t, ok)
	assert.Equal(t, "My Data", rng.Sheet)
	assert.Equal(t, "$A1", rng.From)
	assert.Equal(t, "b$2", rng.To)

	node, err = ParseFormula("=sum(Sheet2!A1, B3)")
	require.NoError(t, err)
	call, ok := node.(*FunctionCallNode)
	require.True(t, ok)
	assert.Equal(t, "SUM", call.Name)
	require.Len(t, call.Args, 2)
	assert.Equal(t, &CellRefNode{Sheet: "Sheet2", Ref: "A1", Position: NodePosition{Start: 5, End: 14}}, call.Args[0])
	assert.Equal(t, "", call.Args[1].(*CellRefNode).Sheet)

	// bounds are checked at evaluation time
	node, err = ParseFormula("=ZZZZZ1")
	require.NoError(t, err)
	assert.Equal(t, "ZZZZZ1", node.(*CellRefNode).Ref)
}

func TestParserFunctionNameSpacing(t *testing.T) {
	node, err := ParseFormula("=iferror   (A1, 1)")
	require.NoError(t, err)
	call, ok := node.(*FunctionCallNode)
	require.True(t, ok)
	assert.Equal(t, "IFERROR", call.Name)
	require.Len(t, call.Args, 2)
	assert.IsType(t, &CellRefNode{}, call.Args[0])

	tokens, err := NewLexer("=A1 + B1").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, TokenCell, tokens[1].Type)
	assert.Equal(t, 3, tokens[1].End)
}

func TestReferencedSheets(t *testing.T) {
	node, err := ParseFormula("=Sheet2!A1+sheet2!B1+SUM('My Data'!A1:A3)+C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet2", "my data"}, referencedSheets(node))
}

func TestLexerTokenSpans(t *testing.T) {
	tokens, err := NewLexer(`="héllo"&A1`).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 5)

	assert.Equal(t, TokenEquals, tokens[0].Type)
	assert.Equal(t, TokenString, tokens[1].Type)
	assert.Equal(t, "héllo", tokens[1].Value)
	assert.Equal(t, 1, tokens[1].Pos)
	assert.Equal(t, 8, tokens[1].End)
	assert.Equal(t, TokenBinaryOp, tokens[2].Type)
	assert.Equal(t, TokenCell, tokens[3].Type)
	assert.Equal(t, 9, tokens[3].Pos)
	assert.Equal(t, 11, tokens[3].End)
	assert.Equal(t, TokenEOF, tokens[4].Type)
}

func TestLexerUnaryContext(t *testing.T) {
	tokens, err := NewLexer("=-1-(-2)").Tokenize()
	require.NoError(t, err)
	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenEquals, TokenUnaryPrefixOp, TokenNumber, TokenBinaryOp,
		TokenLeftParen, TokenUnaryPrefixOp, TokenNumber, TokenRightParen, TokenEOF,
	}, types)
}
