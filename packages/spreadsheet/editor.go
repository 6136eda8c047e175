package spreadsheet

import "strings"

const refErrorToken = "#REF!"

// rewriteReferences re-emits a formula with every cell and range token
// passed through fn; everything between tokens is copied as written. text
// that does not tokenize is returned unchanged.
func rewriteReferences(formula string, fn func(tok Token) string) string {
	tokens, err := NewLexer(formula).Tokenize()
	if err != nil {
		return formula
	}
	runes := []rune(formula)
	var sb strings.Builder
	last := 0
	for _, tok := range tokens {
		if tok.Type != TokenCell && tok.Type != TokenRange {
			continue
		}
		sb.WriteString(string(runes[last:tok.Pos]))
		sb.WriteString(fn(tok))
		last = tok.End
	}
	sb.WriteString(string(runes[last:]))
	return sb.String()
}

// splitQualifierText splits a token into the qualifier exactly as written
// (including '!') and the reference part.
func splitQualifierText(raw string) (qualifier, ref string) {
	i := strings.LastIndexByte(raw, '!')
	if i < 0 {
		return "", raw
	}
	return raw[:i+1], raw[i+1:]
}

// shiftFormula moves the relative axes of every reference by (dcol, drow).
// a reference pushed out of the grid becomes #REF!, qualifier included.
// literal contents are returned as is.
func shiftFormula(contents string, dcol, drow int) string {
	if !isFormula(contents) || (dcol == 0 && drow == 0) {
		return contents
	}
	return rewriteReferences(contents, func(tok Token) string {
		qualifier, ref := splitQualifierText(tok.Value)
		parts := strings.Split(ref, ":")
		shifted := make([]string, len(parts))
		for i, part := range parts {
			parsed, err := ParseReference(part)
			if err != nil {
				// already invalid; leave it for the evaluator to report
				return tok.Value
			}
			moved := parsed.Shift(dcol, drow)
			if !moved.InBounds() {
				return refErrorToken
			}
			shifted[i] = moved.String()
		}
		return qualifier + strings.Join(shifted, ":")
	})
}

// renameSheetInFormula replaces every qualifier naming the folded sheet
// oldKey with newName, quoted when needed.
func renameSheetInFormula(contents, oldKey, newName string) string {
	if !isFormula(contents) {
		return contents
	}
	return rewriteReferences(contents, func(tok Token) string {
		sheet, ref := splitSheetQualifier(tok.Value)
		if sheet == "" || foldName(sheet) != oldKey {
			return tok.Value
		}
		return formatQualified(newName, ref)
	})
}
