package spreadsheet

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	wb := NewWorkbook()
	_, _, err := wb.NewSheet("Inputs")
	require.NoError(t, err)
	_, _, err = wb.NewSheet("My Data")
	require.NoError(t, err)
	require.NoError(t, wb.SetCellContents("Inputs", "A1", "12"))
	require.NoError(t, wb.SetCellContents("Inputs", "B1", "'007"))
	require.NoError(t, wb.SetCellContents("My Data", "C3", "=Inputs!A1*2"))
	require.NoError(t, wb.SetCellContents("My Data", "A1", "=C3+'My Data'!C3"))

	var buf bytes.Buffer
	require.NoError(t, wb.SaveJSON(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	sheets := doc["sheets"].([]any)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Inputs", sheets[0].(map[string]any)["name"])
	assert.Equal(t, map[string]any{"A1": "12", "B1": "'007"}, sheets[0].(map[string]any)["cell-contents"])

	loaded, err := LoadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inputs", "My Data"}, loaded.ListSheets())

	v, err := loaded.GetCellValue("My Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "48", v.String())

	contents, err := loaded.GetCellContents("Inputs", "B1")
	require.NoError(t, err)
	assert.Equal(t, "'007", contents)
}

func TestSaveSkipsPlaceholders(t *testing.T) {
	wb := NewWorkbook()
	_, _, err := wb.NewSheet("Sheet1")
	require.NoError(t, err)
	require.NoError(t, wb.SetCellContents("Sheet1", "A1", "=B1+Missing!A1"))

	var buf bytes.Buffer
	require.NoError(t, wb.SaveJSON(&buf))
	assert.JSONEq(t, `{"sheets":[{"name":"Sheet1","cell-contents":{"A1":"=B1+Missing!A1"}}]}`, buf.String())
}

func TestLoadOrderIndependent(t *testing.T) {
	// readers listed before the cells they read still resolve
	input := `{"sheets":[
		{"name":"A","cell-contents":{"A1":"=B!A1+1"}},
		{"name":"B","cell-contents":{"A1":"=A2*2","A2":"5"}}
	]}`
	wb, err := LoadJSON(strings.NewReader(input))
	require.NoError(t, err)

	v, err := wb.GetCellValue("A", "A1")
	require.NoError(t, err)
	assert.Equal(t, "11", v.String())
}

func TestLoadEmptyInput(t *testing.T) {
	wb, err := LoadJSON(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, wb.NumSheets())

	wb, err = LoadJSON(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 0, wb.NumSheets())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
		code   AppErrorCode
	}{
		{"no sheets key", `{}`, ErrMissingKey, FailedPrecondition},
		{"sheets not a list", `{"sheets":{}}`, ErrWrongType, FailedPrecondition},
		{"sheet not an object", `{"sheets":[1]}`, ErrWrongType, FailedPrecondition},
		{"no name", `{"sheets":[{"cell-contents":{}}]}`, ErrMissingKey, FailedPrecondition},
		{"name not a string", `{"sheets":[{"name":3,"cell-contents":{}}]}`, ErrWrongType, FailedPrecondition},
		{"no contents", `{"sheets":[{"name":"S"}]}`, ErrMissingKey, FailedPrecondition},
		{"contents not a map", `{"sheets":[{"name":"S","cell-contents":[]}]}`, ErrWrongType, FailedPrecondition},
		{"contents not strings", `{"sheets":[{"name":"S","cell-contents":{"A1":1}}]}`, ErrWrongType, FailedPrecondition},
		{"top level list", `[]`, ErrWrongType, FailedPrecondition},
		{"duplicate sheet", `{"sheets":[{"name":"S","cell-contents":{}},{"name":"s","cell-contents":{}}]}`, ErrDuplicateSheet, AlreadyExists},
		{"bad address", `{"sheets":[{"name":"S","cell-contents":{"A0":"1"}}]}`, ErrOutOfBounds, OutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}

	_, err := LoadJSON(strings.NewReader(`{"sheets":`))
	require.Error(t, err)
	assert.Equal(t, InvalidArgument, CodeOf(err))
}
