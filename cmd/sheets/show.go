package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vogtb/go-spreadsheet/internal/config"
	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// useColor resolves the colour mode, following NO_COLOR in auto mode.
func useColor(mode string, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type gridStyles struct {
	header lipgloss.Style
	cell   lipgloss.Style
	number lipgloss.Style
	err    lipgloss.Style
	border lipgloss.Style
}

func newGridStyles(out io.Writer, color bool) gridStyles {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	cell := r.NewStyle().Padding(0, 1)
	return gridStyles{
		header: cell.Bold(true).Foreground(lipgloss.Color("12")),
		cell:   cell,
		number: cell.Align(lipgloss.Right),
		err:    cell.Foreground(lipgloss.Color("9")),
		border: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// renderGrid draws the used area of a sheet as a table with column
// letters across the top and row numbers down the side.
func renderGrid(wb *spreadsheet.Workbook, sheet string, styles gridStyles) (string, error) {
	cols, rows, err := wb.GetSheetExtent(sheet)
	if err != nil {
		return "", err
	}
	if cols == 0 {
		return "(empty)", nil
	}

	headers := make([]string, cols+1)
	for c := 1; c <= cols; c++ {
		headers[c] = spreadsheet.ColumnLetters(c)
	}

	values := make([][]spreadsheet.Value, rows)
	body := make([][]string, rows)
	for r := 1; r <= rows; r++ {
		values[r-1] = make([]spreadsheet.Value, cols+1)
		line := make([]string, cols+1)
		line[0] = strconv.Itoa(r)
		for c := 1; c <= cols; c++ {
			addr := spreadsheet.Address{Row: r, Col: c}.String()
			v, err := wb.GetCellValue(sheet, addr)
			if err != nil {
				return "", err
			}
			values[r-1][c] = v
			line[c] = v.String()
		}
		body[r-1] = line
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.border).
		Headers(headers...).
		Rows(body...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 || row >= len(values) {
				return styles.header
			}
			switch values[row][col].Type() {
			case spreadsheet.CellValueTypeNumber:
				return styles.number
			case spreadsheet.CellValueTypeError:
				return styles.err
			}
			return styles.cell
		})
	return t.Render(), nil
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sheet>",
		Short: "Render the computed values of a sheet as a grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			styles := newGridStyles(out, useColor(a.cfg.Color, out))
			return a.viewWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				grid, err := renderGrid(wb, args[0], styles)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, grid)
				return nil
			})
		},
	}
}
