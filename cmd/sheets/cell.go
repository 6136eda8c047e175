package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// splitCellArg accepts "Sheet1!A1" or "A1" with --sheet.
func splitCellArg(arg, sheet string) (string, string, error) {
	if i := strings.LastIndexByte(arg, '!'); i >= 0 {
		return strings.Trim(arg[:i], "'"), arg[i+1:], nil
	}
	if sheet == "" {
		return "", "", fmt.Errorf("cell %q needs a sheet (Sheet!A1 or --sheet)", arg)
	}
	return sheet, arg, nil
}

func (a *app) setCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "set <cell> [contents...]",
		Short: "Set cell contents; remaining arguments are joined with spaces",
		Long: `Set the contents of a cell and print every cell whose value changed.

Contents starting with '=' are formulas. Empty contents clear the cell.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheetName, addr, err := splitCellArg(args[0], sheet)
			if err != nil {
				return err
			}
			contents := strings.Join(args[1:], " ")
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				a.printChanges(cmd, wb)
				return wb.SetCellContents(sheetName, addr, contents)
			})
		},
	}
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "sheet for unqualified cells")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var (
		sheet    string
		contents bool
	)
	cmd := &cobra.Command{
		Use:   "get <cell>...",
		Short: "Print cell values (or contents with --contents)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.viewWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				for _, arg := range args {
					sheetName, addr, err := splitCellArg(arg, sheet)
					if err != nil {
						return err
					}
					var text string
					if contents {
						text, err = wb.GetCellContents(sheetName, addr)
					} else {
						var v spreadsheet.Value
						v, err = wb.GetCellValue(sheetName, addr)
						text = v.String()
					}
					if err != nil {
						return err
					}
					if len(args) > 1 {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, text)
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), text)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "sheet for unqualified cells")
	cmd.Flags().BoolVar(&contents, "contents", false, "print raw contents instead of values")
	return cmd
}
