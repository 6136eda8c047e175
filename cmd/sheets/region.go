package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func (a *app) copyRangeCmd() *cobra.Command {
	return a.transferCmd("copy-range", "Copy a block of cells", (*spreadsheet.Workbook).CopyCells)
}

func (a *app) moveRangeCmd() *cobra.Command {
	return a.transferCmd("move-range", "Move a block of cells", (*spreadsheet.Workbook).MoveCells)
}

type transferFunc func(wb *spreadsheet.Workbook, sheet, start, end, to, toSheet string) error

func (a *app) transferCmd(use, short string, transfer transferFunc) *cobra.Command {
	var toSheet string
	cmd := &cobra.Command{
		Use:   use + " <sheet> <start> <end> <to>",
		Short: short,
		Long: short + ` so that its top-left corner lands on <to>.

Relative references in formulas shift with the cells; references pushed
off the grid become #REF!.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				a.printChanges(cmd, wb)
				return transfer(wb, args[0], args[1], args[2], args[3], toSheet)
			})
		},
	}
	cmd.Flags().StringVar(&toSheet, "to-sheet", "", "destination sheet (default: same sheet)")
	return cmd
}

func (a *app) sortCmd() *cobra.Command {
	var by []int
	cmd := &cobra.Command{
		Use:   "sort <sheet> <start> <end>",
		Short: "Sort the rows of a block by computed values",
		Long: `Sort the rows of a block. --by lists 1-based columns of the block in
priority order; a negative column sorts descending (write --by=-1).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(by) == 0 {
				return fmt.Errorf("--by is required")
			}
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				return wb.SortRegion(args[0], args[1], args[2], by)
			})
		},
	}
	cmd.Flags().IntSliceVar(&by, "by", nil, "sort columns, e.g. 1,-2")
	return cmd
}
