package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func (a *app) newCmd() *cobra.Command {
	var (
		force  bool
		sheets []string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty workbook file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := lockWorkbook(cmd.Context(), a.cfg.Workbook, false)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			if _, err := os.Stat(a.cfg.Workbook); err == nil && !force {
				return fmt.Errorf("workbook %s already exists (use --force to replace it)", a.cfg.Workbook)
			}
			wb := spreadsheet.NewWorkbook(spreadsheet.WithLogger(loggerFrom(cmd)))
			for _, name := range sheets {
				if _, _, err := wb.NewSheet(name); err != nil {
					return err
				}
			}
			if err := a.writeWorkbook(wb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", a.cfg.Workbook)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing workbook")
	cmd.Flags().StringSliceVar(&sheets, "sheet", []string{"Sheet1"}, "sheets to create")
	return cmd
}

func (a *app) sheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Manage the sheets of a workbook",
	}
	cmd.AddCommand(
		a.sheetListCmd(),
		a.sheetAddCmd(),
		a.sheetRemoveCmd(),
		a.sheetRenameCmd(),
		a.sheetMoveCmd(),
		a.sheetCopyCmd(),
	)
	return cmd
}

func (a *app) sheetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List sheets in order with their extent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.viewWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tNAME\tCOLUMNS\tROWS")
				for i, name := range wb.ListSheets() {
					cols, rows, err := wb.GetSheetExtent(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", i, name, cols, rows)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) sheetAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Append a sheet (default name Sheet<N>)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				a.printChanges(cmd, wb)
				index, created, err := wb.NewSheet(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s at %d\n", created, index)
				return nil
			})
		},
	}
}

func (a *app) sheetRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				a.printChanges(cmd, wb)
				return wb.DeleteSheet(args[0])
			})
		},
	}
}

func (a *app) sheetRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a sheet, rewriting formulas that name it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				a.printChanges(cmd, wb)
				return wb.RenameSheet(args[0], args[1])
			})
		},
	}
}

func (a *app) sheetMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <name> <index>",
		Short: "Move a sheet to a 0-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				return wb.MoveSheet(args[0], index)
			})
		},
	}
}

func (a *app) sheetCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <name>",
		Short: "Copy a sheet to the end as <name>_<N>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				index, name, err := wb.CopySheet(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to %s at %d\n", args[0], name, index)
				return nil
			})
		},
	}
}
