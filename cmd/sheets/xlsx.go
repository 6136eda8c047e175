package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/vogtb/go-spreadsheet/packages/xlsx"
)

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-xlsx <file.xlsx>",
		Short: "Write the workbook to an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.viewWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				if err := xlsx.Export(wb, args[0]); err != nil {
					return err
				}
				loggerFrom(cmd).Info("exported workbook", "path", args[0], "sheets", wb.NumSheets())
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sheets to %s\n", wb.NumSheets(), args[0])
				return nil
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import-xlsx <file.xlsx>",
		Short: "Replace the workbook with the contents of an Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := lockWorkbook(cmd.Context(), a.cfg.Workbook, false)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			if _, err := os.Stat(a.cfg.Workbook); !force && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("workbook %s already exists (use --force to replace it)", a.cfg.Workbook)
			}
			wb, err := xlsx.Import(args[0], spreadsheet.WithLogger(loggerFrom(cmd)))
			if err != nil {
				return err
			}
			if err := a.writeWorkbook(wb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sheets from %s\n", wb.NumSheets(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing workbook")
	return cmd
}
