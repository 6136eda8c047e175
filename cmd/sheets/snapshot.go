package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/vogtb/go-spreadsheet/packages/store"
)

// openStore opens and migrates the snapshot database.
func (a *app) openStore() (*store.Store, error) {
	s, err := store.NewStore(a.cfg.SnapshotDB)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore workbook snapshots",
	}
	cmd.AddCommand(a.snapshotSaveCmd(), a.snapshotListCmd(), a.snapshotRestoreCmd(), a.snapshotRemoveCmd())
	return cmd
}

func (a *app) snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Store the current workbook under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			return a.viewWorkbook(cmd, func(wb *spreadsheet.Workbook) error {
				snap, err := s.Save(cmd.Context(), args[0], wb)
				if err != nil {
					return err
				}
				loggerFrom(cmd).Info("snapshot saved", "id", snap.ID, "name", snap.Name)
				fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
				return nil
			})
		},
	}
}

func (a *app) snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			snaps, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSHEETS\tCREATED")
			for _, snap := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", snap.ID, snap.Name, snap.Sheets, snap.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func (a *app) snapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the workbook with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			lock, err := lockWorkbook(cmd.Context(), a.cfg.Workbook, false)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			wb, err := s.Load(cmd.Context(), args[0], loggerFrom(cmd))
			if err != nil {
				return err
			}
			if err := a.writeWorkbook(wb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			return nil
		},
	}
}

func (a *app) snapshotRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Delete(cmd.Context(), args[0])
		},
	}
}
