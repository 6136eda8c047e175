package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

const (
	lockTimeout      = 5 * time.Second
	lockPollInterval = 100 * time.Millisecond
)

// lockWorkbook takes the lock file next to path. shared locks allow
// concurrent readers.
func lockWorkbook(ctx context.Context, path string, shared bool) (*flock.Flock, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = lock.TryRLockContext(ctx, lockPollInterval)
	} else {
		locked, err = lock.TryLockContext(ctx, lockPollInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", path)
	}
	return lock, nil
}

// readWorkbook loads the workbook file.
func (a *app) readWorkbook(cmd *cobra.Command) (*spreadsheet.Workbook, error) {
	path := a.cfg.Workbook
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("workbook %s does not exist, create it with 'sheets new'", path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	wb, err := spreadsheet.LoadJSON(f, spreadsheet.WithLogger(loggerFrom(cmd)))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return wb, nil
}

// writeWorkbook replaces the workbook file through a temporary file in the
// same directory.
func (a *app) writeWorkbook(wb *spreadsheet.Workbook) error {
	path := a.cfg.Workbook
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := wb.SaveJSON(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// viewWorkbook runs fn on the workbook under a shared lock.
func (a *app) viewWorkbook(cmd *cobra.Command, fn func(wb *spreadsheet.Workbook) error) error {
	lock, err := lockWorkbook(cmd.Context(), a.cfg.Workbook, true)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	wb, err := a.readWorkbook(cmd)
	if err != nil {
		return err
	}
	return fn(wb)
}

// updateWorkbook loads, mutates and saves the workbook under an exclusive
// lock. nothing is written when fn fails.
func (a *app) updateWorkbook(cmd *cobra.Command, fn func(wb *spreadsheet.Workbook) error) error {
	lock, err := lockWorkbook(cmd.Context(), a.cfg.Workbook, false)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	wb, err := a.readWorkbook(cmd)
	if err != nil {
		return err
	}
	if err := fn(wb); err != nil {
		return err
	}
	return a.writeWorkbook(wb)
}

// printChanges registers a listener that reports recalculated cells.
func (a *app) printChanges(cmd *cobra.Command, wb *spreadsheet.Workbook) {
	out := cmd.OutOrStdout()
	wb.Register(func(wb *spreadsheet.Workbook, changed []spreadsheet.CellRef) {
		for _, ref := range changed {
			v, err := wb.GetCellValue(ref.Sheet, ref.Address)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "%s!%s = %s\n", ref.Sheet, ref.Address, v)
		}
	})
}
