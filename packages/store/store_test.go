package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestWorkbook(t *testing.T) *spreadsheet.Workbook {
	t.Helper()
	wb := spreadsheet.NewWorkbook()
	_, _, err := wb.NewSheet("Budget")
	require.NoError(t, err)
	require.NoError(t, wb.SetCellContents("Budget", "A1", "100"))
	require.NoError(t, wb.SetCellContents("Budget", "A2", "=A1*1.5"))
	return wb
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	snap, err := s.Save(ctx, "before edit", newTestWorkbook(t))
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "before edit", snap.Name)
	assert.Equal(t, 1, snap.Sheets)

	wb, err := s.Load(ctx, snap.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Budget"}, wb.ListSheets())
	v, err := wb.GetCellValue("Budget", "A2")
	require.NoError(t, err)
	assert.Equal(t, "150", v.String())
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "first", newTestWorkbook(t))
	require.NoError(t, err)
	second, err := s.Save(ctx, "second", spreadsheet.NewWorkbook())
	require.NoError(t, err)

	snaps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, second.ID, snaps[0].ID)
	assert.Equal(t, 0, snaps[0].Sheets)
	assert.Equal(t, first.ID, snaps[1].ID)
	assert.Equal(t, first.CreatedAt.Unix(), snaps[1].CreatedAt.Unix())
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	snap, err := s.Save(ctx, "gone", newTestWorkbook(t))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, snap.ID))

	_, err = s.Load(ctx, snap.ID, nil)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, s.Delete(ctx, snap.ID), ErrSnapshotNotFound)

	snaps, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
