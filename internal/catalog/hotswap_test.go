package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotSwapServesNewDataset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := filepath.Join(dir, "first.db")
	db, err := New(first)
	require.NoError(t, err)
	require.NoError(t, db.ReplaceDataset(ctx, testDataset()))
	require.NoError(t, db.Close())

	hs, err := NewHotSwapDB(first)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hs.Close() })

	count, err := hs.DB().CountDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// Build a replacement catalog with a single department.
	second := filepath.Join(dir, "second.db")
	next, err := New(second)
	require.NoError(t, err)
	require.NoError(t, next.ReplaceDataset(ctx, Dataset{
		Universities: []University{{ID: "u9", Name: "미래대학교"}},
		Departments:  []Department{{ID: "d9", UniversityID: "u9", Name: "데이터사이언스학과"}},
	}))
	require.NoError(t, next.Close())

	require.NoError(t, hs.Swap(ctx, second))
	assert.Equal(t, second, hs.Path())

	count, err = hs.DB().CountDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	d, err := hs.DB().GetDepartmentByName(ctx, "u9", "데이터사이언스학과")
	require.NoError(t, err)
	assert.Equal(t, "d9", d.ID)
}

func TestHotSwapRejectsBadPath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := filepath.Join(dir, "first.db")
	hs, err := NewHotSwapDB(first)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hs.Close() })

	err = hs.Swap(ctx, filepath.Join(dir, "missing", "\x00bad"))
	require.Error(t, err)

	// Original catalog remains live after a failed swap.
	require.NoError(t, hs.Ping(ctx))
	assert.Equal(t, first, hs.Path())
}
