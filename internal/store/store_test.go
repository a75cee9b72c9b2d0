package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)

	rec := &KnowledgeRecord{Title: "Q3 Sales", Content: "name,amount\nJohn,100"}
	require.NoError(t, s.Save(rec))

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestGetByID(t *testing.T) {
	s := newTestStore(t)

	rec := &KnowledgeRecord{
		Title:      "Employees",
		Content:    "name,age\nJohn,30",
		RawContent: "Name,Age\nJohn,30",
		Filename:   "employees.csv",
		FileType:   "csv",
		Tags:       []string{"hr", "upload"},
	}
	require.NoError(t, s.Save(rec))

	got, err := s.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, rec.RawContent, got.RawContent)
	assert.Equal(t, rec.Filename, got.Filename)
	assert.Equal(t, []string{"hr", "upload"}, got.Tags)
}

func TestGetByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByFilename(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(&KnowledgeRecord{Title: "v1", Content: "a", Filename: "data.csv"}))
	require.NoError(t, s.Save(&KnowledgeRecord{Title: "v2", Content: "b", Filename: "data.csv"}))

	got, err := s.GetByFilename("data.csv")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)

	_, err = s.GetByFilename("nope.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByTitle(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(&KnowledgeRecord{Title: "Report", Content: "x"}))

	got, err := s.GetByTitle("Report")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Content)
}

func TestSaveUpsertsByID(t *testing.T) {
	s := newTestStore(t)

	rec := &KnowledgeRecord{Title: "draft", Content: "before"}
	require.NoError(t, s.Save(rec))

	rec.Content = "after"
	require.NoError(t, s.Save(rec))

	got, err := s.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(&KnowledgeRecord{Title: "first", Content: "1"}))
	require.NoError(t, s.Save(&KnowledgeRecord{Title: "second", Content: "2"}))

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
}
