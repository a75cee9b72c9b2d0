package workflow

import (
	"context"
	"fmt"
	"strings"

	"dataforge/internal/store"
)

// mockLLM routes planner-looking prompts and data prompts through func
// fields so each test scripts exactly the responses it needs.
type mockLLM struct {
	completeFn           func(ctx context.Context, prompt string) (string, error)
	completeWithSystemFn func(ctx context.Context, system, user string) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", nil
}

func (m *mockLLM) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	if m.completeWithSystemFn != nil {
		return m.completeWithSystemFn(ctx, system, user)
	}
	return m.Complete(ctx, user)
}

// scriptedLLM answers report-pipeline prompts with canned values and
// everything else with a fixed plan.
func scriptedLLM(planJSON string) *mockLLM {
	return &mockLLM{
		completeFn: func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "structured insights"):
				return `{"sections": [{"title": "Overview", "content": "Looks fine."}], "recommendations": []}`, nil
			case strings.Contains(prompt, "Summarize this dataset"):
				return "A compact test dataset.", nil
			case strings.Contains(prompt, "which processing stages"):
				return `{"needs_cleaning": true, "needs_transformation": false, "needs_validation": true, "explanation": "nulls present"}`, nil
			default:
				return planJSON, nil
			}
		},
	}
}

// memStore is an in-memory RecordStore for executor tests.
type memStore struct {
	byID map[string]*store.KnowledgeRecord
	seq  int
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*store.KnowledgeRecord{}}
}

func (m *memStore) Save(rec *store.KnowledgeRecord) error {
	if rec.ID == "" {
		m.seq++
		rec.ID = fmt.Sprintf("mem-%d", m.seq)
	}
	m.byID[rec.ID] = rec
	return nil
}

func (m *memStore) GetByID(id string) (*store.KnowledgeRecord, error) {
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetByTitle(title string) (*store.KnowledgeRecord, error) {
	for _, rec := range m.byID {
		if rec.Title == title {
			return rec, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetByFilename(filename string) (*store.KnowledgeRecord, error) {
	for _, rec := range m.byID {
		if rec.Filename == filename {
			return rec, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) List() ([]*store.KnowledgeRecord, error) {
	out := make([]*store.KnowledgeRecord, 0, len(m.byID))
	for _, rec := range m.byID {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }
