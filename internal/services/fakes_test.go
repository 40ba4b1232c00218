package services

import (
	"context"
	"sync"
)

// fakeStore counts calls and serves canned tabs.
type fakeStore struct {
	mu          sync.Mutex
	tabs        map[string][][]string
	fetchErr    error
	appendErr   error
	fetchCalls  []string
	appendCalls []appendCall
}

type appendCall struct {
	partition string
	row       []any
}

func (f *fakeStore) Fetch(_ context.Context, partition string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, partition)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.tabs[partition], nil
}

func (f *fakeStore) Append(_ context.Context, partition string, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls = append(f.appendCalls, appendCall{partition: partition, row: row})
	return f.appendErr
}

var header = []string{"Data", "Desc", "Valor", "Tipo"}
