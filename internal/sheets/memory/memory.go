package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

var _ sheets.Store = (*Store)(nil)

// Store keeps one tab per month in process memory and renders appended
// cells the way a decimal-comma spreadsheet displays them.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

// New creates a store with the twelve month tabs, each holding only the header row.
func New() *Store {
	s := &Store{tabs: make(map[string][][]string, len(core.Partitions))}
	for _, p := range core.Partitions {
		s.tabs[p] = [][]string{append([]string(nil), sheets.Header...)}
	}
	return s
}

// NewFromFiles creates a store and seeds each tab from base/seed_<Mon>.txt.
// Seed lines hold "DD/MM/YYYY;description;amount;category"; blank lines and
// lines starting with "#" are ignored. Missing files leave the tab empty.
// The description may itself contain ";".
func NewFromFiles(base string) *Store {
	s := New()
	for _, p := range core.Partitions {
		for _, line := range readLines(filepath.Join(base, "seed_"+p+".txt")) {
			s.tabs[p] = append(s.tabs[p], splitSeedLine(line))
		}
	}
	return s
}

// Fetch returns a copy of the tab, header row first.
func (s *Store) Fetch(_ context.Context, partition string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[partition]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrPartitionNotFound, partition)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Append adds row at the end of the tab.
func (s *Store) Append(_ context.Context, partition string, row []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[partition]; !ok {
		return fmt.Errorf("%w: %w: %q", core.ErrStoreWrite, core.ErrPartitionNotFound, partition)
	}
	s.tabs[partition] = append(s.tabs[partition], sheets.RenderRow(row))
	return nil
}

// Len returns the number of data rows (header excluded) in partition.
func (s *Store) Len(partition string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tabs[partition]
	if len(rows) == 0 {
		return 0
	}
	return len(rows) - 1
}

// splitSeedLine takes the date from the left and amount and category from the
// right; whatever remains is the description.
func splitSeedLine(line string) []string {
	parts := strings.Split(line, ";")
	n := len(parts)
	if n <= core.RowWidth {
		return parts
	}
	return []string{parts[0], strings.Join(parts[1:n-2], ";"), parts[n-2], parts[n-1]}
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
