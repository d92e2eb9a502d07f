// Package memory is an in-process expense collection for local runs and
// tests. Records can be seeded from a text file.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/remote"
)

// SeedFile is read by NewFromFiles from the data directory.
const SeedFile = "seed_expenses.txt"

type Store struct {
	mu    sync.Mutex
	items []core.Expense // newest first
	newID func() string
}

var _ remote.ExpenseCollection = (*Store)(nil)

func New(seed []core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...), newID: uuid.NewString}
}

// NewFromFiles seeds the store from base/seed_expenses.txt. Each line is
// "date|title|amount|category"; blank lines and # comments are ignored.
// A missing file yields an empty store.
func NewFromFiles(base string) *Store {
	var seed []core.Expense
	for i, line := range readLines(filepath.Join(base, SeedFile)) {
		d, err := parseSeedLine(line)
		if err != nil {
			slog.Warn("Skipping seed line", "line", i+1, "error", err)
			continue
		}
		seed = append(seed, d.WithID(uuid.NewString()))
	}
	return New(seed)
}

// List returns a copy of the collection.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

// Create stores the draft under a fresh id.
func (s *Store) Create(_ context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := d.WithID(s.newID())
	s.items = append([]core.Expense{e}, s.items...)
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", remote.ErrNotFound, id)
}

func parseSeedLine(line string) (core.ExpenseDraft, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 4 {
		return core.ExpenseDraft{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	amount, err := core.ParseMoney(parts[2])
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	d := core.ExpenseDraft{
		Title:    strings.TrimSpace(parts[1]),
		Amount:   amount,
		Category: core.ParseCategory(parts[3]),
		Date:     date,
	}
	return d, d.Validate()
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
