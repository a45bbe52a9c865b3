// Package history keeps snapshots of finished sessions.
package history

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sant0-9/soapflow/internal/asmr"
)

var (
	ErrNotFound    = errors.New("history item not found")
	ErrDuplicateID = errors.New("duplicate history id")
)

// Item is a snapshot of a completed session
type Item struct {
	ID        string               `json:"id"`
	Timestamp int64                `json:"timestamp"` // unix milliseconds
	Result    asmr.GeneratedResult `json:"result"`
}

// Clone returns a copy that shares no maps with i
func (i Item) Clone() Item {
	return Item{
		ID:        i.ID,
		Timestamp: i.Timestamp,
		Result:    *i.Result.Clone(),
	}
}

// Time returns the creation time
func (i Item) Time() time.Time {
	return time.UnixMilli(i.Timestamp)
}

// NewItem snapshots result at t. The id is the creation time in
// milliseconds; taken reports ids already in use so same-millisecond
// snapshots get a suffix.
func NewItem(t time.Time, result *asmr.GeneratedResult, taken func(id string) bool) Item {
	ms := t.UnixMilli()
	id := strconv.FormatInt(ms, 10)
	for n := 1; taken != nil && taken(id); n++ {
		id = fmt.Sprintf("%d-%d", ms, n)
	}
	return Item{
		ID:        id,
		Timestamp: ms,
		Result:    *result.Clone(),
	}
}

// Store is an append-only list of items that users may delete from
type Store interface {
	// Append adds item at the end
	Append(ctx context.Context, item Item) error

	// Remove deletes the item with id. Removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error

	// Get returns the item with id or ErrNotFound
	Get(ctx context.Context, id string) (Item, error)

	// List yields items in insertion order. Each call starts a fresh pass.
	List(ctx context.Context) iter.Seq2[Item, error]
}

// Collect drains List into a slice
func Collect(ctx context.Context, s Store) ([]Item, error) {
	var items []Item
	for item, err := range s.List(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Newest returns items newest first, the order they are displayed in
func Newest(ctx context.Context, s Store) ([]Item, error) {
	items, err := Collect(ctx, s)
	slices.Reverse(items)
	return items, err
}

// MemoryStore keeps items for the lifetime of the process
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(item.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}
	m.items = append(m.items, item.Clone())
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		m.items = slices.Delete(m.items, i, i+1)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.items[i].Clone(), nil
}

func (m *MemoryStore) List(_ context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		m.mu.RLock()
		snapshot := slices.Clone(m.items)
		m.mu.RUnlock()

		for _, item := range snapshot {
			if !yield(item.Clone(), nil) {
				return
			}
		}
	}
}

// Len returns the number of stored items
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(m.items, func(it Item) bool { return it.ID == id })
}
