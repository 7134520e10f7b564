package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenSet_RecordAndSeen(t *testing.T) {
	s := NewSeenSet(10, time.Minute)
	assert.False(t, s.Seen("a"))
	s.Record("a")
	assert.True(t, s.Seen("a"))
	assert.Equal(t, 1, s.Len())
}

func TestSeenSet_Expiry(t *testing.T) {
	s := NewSeenSet(10, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record("a")
	now = now.Add(2 * time.Minute)
	assert.False(t, s.Seen("a"))
	assert.Equal(t, 0, s.Len(), "expired entries are removed on lookup")
}

func TestSeenSet_EvictsOldest(t *testing.T) {
	s := NewSeenSet(2, time.Hour)
	s.Record("a")
	s.Record("b")
	s.Record("c")

	assert.False(t, s.Seen("a"))
	assert.True(t, s.Seen("b"))
	assert.True(t, s.Seen("c"))
	assert.Equal(t, 2, s.Len())
}

func TestSeenSet_RecordRefreshesRecency(t *testing.T) {
	s := NewSeenSet(2, time.Hour)
	s.Record("a")
	s.Record("b")
	s.Record("a")
	s.Record("c")

	assert.True(t, s.Seen("a"))
	assert.False(t, s.Seen("b"))
}

func TestSeenSet_ConcurrentAccess(t *testing.T) {
	s := NewSeenSet(1000, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("evt-%d", i)
			s.Record(id)
			_ = s.Seen(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestDedupe(t *testing.T) {
	seen := NewSeenSet(10, time.Hour)
	calls := 0
	h := Dedupe(seen, "t", "g", func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, testLogger())

	evt := &Event{ID: "evt-1"}
	require.NoError(t, h(context.Background(), evt))
	require.NoError(t, h(context.Background(), evt))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(context.Background(), &Event{ID: "evt-2"}))
	assert.Equal(t, 2, calls)
}

func TestDedupe_EmptyIDPassesThrough(t *testing.T) {
	seen := NewSeenSet(10, time.Hour)
	calls := 0
	h := Dedupe(seen, "t", "g", func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, h(context.Background(), &Event{}))
	require.NoError(t, h(context.Background(), &Event{}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, seen.Len())
}

func TestDedupe_FailureNotRecorded(t *testing.T) {
	seen := NewSeenSet(10, time.Hour)
	fail := true
	calls := 0
	h := Dedupe(seen, "t", "g", func(ctx context.Context, e *Event) error {
		calls++
		if fail {
			return errors.New("boom")
		}
		return nil
	}, testLogger())

	evt := &Event{ID: "evt-1"}
	require.Error(t, h(context.Background(), evt))
	fail = false
	require.NoError(t, h(context.Background(), evt))
	assert.Equal(t, 2, calls)
	assert.True(t, seen.Seen("evt-1"))
}
