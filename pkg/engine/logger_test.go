package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

func TestInMemoryRequestLogger_Log(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	entry := &requestlog.Entry{
		ServiceID:      "svc-1",
		Method:         "GET",
		Path:           "/api/test",
		ResponseStatus: 200,
	}

	logger.Log(entry)

	assert.Equal(t, 1, logger.Count())
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestInMemoryRequestLogger_Get(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	entry := &requestlog.Entry{
		Method: "GET",
		Path:   "/api/test",
	}
	logger.Log(entry)

	retrieved := logger.Get(entry.ID)
	require.NotNil(t, retrieved)
	assert.Equal(t, entry.Path, retrieved.Path)
}

func TestInMemoryRequestLogger_GetNotFound(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	retrieved := logger.Get("nonexistent")
	assert.Nil(t, retrieved)
}

func TestInMemoryRequestLogger_List(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	for i := 0; i < 5; i++ {
		logger.Log(&requestlog.Entry{
			Method: "GET",
			Path:   "/api/test",
		})
	}

	entries := logger.List(nil)
	assert.Len(t, entries, 5)

	// Verify reverse order (newest first)
	for i := 0; i < len(entries)-1; i++ {
		assert.True(t, entries[i].Timestamp.After(entries[i+1].Timestamp) ||
			entries[i].Timestamp.Equal(entries[i+1].Timestamp))
	}
}

func TestInMemoryRequestLogger_ListWithFilter(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{Method: "GET", Path: "/api/users"})
	logger.Log(&requestlog.Entry{Method: "POST", Path: "/api/users"})
	logger.Log(&requestlog.Entry{Method: "GET", Path: "/api/orders"})

	// Filter by method
	entries := logger.List(&requestlog.Filter{Method: "GET"})
	assert.Len(t, entries, 2)

	// Filter by path prefix
	entries = logger.List(&requestlog.Filter{Path: "/api/users"})
	assert.Len(t, entries, 2)

	// Combined filter
	entries = logger.List(&requestlog.Filter{Method: "GET", Path: "/api/users"})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_FilterByServiceID(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{ServiceID: "svc-users", Method: "GET"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-users", Method: "POST"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-orders", Method: "GET"})

	entries := logger.List(&requestlog.Filter{ServiceID: "svc-users"})
	assert.Len(t, entries, 2)

	entries = logger.List(&requestlog.Filter{ServiceID: "svc-users", Method: "GET"})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_FilterByForwarded(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{Method: "GET", Forwarded: true})
	logger.Log(&requestlog.Entry{Method: "GET", MatchedRuleID: "rule-1"})
	logger.Log(&requestlog.Entry{Method: "GET", Forwarded: true})

	forwarded := true
	entries := logger.List(&requestlog.Filter{Forwarded: &forwarded})
	assert.Len(t, entries, 2)

	mocked := false
	entries = logger.List(&requestlog.Filter{Forwarded: &mocked})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_FilterByHasError(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{Method: "GET"})
	logger.Log(&requestlog.Entry{Method: "GET", Error: "request body too large"})

	hasError := true
	entries := logger.List(&requestlog.Filter{HasError: &hasError})
	require.Len(t, entries, 1)
	assert.Equal(t, "request body too large", entries[0].Error)

	noError := false
	entries = logger.List(&requestlog.Filter{HasError: &noError})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_ListWithLimit(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	for i := 0; i < 10; i++ {
		logger.Log(&requestlog.Entry{Method: "GET", Path: "/api/test"})
	}

	entries := logger.List(&requestlog.Filter{Limit: 3})
	assert.Len(t, entries, 3)
}

func TestInMemoryRequestLogger_ListWithOffset(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	for i := 0; i < 10; i++ {
		logger.Log(&requestlog.Entry{Method: "GET", Path: "/api/test"})
	}

	entries := logger.List(&requestlog.Filter{Offset: 3})
	assert.Len(t, entries, 7)

	entries = logger.List(&requestlog.Filter{Offset: 20})
	assert.Len(t, entries, 0)
}

func TestInMemoryRequestLogger_Clear(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	for i := 0; i < 5; i++ {
		logger.Log(&requestlog.Entry{Method: "GET"})
	}
	assert.Equal(t, 5, logger.Count())

	logger.Clear()
	assert.Equal(t, 0, logger.Count())
}

func TestInMemoryRequestLogger_FIFOEviction(t *testing.T) {
	logger := NewInMemoryRequestLogger(3)

	// Log more than capacity
	logger.Log(&requestlog.Entry{Method: "GET", Path: "/first"})
	time.Sleep(1 * time.Millisecond)
	logger.Log(&requestlog.Entry{Method: "GET", Path: "/second"})
	time.Sleep(1 * time.Millisecond)
	logger.Log(&requestlog.Entry{Method: "GET", Path: "/third"})
	time.Sleep(1 * time.Millisecond)
	logger.Log(&requestlog.Entry{Method: "GET", Path: "/fourth"})

	assert.Equal(t, 3, logger.Count())

	entries := logger.List(nil)
	// Newest first
	assert.Equal(t, "/fourth", entries[0].Path)
	assert.Equal(t, "/third", entries[1].Path)
	assert.Equal(t, "/second", entries[2].Path)
	// First should be evicted
}

func TestInMemoryRequestLogger_FilterByMatchedID(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{Method: "GET", MatchedRuleID: "rule-1"})
	logger.Log(&requestlog.Entry{Method: "GET", MatchedRuleID: "rule-2"})
	logger.Log(&requestlog.Entry{Method: "GET", MatchedRuleID: ""}) // no match

	entries := logger.List(&requestlog.Filter{MatchedID: "rule-1"})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_FilterByStatusCode(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{Method: "GET", ResponseStatus: 200})
	logger.Log(&requestlog.Entry{Method: "GET", ResponseStatus: 404})
	logger.Log(&requestlog.Entry{Method: "GET", ResponseStatus: 200})

	entries := logger.List(&requestlog.Filter{StatusCode: 200})
	assert.Len(t, entries, 2)
}

func TestInMemoryRequestLogger_NilEntry(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(nil)
	assert.Equal(t, 0, logger.Count())
}

func TestInMemoryRequestLogger_DefaultCapacity(t *testing.T) {
	logger := NewInMemoryRequestLogger(0)
	assert.NotNil(t, logger)

	for i := 0; i < 100; i++ {
		logger.Log(&requestlog.Entry{Method: "GET"})
	}
	assert.Equal(t, 100, logger.Count())
}

func TestInMemoryRequestLogger_ConcurrentAccess(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)
	done := make(chan bool)

	// Writer goroutine
	go func() {
		for i := 0; i < 50; i++ {
			logger.Log(&requestlog.Entry{Method: "GET"})
		}
		done <- true
	}()

	// Reader goroutine
	go func() {
		for i := 0; i < 50; i++ {
			_ = logger.List(nil)
			_ = logger.Count()
		}
		done <- true
	}()

	<-done
	<-done

	// Should not panic
	assert.GreaterOrEqual(t, logger.Count(), 0)
}

func TestInMemoryRequestLogger_ClearByServiceID(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{ServiceID: "svc-1", Method: "GET"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-1", Method: "POST"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-2", Method: "GET"})

	assert.Equal(t, 3, logger.Count())

	logger.ClearByServiceID("svc-1")

	assert.Equal(t, 1, logger.Count())

	entries := logger.List(&requestlog.Filter{ServiceID: "svc-1"})
	assert.Len(t, entries, 0)

	entries = logger.List(&requestlog.Filter{ServiceID: "svc-2"})
	assert.Len(t, entries, 1)
}

func TestInMemoryRequestLogger_CountByServiceID(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	logger.Log(&requestlog.Entry{ServiceID: "svc-1", Method: "GET"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-1", Method: "GET"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-1", Method: "GET"})
	logger.Log(&requestlog.Entry{ServiceID: "svc-2", Method: "GET"})

	assert.Equal(t, 3, logger.CountByServiceID("svc-1"))
	assert.Equal(t, 1, logger.CountByServiceID("svc-2"))
	assert.Equal(t, 0, logger.CountByServiceID("svc-3"))
}

func TestInMemoryRequestLogger_Subscribe(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	// Subscribe before logging
	sub, unsubscribe := logger.Subscribe()
	defer unsubscribe()

	entry := &requestlog.Entry{Method: "GET", Path: "/api/test"}
	logger.Log(entry)

	// Should receive the entry
	select {
	case received := <-sub:
		assert.Equal(t, entry.Path, received.Path)
		assert.NotEmpty(t, received.ID)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Expected to receive entry from subscriber")
	}
}

func TestInMemoryRequestLogger_Unsubscribe(t *testing.T) {
	logger := NewInMemoryRequestLogger(100)

	sub, unsubscribe := logger.Subscribe()
	unsubscribe()

	logger.Log(&requestlog.Entry{Method: "GET"})

	// Channel is closed after unsubscribe
	_, open := <-sub
	assert.False(t, open)
}
