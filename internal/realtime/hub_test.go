package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/agentlab/internal/pkg/logger"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

func recv(t *testing.T, ch <-chan ports.ChangeEvent) ports.ChangeEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for change event")
	}
	return ports.ChangeEvent{}
}

func assertNoEvent(t *testing.T, ch <-chan ports.ChangeEvent) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversByTableAndFilter(t *testing.T) {
	hub := NewHub(logger.Nop())

	all := hub.Subscribe("experiments", Filter{})
	goalOnly := hub.Subscribe("experiments", Filter{Column: "goal", Value: "Summarize"})
	battles := hub.Subscribe("battles", Filter{})
	defer all.Close()
	defer goalOnly.Close()
	defer battles.Close()

	hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeInsert, Record: map[string]string{"id": "1", "goal": "Translate"}})
	hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeUpdate, Record: map[string]string{"id": "2", "goal": "Summarize"}})

	first := recv(t, all.Events())
	assert.Equal(t, "1", first.Record["id"])
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, "2", recv(t, all.Events()).Record["id"])

	got := recv(t, goalOnly.Events())
	assert.Equal(t, ports.ChangeUpdate, got.Type)
	assertNoEvent(t, goalOnly.Events())
	assertNoEvent(t, battles.Events())
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe("experiments", Filter{})
	require.Equal(t, 1, hub.SubscriberCount("experiments"))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount("experiments"))
	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel should be closed")

	hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeDelete})
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe("battles", Filter{})
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			hub.Publish(ports.ChangeEvent{Table: "battles", Type: ports.ChangeInsert})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Len(t, sub.Events(), defaultBuffer)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", Filter{}, false},
		{"goal=eq.Summarize", Filter{Column: "goal", Value: "Summarize"}, false},
		{"id=eq.", Filter{Column: "id", Value: ""}, false},
		{"goal=gt.3", Filter{}, true},
		{"=eq.x", Filter{}, true},
		{"nonsense", Filter{}, true},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHub_Stream(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe("experiments", Filter{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/changes", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.Stream(rec, req, sub, time.Hour)
		close(done)
	}()

	hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeInsert, Record: map[string]string{"id": "x"}})
	// Closing the subscription ends the stream once queued events are written.
	time.Sleep(50 * time.Millisecond)
	sub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop")
	}
	cancel()

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(body, "event: insert"), body)
	assert.True(t, strings.Contains(body, `"id":"x"`), body)
}
