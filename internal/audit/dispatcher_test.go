package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
}

func (s *blockingSink) Emit(_ context.Context, ev Event) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, ev)
	s.mu.Unlock()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	assert.Nil(t, d)

	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestCloseFlushesBufferedEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
	}
	d.Close()
	d.Close()

	assert.Len(t, sink.Events(), 5)
	d.Emit(context.Background(), Event{EventType: "late"})
	assert.Len(t, sink.Events(), 5)
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "refresh_invalid"})
	}
	assert.Greater(t, d.Dropped(), uint64(0))

	close(sink.release)
	d.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, uint64(10), d.Dropped()+uint64(len(sink.got)))
}

func TestCriticalEventsAreNotDroppedWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
		Critical:   []string{"refresh_reuse_detected"},
	}, sink)

	// park the consumer inside the sink, then fill the buffer
	d.Emit(context.Background(), Event{EventType: "login_failure"})
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
	}
	require.Equal(t, uint64(2), d.Dropped())

	emitted := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{EventType: "refresh_reuse_detected"})
		close(emitted)
	}()

	select {
	case <-emitted:
		t.Fatal("critical event returned while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(sink.release)
	select {
	case <-emitted:
	case <-time.After(2 * time.Second):
		t.Fatal("critical event never queued")
	}
	d.Close()

	byType := d.DroppedByType()
	assert.Zero(t, byType["refresh_reuse_detected"])
	assert.Equal(t, d.Dropped(), byType["login_failure"])

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "refresh_reuse_detected", sink.got[len(sink.got)-1].EventType)
}

type deadlineSink struct {
	deadlines chan bool
}

func (s deadlineSink) Emit(ctx context.Context, _ Event) {
	_, ok := ctx.Deadline()
	s.deadlines <- ok
}

func TestSinkTimeoutSetsDeadline(t *testing.T) {
	sink := deadlineSink{deadlines: make(chan bool, 2)}

	d := NewDispatcher(Config{Enabled: true, BufferSize: 2, SinkTimeout: time.Second}, sink)
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	assert.True(t, <-sink.deadlines)

	d = NewDispatcher(Config{Enabled: true, BufferSize: 2}, sink)
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	assert.False(t, <-sink.deadlines)
}

func TestBlockingEmitHonorsContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// one event may be held by the consumer, one may sit in the buffer
	for i := 0; i < 3; i++ {
		d.Emit(ctx, Event{EventType: "signup_success"})
	}
	assert.GreaterOrEqual(t, d.Dropped(), uint64(1))

	close(sink.release)
	d.Close()
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{ID: "1", EventType: "email_confirmed", Email: "a@x.com", Success: true})
	sink.Emit(context.Background(), Event{ID: "2", EventType: "login_failure", Error: "invalid_password"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "login_failure", ev.EventType)
	assert.Equal(t, "invalid_password", ev.Error)
	assert.False(t, ev.Success)
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{ID: "1", EventType: "refresh_reuse_detected", Email: "a@x.com", Metadata: map[string]string{"lost_race": "true"}})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "refresh_reuse_detected", rec["event_type"])
	assert.Equal(t, "true", rec["meta.lost_race"])
}
