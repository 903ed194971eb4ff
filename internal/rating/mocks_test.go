package rating

import (
	"context"
	"sync"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

// scoreStore is an in-memory EloScoreWriter that can be told to fail.
type scoreStore struct {
	scores  map[string]int
	writes  []string
	failFor map[string]error
}

func newScoreStore(scores map[string]int) *scoreStore {
	return &scoreStore{scores: scores, failFor: map[string]error{}}
}

func (s *scoreStore) UpdateEloRating(ctx context.Context, id string, score int) error {
	if err := s.failFor[id]; err != nil {
		return err
	}
	s.writes = append(s.writes, id)
	s.scores[id] = score
	return nil
}

// MockHistory is a mock implementation of HistoryWriter for testing.
type MockHistory struct {
	CreateFunc func(ctx context.Context, battle *domain.Battle) error
	created    []*domain.Battle
}

func (m *MockHistory) Create(ctx context.Context, battle *domain.Battle) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, battle); err != nil {
			return err
		}
	}
	m.created = append(m.created, battle)
	return nil
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any) { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any) { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type capturePublisher struct {
	events []ports.ChangeEvent
}

func (p *capturePublisher) Publish(e ports.ChangeEvent) {
	p.events = append(p.events, e)
}

type captureMetrics struct {
	battles []*domain.Battle
}

func (m *captureMetrics) RecordBattle(ctx context.Context, b *domain.Battle) {
	m.battles = append(m.battles, b)
}
func (m *captureMetrics) RecordDashboard(ctx context.Context, s domain.Summary) {}
func (m *captureMetrics) Close(ctx context.Context) error { return nil }
