// Package session owns per-conversation state: identity, turn history,
// interest profile, and turn serialization. Sessions are isolated from
// each other and collected after an idle timeout.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/majormentor/major-mentor-go/internal/agent"
	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
)

// maxInterestTags caps the session's accumulated interest profile.
const maxInterestTags = 8

// Session is one conversation's state. All fields are guarded by the
// manager; turns on the same session never run concurrently.
type Session struct {
	ID        string
	CreatedAt time.Time

	busy       bool
	lastActive time.Time
	history    []genai.Message
	interests  []string
}

// ManagerConfig sizes the session store.
type ManagerConfig struct {
	IdleTTL    time.Duration // idle time before a session is collected
	MaxHistory int           // turns retained per session
}

// Manager creates, serializes, and expires sessions, and runs each
// utterance through the agent controller with the session's context.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	controller *agent.Controller
	config     ManagerConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its idle-sweep loop.
// Callers must Stop it when done.
func NewManager(controller *agent.Controller, cfg ManagerConfig, log *logger.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 12
	}

	m := &Manager{
		sessions:   make(map[string]*Session),
		controller: controller,
		config:     cfg,
		logger:     log,
		stopCh:     make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// SetMetrics attaches a metrics recorder. Optional.
func (m *Manager) SetMetrics(mx *metrics.Metrics) {
	m.metrics = mx
}

// Create registers a new session and returns its id.
func (m *Manager) Create() string {
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetActiveSessions(count)
	}
	m.logger.WithSessionID(s.ID).Debug("session created")
	return s.ID
}

// Expire removes a session immediately.
func (m *Manager) Expire(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return domerrors.ErrSessionNotFound
	}
	if m.metrics != nil {
		m.metrics.SetActiveSessions(count)
	}
	m.logger.WithSessionID(id).Debug("session expired")
	return nil
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// HandleUtterance runs one turn on the session. Turns on the same session
// are serialized: a second utterance while one is in flight is rejected
// with ErrTurnInProgress rather than queued. A failed or canceled turn
// leaves the session history untouched.
func (m *Manager) HandleUtterance(ctx context.Context, id, text string) (*agent.TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domerrors.NewValidationError("text", "empty utterance")
	}

	input, err := m.beginTurn(id, text)
	if err != nil {
		return nil, err
	}
	defer m.endTurn(id)

	result, err := m.controller.RunTurn(ctx, *input)
	if err != nil {
		return nil, err
	}

	m.commitTurn(id, text, result)
	return result, nil
}

// beginTurn marks the session busy and snapshots the state the turn needs.
func (m *Manager) beginTurn(id, text string) (*agent.TurnInput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domerrors.ErrSessionNotFound
	}
	if s.busy {
		return nil, domerrors.ErrTurnInProgress
	}
	s.busy = true
	s.lastActive = time.Now()

	return &agent.TurnInput{
		Utterance:    text,
		History:      append([]genai.Message{}, s.history...),
		InterestTags: append([]string{}, s.interests...),
	}, nil
}

func (m *Manager) endTurn(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.busy = false
	}
}

// commitTurn appends the completed turn to the session history, updates
// the interest profile from any recommendation queries, and trims history
// to the retention cap.
func (m *Manager) commitTurn(id, text string, result *agent.TurnResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		// Session was expired while the turn ran; drop the result.
		return
	}

	s.history = append(s.history,
		genai.Message{Role: genai.RoleUser, Content: text},
		genai.Message{Role: genai.RoleAssistant, Content: result.Answer},
	)
	if limit := m.config.MaxHistory * 2; len(s.history) > limit {
		s.history = append([]genai.Message{}, s.history[len(s.history)-limit:]...)
	}

	for _, call := range result.ToolCalls {
		if call.Tool != genai.FuncRecommendDepartments || call.Status != "ok" {
			continue
		}
		if query, ok := call.Args[genai.ParamQuery].(string); ok {
			s.addInterest(query)
		}
	}

	s.lastActive = time.Now()
}

func (s *Session) addInterest(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, existing := range s.interests {
		if existing == tag {
			return
		}
	}
	s.interests = append(s.interests, tag)
	if len(s.interests) > maxInterestTags {
		s.interests = s.interests[len(s.interests)-maxInterestTags:]
	}
}

// Stop terminates the sweep loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep collects sessions idle past the TTL. Busy sessions are skipped;
// their turn completion refreshes lastActive anyway.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	collected := 0
	for id, s := range m.sessions {
		if s.busy || now.Sub(s.lastActive) < m.config.IdleTTL {
			continue
		}
		delete(m.sessions, id)
		collected++
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if collected > 0 {
		m.logger.WithField("collected", collected).Info("idle sessions collected")
		if m.metrics != nil {
			m.metrics.SetActiveSessions(count)
		}
	}
}
