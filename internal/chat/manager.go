package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultReplyTimeout = 30 * time.Second

// Responder produces the assistant's next reply from a session history whose
// last turn is the user's message.
type Responder interface {
	Reply(ctx context.Context, history []Turn) (string, error)
}

// Options tune a Manager. Zero values select defaults.
type Options struct {
	HistoryWindow int
	Timeout       time.Duration
	NewID         func() string
}

// Manager runs chat turns. Turns for the same session are serialized;
// different sessions proceed independently.
type Manager struct {
	store     SessionStore
	responder Responder
	window    int
	timeout   time.Duration
	newID     func() string
	locks     *sessionLocks
}

func NewManager(store SessionStore, responder Responder, opts Options) *Manager {
	m := &Manager{
		store:     store,
		responder: responder,
		window:    opts.HistoryWindow,
		timeout:   opts.Timeout,
		newID:     opts.NewID,
		locks:     newSessionLocks(),
	}
	if m.window < 2 {
		m.window = DefaultHistoryWindow
	}
	if m.timeout <= 0 {
		m.timeout = defaultReplyTimeout
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Respond records message in the session, obtains a reply, records it, and
// returns it with the resolved session id. A blank sessionID starts a new
// session. A blank message gets a canned prompt without touching history.
//
// Responder failures never surface: the fallback reply is recorded and
// returned instead. err is non-nil only when the store fails.
func (m *Manager) Respond(ctx context.Context, sessionID, message string) (reply, id string, err error) {
	id = strings.TrimSpace(sessionID)
	if id == "" {
		id = m.newID()
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		return EmptyMessageReply, id, nil
	}

	unlock := m.locks.lock(id)
	defer unlock()

	if err := m.store.Append(ctx, id, Turn{Role: RoleUser, Content: msg}); err != nil {
		return "", id, fmt.Errorf("recording user turn: %w", err)
	}
	if err := m.store.Trim(ctx, id, m.window); err != nil {
		return "", id, fmt.Errorf("trimming history: %w", err)
	}
	history, err := m.store.History(ctx, id)
	if err != nil {
		return "", id, fmt.Errorf("loading history: %w", err)
	}

	reply = m.generate(ctx, id, history)

	// The assistant turn is recorded even when ctx ended during generation,
	// so history always closes with a (user, assistant) pair.
	storeCtx := context.WithoutCancel(ctx)
	if err := m.store.Append(storeCtx, id, Turn{Role: RoleAssistant, Content: reply}); err != nil {
		return "", id, fmt.Errorf("recording assistant turn: %w", err)
	}
	if err := m.store.Trim(storeCtx, id, m.window); err != nil {
		return "", id, fmt.Errorf("trimming history: %w", err)
	}
	return reply, id, nil
}

func (m *Manager) generate(ctx context.Context, id string, history []Turn) string {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	reply, err := m.responder.Reply(ctx, history)
	if err != nil {
		slog.Warn("chat reply failed, using fallback", "session_id", id, "error", err, "elapsed", time.Since(start))
		return FallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.Warn("chat reply empty, using fallback", "session_id", id)
		return FallbackReply
	}
	slog.Debug("chat reply", "session_id", id, "turns", len(history), "elapsed", time.Since(start))
	return reply
}

// History returns a copy of the session's turns, oldest first.
func (m *Manager) History(ctx context.Context, sessionID string) ([]Turn, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	h, err := m.store.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		h = []Turn{}
	}
	return h, nil
}

// ClearSession forgets the session. It is safe to call repeatedly and on
// sessions that never existed.
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	return m.store.Clear(ctx, sessionID)
}
