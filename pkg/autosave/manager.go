// Package autosave debounces field edits and saves them, keeping a per-field
// save status that widgets can query or subscribe to.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/romdo/go-debounce"
	"github.com/sirupsen/logrus"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

const DefaultWait = time.Second

// Logger defines the logging interface for Manager
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// SaveFunc persists the settled value of a field.
type SaveFunc func(ctx context.Context, value any) error

type StatusFunc func(status models.SaveStatus)

type Options struct {
	Wait   time.Duration // debounce window; DefaultWait when zero
	Logger Logger
}

// Manager coordinates auto-saves. Each field has at most one save in flight;
// values settled meanwhile are queued and the latest one is saved once the
// in-flight save resolves. Fields are independent of each other.
type Manager struct {
	ctx    context.Context
	wait   time.Duration
	logger Logger
	mu     sync.Mutex
	fields map[string]*field
	wg     sync.WaitGroup
	closed bool
}

type field struct {
	id          string
	status      models.SaveStatus
	value       any
	save        SaveFunc
	armed       bool // a debounced settle is pending
	inFlight    bool
	queued      bool
	debounced   func()
	cancel      func()
	subscribers map[int]StatusFunc
	nextSubID   int
	seq         uint64 // bumped on every status change

	deliverMu sync.Mutex
	delivered uint64 // seq of the last change subscribers saw
}

// notification is a status change to deliver once the lock is released.
// start, when set, launches the save after subscribers have seen the change.
type notification struct {
	f           *field
	seq         uint64
	status      models.SaveStatus
	subscribers []StatusFunc
	start       func()
}

// deliver passes the change to subscribers unless a later change of the same
// field was delivered first, so subscribers see a field's statuses in order
// even with concurrent writers.
func (n notification) deliver() {
	if n.f != nil {
		n.f.deliverMu.Lock()
		if n.seq > n.f.delivered {
			n.f.delivered = n.seq
			for _, fn := range n.subscribers {
				fn(n.status)
			}
		}
		n.f.deliverMu.Unlock()
	}
	if n.start != nil {
		n.start()
	}
}

// NewManager creates a Manager. ctx is passed to every save; it is not
// cancelled when the manager closes.
func NewManager(ctx context.Context, opts Options) *Manager {
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Manager{
		ctx:    ctx,
		wait:   opts.Wait,
		logger: opts.Logger,
		fields: make(map[string]*field),
	}
}

// HandleFieldChange records a new value for fieldID. While isTyping is true
// the status is typing and the save waits for the debounce window to pass;
// otherwise the value settles immediately. Save errors only show up as the
// error status.
func (m *Manager) HandleFieldChange(fieldID string, value any, isTyping bool, save SaveFunc) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	f := m.fieldLocked(fieldID)
	f.value = value
	f.save = save

	if isTyping {
		f.armed = true
		n := m.setStatusLocked(f, models.TypingSaveStatus)
		debounced := f.debounced
		m.mu.Unlock()
		n.deliver()
		debounced()
		return
	}

	m.disarmLocked(f)
	n := m.settleLocked(f)
	m.mu.Unlock()
	n.deliver()
}

// GetSaveStatus returns the current status of fieldID; idle for unknown fields.
func (m *Manager) GetSaveStatus(fieldID string) models.SaveStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.fields[fieldID]; ok {
		return f.status
	}
	return models.IdleSaveStatus
}

// SubscribeToStatus calls fn on status changes of fieldID until the returned
// function is called. A change superseded before it could be delivered is
// skipped. fn must not change fieldID itself.
func (m *Manager) SubscribeToStatus(fieldID string, fn StatusFunc) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	f := m.fieldLocked(fieldID)
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(f.subscribers, id)
	}
}

// Flush settles every field that is still waiting for its debounce window.
func (m *Manager) Flush() {
	m.mu.Lock()
	var pending []notification
	for _, f := range m.fields {
		if !f.armed {
			continue
		}
		m.disarmLocked(f)
		pending = append(pending, m.settleLocked(f))
	}
	m.mu.Unlock()
	for _, n := range pending {
		n.deliver()
	}
}

// Wait blocks until no save is in flight.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels pending debounces and drops subscribers. Saves already in
// flight run to completion but their results are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, f := range m.fields {
		f.armed = false
		f.queued = false
		f.cancel()
		f.subscribers = nil
	}
}

func (m *Manager) fieldLocked(fieldID string) *field {
	if f, ok := m.fields[fieldID]; ok {
		return f
	}
	f := &field{
		id:          fieldID,
		status:      models.IdleSaveStatus,
		subscribers: make(map[int]StatusFunc),
	}
	f.debounced, f.cancel = m.newDebouncer(f)
	m.fields[fieldID] = f
	return f
}

func (m *Manager) newDebouncer(f *field) (func(), func()) {
	return debounce.New(m.wait, func() { m.onSettle(f) })
}

// disarmLocked drops a pending debounce. The debouncer is replaced so that a
// timer that already fired cannot settle the field a second time.
func (m *Manager) disarmLocked(f *field) {
	if !f.armed {
		return
	}
	f.armed = false
	f.cancel()
	f.debounced, f.cancel = m.newDebouncer(f)
}

func (m *Manager) onSettle(f *field) {
	m.mu.Lock()
	if m.closed || !f.armed {
		m.mu.Unlock()
		return
	}
	f.armed = false
	n := m.settleLocked(f)
	m.mu.Unlock()
	n.deliver()
}

// settleLocked starts a save of the field's latest value, or queues it behind
// the save in flight.
func (m *Manager) settleLocked(f *field) notification {
	if f.save == nil {
		return notification{}
	}
	if f.inFlight {
		f.queued = true
		return m.setStatusLocked(f, models.SavingSaveStatus)
	}
	f.inFlight = true
	value, save := f.value, f.save
	m.wg.Add(1)
	n := m.setStatusLocked(f, models.SavingSaveStatus)
	n.start = func() { go m.run(f, value, save) }
	return n
}

func (m *Manager) run(f *field, value any, save SaveFunc) {
	defer m.wg.Done()
	err := m.invoke(save, value)

	m.mu.Lock()
	f.inFlight = false
	if m.closed {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.logger.Errorf("Auto-save of field %s failed: %v", f.id, err)
	}
	var n notification
	switch {
	case f.queued:
		f.queued = false
		n = m.settleLocked(f)
	case f.armed:
		n = m.setStatusLocked(f, models.TypingSaveStatus)
	case err != nil:
		n = m.setStatusLocked(f, models.ErrorSaveStatus)
	default:
		n = m.setStatusLocked(f, models.SavedSaveStatus)
	}
	m.mu.Unlock()
	n.deliver()
}

// invoke calls save, turning a panic into an error so that a broken callback
// leaves the field in the error status.
func (m *Manager) invoke(save SaveFunc, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("save panicked: %v", r)
		}
	}()
	return save(m.ctx, value)
}

func (m *Manager) setStatusLocked(f *field, status models.SaveStatus) notification {
	if f.status == status {
		return notification{}
	}
	f.status = status
	f.seq++
	subs := make([]StatusFunc, 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	return notification{f: f, seq: f.seq, status: status, subscribers: subs}
}
