package screen

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app/viewmodel"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// ErrSessionNotFound is returned for an unknown or finished session.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live screens and their panels. It attaches each host to
// the bridge before dispatching Created, and drives Destroyed itself.
//
// Manager is not safe for concurrent use; run it on the main loop.
type Manager struct {
	bridge  *container.Bridge
	log     *zap.Logger
	screens map[string]*Screen
	panels  map[string]*Panel
}

func NewManager(bridge *container.Bridge, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		bridge:  bridge,
		log:     log.Named("screens"),
		screens: make(map[string]*Screen),
		panels:  make(map[string]*Panel),
	}
}

// Open creates a new session screen.
func (m *Manager) Open() (*Screen, error) {
	s := New()
	if err := m.attach(s); err != nil {
		return nil, err
	}
	start(s.lc)
	m.screens[s.id] = s
	m.log.Info("session opened", zap.String("session", s.id))
	return s, nil
}

// Get returns the live screen for id.
func (m *Manager) Get(id string) (*Screen, error) {
	s, ok := m.screens[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return len(m.screens) }

// Recreate destroys the session's screen without finishing it and builds a
// replacement with the same ID, the way a host is rebuilt after a
// configuration change. View models survive.
func (m *Manager) Recreate(id string) (*Screen, error) {
	old, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	panel, hasPanel := m.panels[id]
	if hasPanel {
		stop(panel.lc, false)
	}
	stop(old.lc, false)

	s := &Screen{id: old.id, lc: lifecycle.New()}
	if err := m.attach(s); err != nil {
		delete(m.screens, id)
		delete(m.panels, id)
		return nil, err
	}
	start(s.lc)
	m.screens[id] = s

	if hasPanel {
		p := newPanel(s)
		if err := m.attach(p); err != nil {
			delete(m.panels, id)
			return nil, err
		}
		start(p.lc)
		m.panels[id] = p
	}
	m.log.Info("session recreated", zap.String("session", id))
	return s, nil
}

// Close finishes the session. Its panel goes with it.
func (m *Manager) Close(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if p, ok := m.panels[id]; ok {
		stop(p.lc, true)
		delete(m.panels, id)
	}
	stop(s.lc, true)
	delete(m.screens, id)
	m.log.Info("session closed", zap.String("session", id))
	return nil
}

// CloseAll finishes every live session.
func (m *Manager) CloseAll() {
	for id := range m.screens {
		_ = m.Close(id)
	}
}

// Cart returns the session's cart view model.
func (m *Manager) Cart(id string) (*viewmodel.Cart, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	scope, ok := m.bridge.Scope(s, viewmodel.Binder{})
	if !ok {
		return nil, fmt.Errorf("%w: %s has no scope", ErrSessionNotFound, id)
	}
	return container.Resolve[*viewmodel.Cart](scope)
}

// Products returns the session's catalog view model.
func (m *Manager) Products(id string) (*viewmodel.Products, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	scope, ok := m.bridge.Scope(s, viewmodel.Binder{})
	if !ok {
		return nil, fmt.Errorf("%w: %s has no scope", ErrSessionNotFound, id)
	}
	return container.Resolve[*viewmodel.Products](scope)
}

// Summary returns the summary view model of the session's panel, opening
// the panel on first use.
func (m *Manager) Summary(id string) (*viewmodel.Summary, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	p, ok := m.panels[id]
	if !ok {
		p = newPanel(s)
		if err := m.attach(p); err != nil {
			return nil, err
		}
		start(p.lc)
		m.panels[id] = p
	}
	scope, ok := m.bridge.Scope(p, viewmodel.PanelBinder{})
	if !ok {
		return nil, fmt.Errorf("%w: panel of %s has no scope", ErrSessionNotFound, id)
	}
	return container.Resolve[*viewmodel.Summary](scope)
}

func (m *Manager) attach(h container.ScopedHost) error {
	ok, err := m.bridge.OnCreate(h)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host %s was not attached", h.HostID())
	}
	return nil
}
