package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// ── ModuleRegistry ────────────────────────────────────────────────────────────

// ModuleRegistry is the process-wide variant of Scope for dependencies that
// outlive any single screen, such as repositories.
//
// It holds at most one live module at a time. Init starts it and binds it to
// a host; the host's Destroyed transition (or Teardown) ends it, after which
// Init may be called again.
//
//	modules := container.NewModuleRegistry(repository.Binder{...})
//	if err := modules.Init(app); err != nil { ... }
//	repo, err := container.Resolve[repository.CartRepository](modules, repository.Database)
type ModuleRegistry struct {
	binder Binder
	cfg    settings
	log    *zap.Logger
	live   *module
}

type module struct {
	registry *ModuleRegistry
	host     lifecycle.Host
	lc       *lifecycle.Lifecycle
	scope    *Scope
}

func (m *module) OnTransition(t lifecycle.Transition) {
	if t.Event != lifecycle.Destroyed {
		return
	}
	if err := m.registry.teardown(m); err != nil {
		m.registry.log.Warn("module teardown failed", zap.Error(err))
	}
}

// NewModuleRegistry returns an uninitialised registry over binder.
func NewModuleRegistry(binder Binder, opts ...Option) *ModuleRegistry {
	cfg := newSettings(opts)
	return &ModuleRegistry{
		binder: binder,
		cfg:    cfg,
		log:    cfg.log.Named("module"),
	}
}

// Init builds the registry's index and binds it to host's lifecycle.
//
// It fails with ErrDuplicateInitialization while a module is live, and with
// UnsupportedHostContextError when host's kind is not accepted or host has
// no lifecycle to follow.
func (m *ModuleRegistry) Init(host lifecycle.Host) error {
	if host == nil {
		return &UnsupportedHostContextError{Reason: "nil host"}
	}
	if m.live != nil {
		return fmt.Errorf("%w: bound to host %q", ErrDuplicateInitialization, m.live.host.HostID())
	}
	if !m.cfg.accepts(host.HostKind()) {
		return &UnsupportedHostContextError{HostID: host.HostID(), Kind: host.HostKind()}
	}
	lc := m.cfg.lifecycleOf(host)
	if lc == nil {
		return &UnsupportedHostContextError{HostID: host.HostID(), Kind: host.HostKind(), Reason: "host has no lifecycle"}
	}

	ix, err := BuildIndex(m.binder)
	if err != nil {
		return err
	}
	mod := &module{
		registry: m,
		host:     host,
		lc:       lc,
		scope:    NewScope(ix, m.cfg.scopeOptions("module/"+ix.Binder())...),
	}
	lc.AddObserver(mod)
	m.live = mod

	m.log.Info("module initialised",
		zap.String("binder", ix.Binder()),
		zap.String("host", host.HostID()),
		zap.Stringer("kind", host.HostKind()),
		zap.Int("providers", ix.Len()))
	return nil
}

// Initialized reports whether a module is live.
func (m *ModuleRegistry) Initialized() bool { return m.live != nil }

// Host returns the host the live module is bound to.
func (m *ModuleRegistry) Host() (lifecycle.Host, bool) {
	if m.live == nil {
		return nil, false
	}
	return m.live.host, true
}

// Resolve resolves key from the live module's scope.
func (m *ModuleRegistry) Resolve(key Key) (any, error) {
	if m.live == nil {
		return nil, fmt.Errorf("%w: resolving %s", ErrModuleNotInitialized, key)
	}
	return m.live.scope.Resolve(key)
}

// Delete drops the cached instance for key.
func (m *ModuleRegistry) Delete(key Key) error {
	if m.live == nil {
		return fmt.Errorf("%w: deleting %s", ErrModuleNotInitialized, key)
	}
	m.live.scope.Delete(key)
	return nil
}

// Teardown ends the live module without waiting for its host to be destroyed.
func (m *ModuleRegistry) Teardown() error {
	if m.live == nil {
		return fmt.Errorf("%w: teardown", ErrModuleNotInitialized)
	}
	return m.teardown(m.live)
}

func (m *ModuleRegistry) teardown(mod *module) error {
	if m.live != mod {
		return nil
	}
	mod.lc.RemoveObserver(mod)
	m.live = nil
	err := mod.scope.Clear()
	m.log.Info("module torn down", zap.String("host", mod.host.HostID()), zap.Error(err))
	return err
}
