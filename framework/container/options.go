package container

import (
	"context"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// Option configures a Bridge or a ModuleRegistry. The values are handed down
// to every scope they create.
type Option func(*settings)

type settings struct {
	ambient  context.Context
	injector *FieldInjector
	log      *zap.Logger
	observer Observer
	process  *lifecycle.Lifecycle
	accepted []lifecycle.Kind
}

func newSettings(opts []Option) settings {
	s := settings{
		ambient:  context.Background(),
		log:      zap.NewNop(),
		observer: nopObserver{},
		accepted: []lifecycle.Kind{lifecycle.KindApplication, lifecycle.KindScreen, lifecycle.KindSubScreen},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Ambient sets the context handed to ProvideContext providers.
func Ambient(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.ambient = ctx
		}
	}
}

// Injector sets the field injector used by created scopes.
func Injector(f *FieldInjector) Option {
	return func(s *settings) { s.injector = f }
}

// Logger sets the logger.
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// Metrics sets the bookkeeping observer.
func Metrics(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// ProcessLifecycle sets the lifecycle that application-kind hosts are bound
// to. Without it an application host's own lifecycle is used.
func ProcessLifecycle(lc *lifecycle.Lifecycle) Option {
	return func(s *settings) { s.process = lc }
}

// AcceptHostKinds replaces the host kinds a ModuleRegistry may be
// initialised with. The default is application, screen and sub-screen.
func AcceptHostKinds(kinds ...lifecycle.Kind) Option {
	return func(s *settings) { s.accepted = kinds }
}

func (s settings) scopeOptions(name string) []ScopeOption {
	return []ScopeOption{
		WithName(name),
		WithAmbient(s.ambient),
		WithInjector(s.injector),
		WithLogger(s.log),
		WithObserver(s.observer),
	}
}

func (s settings) accepts(k lifecycle.Kind) bool {
	for _, a := range s.accepted {
		if a == k {
			return true
		}
	}
	return false
}

// lifecycleOf picks the lifecycle a host is observed through: the process
// lifecycle for application hosts when one is configured, otherwise the
// host's own.
func (s settings) lifecycleOf(h lifecycle.Host) *lifecycle.Lifecycle {
	if h.HostKind() == lifecycle.KindApplication && s.process != nil {
		return s.process
	}
	if owner, ok := h.(lifecycle.Owner); ok {
		return owner.Lifecycle()
	}
	return nil
}
