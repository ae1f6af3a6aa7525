package container

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// ScopedHost marks a host for automatic scope attachment. Binders lists the
// binder kinds the host wants a scope for; a host never holds two scopes of
// the same binder kind.
type ScopedHost interface {
	lifecycle.Host
	Binders() []Binder
}

// ── HostBinding ───────────────────────────────────────────────────────────────

// HostBinding ties one host to its scopes.
type HostBinding struct {
	host     lifecycle.Host
	parent   string
	scopes   map[string]*Scope
	order    []string
	observed []observedLifecycle
}

type observedLifecycle struct {
	lc       *lifecycle.Lifecycle
	observer lifecycle.Observer
	parent   bool
}

// Host returns the host instance the binding was last attached to.
func (hb *HostBinding) Host() lifecycle.Host { return hb.host }

// Scopes returns the binding's scopes in binder order.
func (hb *HostBinding) Scopes() []*Scope {
	out := make([]*Scope, 0, len(hb.order))
	for _, name := range hb.order {
		out = append(out, hb.scopes[name])
	}
	return out
}

func (hb *HostBinding) observe(lc *lifecycle.Lifecycle, o lifecycle.Observer, parent bool) {
	lc.AddObserver(o)
	hb.observed = append(hb.observed, observedLifecycle{lc: lc, observer: o, parent: parent})
}

func (hb *HostBinding) detach() {
	for _, ol := range hb.observed {
		ol.lc.RemoveObserver(ol.observer)
	}
	hb.observed = nil
}

// suspend stops following the host's own lifecycle. Parent observers stay so
// a suspended sub-screen is still released when its parent finishes.
func (hb *HostBinding) suspend() {
	kept := hb.observed[:0]
	for _, ol := range hb.observed {
		if ol.parent {
			kept = append(kept, ol)
			continue
		}
		ol.lc.RemoveObserver(ol.observer)
	}
	hb.observed = kept
}

// hostObserver follows the host's own lifecycle.
type hostObserver struct {
	bridge  *Bridge
	binding *HostBinding
}

func (o *hostObserver) OnTransition(t lifecycle.Transition) {
	if t.Event != lifecycle.Destroyed {
		return
	}
	if err := o.bridge.OnDestroy(o.binding.host, t.Finishing); err != nil {
		o.bridge.log.Warn("host teardown failed", zap.String("host", o.binding.host.HostID()), zap.Error(err))
	}
}

// parentObserver releases a nested host when its parent finishes.
type parentObserver struct {
	bridge  *Bridge
	binding *HostBinding
}

func (o *parentObserver) OnTransition(t lifecycle.Transition) {
	if t.Event != lifecycle.Destroyed || !t.Finishing {
		return
	}
	if err := o.bridge.OnDestroy(o.binding.host, true); err != nil {
		o.bridge.log.Warn("nested host teardown failed", zap.String("host", o.binding.host.HostID()), zap.Error(err))
	}
}

// ── Bridge ────────────────────────────────────────────────────────────────────

// Bridge keeps host scopes in step with host lifecycles.
//
// The owner of a host calls OnCreate when the host is created. From then on
// the bridge observes the host's lifecycle, and a finishing Destroyed
// transition (or an explicit OnDestroy) clears every scope of the host and
// drops its binding. A non-finishing destroy keeps the scopes so that the
// recreated host, reporting the same HostID, gets them back.
//
// Application hosts are observed through the process lifecycle; sub-screen
// hosts additionally follow their parent and go away when it finishes.
type Bridge struct {
	indexes  *IndexCache
	cfg      settings
	log      *zap.Logger
	bindings map[string]*HostBinding
}

// NewBridge creates a bridge that builds scope indexes through indexes.
func NewBridge(indexes *IndexCache, opts ...Option) *Bridge {
	if indexes == nil {
		indexes = NewIndexCache()
	}
	cfg := newSettings(opts)
	return &Bridge{
		indexes:  indexes,
		cfg:      cfg,
		log:      cfg.log.Named("bridge"),
		bindings: make(map[string]*HostBinding),
	}
}

// OnCreate attaches scopes to host. Hosts that are not ScopedHost, or that
// expose no lifecycle, are ignored and OnCreate reports false. Worker hosts
// are rejected.
//
// If a binding for host's ID already exists (the host is being recreated),
// its scopes are reused and re-attached to the new lifecycle.
func (b *Bridge) OnCreate(host lifecycle.Host) (bool, error) {
	sh, ok := host.(ScopedHost)
	if !ok {
		return false, nil
	}
	if host.HostKind() == lifecycle.KindWorker {
		return false, &UnsupportedHostContextError{HostID: host.HostID(), Kind: host.HostKind(), Reason: "worker hosts have no scope"}
	}
	lc := b.cfg.lifecycleOf(host)
	if lc == nil {
		return false, nil
	}

	binding, existed := b.bindings[host.HostID()]
	if !existed {
		binding = &HostBinding{scopes: make(map[string]*Scope)}
		if err := b.populate(binding, sh); err != nil {
			return false, err
		}
	}

	binding.detach()
	binding.host = host
	binding.parent = ""
	binding.observe(lc, &hostObserver{bridge: b, binding: binding}, false)
	if n, ok := host.(lifecycle.Nested); ok && host.HostKind() == lifecycle.KindSubScreen && n.ParentHost() != nil {
		binding.parent = n.ParentHost().HostID()
		if parent := b.cfg.lifecycleOf(n.ParentHost()); parent != nil {
			binding.observe(parent, &parentObserver{bridge: b, binding: binding}, true)
		}
	}

	b.bindings[host.HostID()] = binding
	b.log.Debug("host attached",
		zap.String("host", host.HostID()),
		zap.Stringer("kind", host.HostKind()),
		zap.Bool("recreated", existed),
		zap.Int("scopes", len(binding.order)))
	b.cfg.observer.Bound(len(b.bindings))
	return true, nil
}

func (b *Bridge) populate(binding *HostBinding, host ScopedHost) error {
	for _, binder := range host.Binders() {
		ix, err := b.indexes.IndexFor(binder)
		if err != nil {
			return err
		}
		name := ix.Binder()
		if _, dup := binding.scopes[name]; dup {
			continue
		}
		scopeName := host.HostKind().String() + "/" + host.HostID() + "/" + name
		binding.scopes[name] = NewScope(ix, b.cfg.scopeOptions(scopeName)...)
		binding.order = append(binding.order, name)
	}
	return nil
}

// OnDestroy handles the destruction of host. When finishing is false the
// binding survives for the recreated host; otherwise every scope is cleared
// and the binding dropped. Application hosts always finish. Unknown hosts
// are ignored.
func (b *Bridge) OnDestroy(host lifecycle.Host, finishing bool) error {
	binding, ok := b.bindings[host.HostID()]
	if !ok {
		return nil
	}
	if host.HostKind() == lifecycle.KindApplication {
		finishing = true
	}
	if !finishing {
		binding.suspend()
		b.log.Debug("host suspended for recreation", zap.String("host", host.HostID()))
		return nil
	}
	return b.release(binding)
}

func (b *Bridge) release(binding *HostBinding) error {
	id := binding.host.HostID()
	binding.detach()
	delete(b.bindings, id)

	// Nested hosts go first, including suspended ones whose parent has since
	// been recreated on a new lifecycle.
	var err error
	var children []*HostBinding
	for _, child := range b.bindings {
		if child.parent == id {
			children = append(children, child)
		}
	}
	for _, child := range children {
		if _, live := b.bindings[child.host.HostID()]; live {
			err = multierr.Append(err, b.release(child))
		}
	}

	for _, s := range binding.Scopes() {
		err = multierr.Append(err, s.Clear())
	}
	b.log.Debug("host released", zap.String("host", id), zap.Error(err))
	b.cfg.observer.Bound(len(b.bindings))
	return err
}

// Binding returns the binding for a host ID.
func (b *Bridge) Binding(hostID string) (*HostBinding, bool) {
	hb, ok := b.bindings[hostID]
	return hb, ok
}

// Scope returns the host's scope for binder's kind.
func (b *Bridge) Scope(host lifecycle.Host, binder Binder) (*Scope, bool) {
	hb, ok := b.bindings[host.HostID()]
	if !ok {
		return nil, false
	}
	s, ok := hb.scopes[BinderName(binder)]
	return s, ok
}

// Len returns the number of live host bindings.
func (b *Bridge) Len() int { return len(b.bindings) }
