package container_test

import (
	"context"
	"errors"

	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// ── capabilities ──────────────────────────────────────────────────────────────

type Foo struct{ Serial int }

type Repo interface{ Name() string }

type memRepo struct{ name string }

func (r *memRepo) Name() string { return r.name }

type Bar struct {
	Repo  Repo
	Label string
}

func (b *Bar) InjectionPoints() []container.InjectionPoint {
	return []container.InjectionPoint{container.Field(&b.Repo)}
}

type closer struct {
	name string
	log  *[]string
	err  error
}

func (c *closer) Close() error {
	*c.log = append(*c.log, c.name)
	return c.err
}

type ctxKey struct{}

// injectableFunc adapts a function to container.Injectable.
type injectableFunc func() []container.InjectionPoint

func (f injectableFunc) InjectionPoints() []container.InjectionPoint { return f() }

const QualifierA container.Qualifier = "QualifierA"

// ── binders ───────────────────────────────────────────────────────────────────

// fooBinder provides Foo unqualified and Foo tagged QualifierA.
type fooBinder struct{ calls *int }

func (b fooBinder) Provide(r *container.Registrar) {
	if b.calls != nil {
		*b.calls++
	}
	serial := 0
	container.Provide(r, func() *Foo { serial++; return &Foo{Serial: serial} })
	container.Provide(r, func() *Foo { serial++; return &Foo{Serial: 1000 + serial} }, container.Qualified(QualifierA))
}

type repoBinder struct{}

func (repoBinder) Provide(r *container.Registrar) {
	container.Provide(r, func() Repo { return &memRepo{name: "memory"} })
}

type barBinder struct{}

func (barBinder) Provide(r *container.Registrar) {
	container.Provide(r, func() *Bar { return &Bar{Label: "bar"} })
}

// ── hosts ─────────────────────────────────────────────────────────────────────

type testHost struct {
	id      string
	kind    lifecycle.Kind
	lc      *lifecycle.Lifecycle
	binders []container.Binder
	parent  lifecycle.Host
}

func newHost(id string, kind lifecycle.Kind, binders ...container.Binder) *testHost {
	return &testHost{id: id, kind: kind, lc: lifecycle.New(), binders: binders}
}

func (h *testHost) HostID() string { return h.id }
func (h *testHost) HostKind() lifecycle.Kind { return h.kind }
func (h *testHost) Lifecycle() *lifecycle.Lifecycle { return h.lc }
func (h *testHost) Binders() []container.Binder { return h.binders }
func (h *testHost) ParentHost() lifecycle.Host { return h.parent }
func (h *testHost) finish() { h.lc.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: true}) }
func (h *testHost) recreate() { h.lc.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed}) }

// plainHost has a lifecycle but no binders.
type plainHost struct {
	id string
	lc *lifecycle.Lifecycle
}

func (h *plainHost) HostID() string { return h.id }
func (h *plainHost) HostKind() lifecycle.Kind { return lifecycle.KindScreen }
func (h *plainHost) Lifecycle() *lifecycle.Lifecycle { return h.lc }

// bareHost has neither lifecycle nor binders.
type bareHost struct {
	id   string
	kind lifecycle.Kind
}

func (h bareHost) HostID() string { return h.id }
func (h bareHost) HostKind() lifecycle.Kind { return h.kind }

// noLifecycleHost asks for scopes but exposes no lifecycle.
type noLifecycleHost struct{ bareHost }

func (noLifecycleHost) Binders() []container.Binder { return []container.Binder{fooBinder{}} }

// ── observers ─────────────────────────────────────────────────────────────────

type countingObserver struct {
	created, hits, failed, released, bound int
}

func (o *countingObserver) Resolved(_ string, _ container.Key, created bool) {
	if created {
		o.created++
	} else {
		o.hits++
	}
}
func (o *countingObserver) Failed(string, container.Key, error) { o.failed++ }
func (o *countingObserver) Released(_ string, n int) { o.released += n }
func (o *countingObserver) Bound(n int) { o.bound = n }

// ── helpers ───────────────────────────────────────────────────────────────────

func mustIndex(b container.Binder) *container.ProviderIndex {
	ix, err := container.BuildIndex(b)
	if err != nil {
		panic(err)
	}
	return ix
}

var errBoom = errors.New("boom")

func ambient() context.Context {
	return context.WithValue(context.Background(), ctxKey{}, "ambient")
}
