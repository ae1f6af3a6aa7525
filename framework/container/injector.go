package container

import (
	"errors"
	"fmt"
	"reflect"
)

// ── Injection points ──────────────────────────────────────────────────────────

// Injectable is implemented by instances that want fields populated after a
// scope creates them. Each InjectionPoint marks one field.
//
//	type CartViewModel struct {
//	    repo repository.CartRepository
//	}
//
//	func (vm *CartViewModel) InjectionPoints() []container.InjectionPoint {
//	    return []container.InjectionPoint{
//	        container.Field(&vm.repo, repository.Database),
//	    }
//	}
type Injectable interface {
	InjectionPoints() []InjectionPoint
}

// InjectionPoint is a marked field: the key it requires plus a setter.
type InjectionPoint struct {
	key    Key
	field  string
	err    error
	assign func(v any) error
}

// Key returns the key the field requires.
func (p InjectionPoint) Key() Key { return p.key }

// Field marks *dst for injection. The required capability is T, the field's
// declared type.
func Field[T any](dst *T, q ...Qualifier) InjectionPoint {
	t := reflect.TypeFor[T]()
	key, err := KeyFor[T](q...)
	return InjectionPoint{
		key:   key,
		field: t.String(),
		err:   err,
		assign: func(v any) error {
			if v == nil {
				var zero T
				*dst = zero
				return nil
			}
			typed, ok := v.(T)
			if !ok {
				return fmt.Errorf("%w: field %s got %T", ErrTypeMismatch, t, v)
			}
			*dst = typed
			return nil
		},
	}
}

// ── FieldInjector ─────────────────────────────────────────────────────────────

// FieldInjector populates the injection points of freshly created instances.
//
// Each capability can be routed to a designated target resolver, so a
// narrowly scoped instance can depend on something owned by a wider scope
// (a screen-scoped view model on a process-wide repository) without the
// narrow scope knowing how to build it. Capabilities without a route are
// resolved from the injector's default target, or from the creating scope
// when there is none.
type FieldInjector struct {
	fallback Resolver
	routes   map[Capability]Resolver
}

// NewFieldInjector returns an injector whose unrouted capabilities resolve
// from fallback. A nil fallback means "the scope doing the creation".
func NewFieldInjector(fallback Resolver) *FieldInjector {
	return &FieldInjector{
		fallback: fallback,
		routes:   make(map[Capability]Resolver),
	}
}

// RouteCapability sends every field requiring c to target, whatever its
// qualifier.
func (f *FieldInjector) RouteCapability(c Capability, target Resolver) *FieldInjector {
	f.routes[c] = target
	return f
}

// Route sends every field of type T to target.
//
//	injector := container.NewFieldInjector(nil)
//	container.Route[repository.CartRepository](injector, modules)
func Route[T any](f *FieldInjector, target Resolver) error {
	c, err := CapabilityOf(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	f.RouteCapability(c, target)
	return nil
}

// TargetFor returns the resolver a field with key would be resolved from.
func (f *FieldInjector) TargetFor(key Key, origin Resolver) Resolver {
	if r, ok := f.routes[key.Capability]; ok {
		return r
	}
	if f.fallback != nil {
		return f.fallback
	}
	return origin
}

// Inject fills every injection point of instance. Instances that do not
// implement Injectable are left untouched. The first failure aborts
// injection; resolution failures surface as UnboundCapabilityError.
func (f *FieldInjector) Inject(instance any, origin Resolver) error {
	target, ok := instance.(Injectable)
	if !ok {
		return nil
	}
	for _, p := range target.InjectionPoints() {
		if p.err != nil {
			return p.err
		}
		r := f.TargetFor(p.key, origin)
		if r == nil {
			return &UnboundCapabilityError{Key: p.key, Field: p.field}
		}
		v, err := r.Resolve(p.key)
		if err != nil {
			var unbound *UnboundCapabilityError
			if errors.As(err, &unbound) && unbound.Field == "" && unbound.Key == p.key {
				return &UnboundCapabilityError{Key: p.key, Scope: unbound.Scope, Field: p.field}
			}
			return &UnboundCapabilityError{Key: p.key, Field: p.field, Err: err}
		}
		if err := p.assign(v); err != nil {
			return err
		}
	}
	return nil
}
