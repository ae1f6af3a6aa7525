// Package container is a small scoped dependency-injection runtime.
//
// # Overview
//
// Providers are declared by binders, indexed once per binder type, and
// invoked by scopes that cache what they create for as long as the owning
// host lives. There is no reflection over methods or fields: capabilities
// are named after Go types, qualifiers are plain values, and injection points
// are declared explicitly.
//
// # Binders
//
//	type RepositoryBinder struct{ DB, Memory data.CartStore }
//
//	func (b RepositoryBinder) Provide(r *container.Registrar) {
//	    container.Provide(r, func() repository.CartRepository {
//	        return repository.NewCart(b.DB)
//	    }, container.Qualified(repository.Database))
//
//	    // Providers that need the ambient context ask for it
//	    container.ProvideContext(r, func(ctx context.Context) (*Clock, error) {
//	        return NewClock(logging.FromContext(ctx)), nil
//	    })
//	}
//
//	ix, err := container.BuildIndex(RepositoryBinder{...})
//	// err is DuplicateProviderKeyError if two providers share a key,
//	// AnonymousCapabilityError if a provider's type has no name.
//
// # Scopes
//
//	scope := container.NewScope(ix, container.WithName("checkout"))
//
//	a, _ := container.Resolve[repository.CartRepository](scope, repository.Database)
//	b, _ := container.Resolve[repository.CartRepository](scope, repository.Database)
//	// a == b until the entry is deleted
//
//	scope.Delete(key)   // next Resolve builds a new instance
//	scope.Clear()       // drop everything, closing io.Closer values
//
// # Field injection
//
// Instances implementing Injectable get their injection points filled right
// after creation. Each capability may be routed to a different resolver:
//
//	injector := container.NewFieldInjector(nil)
//	container.Route[repository.CartRepository](injector, modules)
//
//	scope := container.NewScope(ix, container.WithInjector(injector))
//
// # Hosts
//
// A Bridge attaches scopes to hosts that implement ScopedHost and clears them
// when the host finishes. A ModuleRegistry is the process-wide scope, bound to
// exactly one host between Init and teardown.
//
//	bridge := container.NewBridge(container.NewIndexCache(), container.Injector(injector))
//	bridge.OnCreate(screen)
//	...
//	screen.Lifecycle().Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: true})
//
// # Concurrency
//
// Nothing in this package locks. Index building, resolution, deletion and
// lifecycle handling must all happen on one goroutine; provider indexes are
// the exception and may be read from anywhere once built.
package container
