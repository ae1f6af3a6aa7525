package app

import (
	"errors"
	"fmt"
)

// ErrBooted is returned by Register once the kernel has booted.
var ErrBooted = errors.New("app: kernel already booted")

// ServiceProvider plugs a feature into the kernel in two phases.
//
// Register runs when the provider is added, before the loop starts: mount
// routes, add injector routes, register shutdown hooks. Boot runs on the main
// loop once the module registry is live, so it may resolve dependencies.
//
//	type ShopServiceProvider struct{ app.BaseProvider }
//
//	func (p *ShopServiceProvider) Register(k *app.Kernel) error {
//	    handlers.New(k.Loop, screens, k.Modules).Routes(k.Router)
//	    return nil
//	}
type ServiceProvider interface {
	Register(k *Kernel) error
	Boot(k *Kernel) error
}

// BaseProvider is an embeddable no-op Boot.
type BaseProvider struct{}

func (BaseProvider) Boot(*Kernel) error { return nil }

// Register adds p and runs its Register phase. Adding the same provider
// twice is a no-op.
func (k *Kernel) Register(p ServiceProvider) error {
	if k.booted {
		return ErrBooted
	}
	for _, have := range k.providers {
		if have == p {
			return nil
		}
	}
	if err := p.Register(k); err != nil {
		return fmt.Errorf("register %T: %w", p, err)
	}
	k.providers = append(k.providers, p)
	return nil
}

// Providers returns the registered providers in registration order.
func (k *Kernel) Providers() []ServiceProvider { return k.providers }

// bootProviders runs on the loop.
func (k *Kernel) bootProviders() error {
	for _, p := range k.providers {
		if err := p.Boot(k); err != nil {
			return fmt.Errorf("boot %T: %w", p, err)
		}
	}
	return nil
}
