// Package app wires the shopping service onto the framework kernel.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/app/handlers"
	"github.com/km-arc/go-shopping/app/repository"
	"github.com/km-arc/go-shopping/app/screen"
	"github.com/km-arc/go-shopping/framework/config"
	"github.com/km-arc/go-shopping/framework/container"
	kernel "github.com/km-arc/go-shopping/framework/app"
	"github.com/km-arc/go-shopping/framework/providers"
)

// New opens the cart stores and returns a kernel serving the shopping API.
//
//	k, err := app.New(ctx, cfg, log)
//	if err != nil { ... }
//	err = k.Run(ctx)
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*kernel.Kernel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	durable, err := data.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	memory := data.NewMemoryStore()

	k := kernel.New(cfg, log, repository.Binder{
		Memory:  memory,
		Durable: durable,
		Catalog: data.Catalog(),
	})
	k.OnClose(durable, memory)

	for _, p := range []kernel.ServiceProvider{
		&providers.LifecycleLogProvider{},
		&providers.MetricsServiceProvider{},
		&ShopServiceProvider{},
	} {
		if err := k.Register(p); err != nil {
			_ = durable.Close()
			return nil, err
		}
	}
	return k, nil
}

// ShopServiceProvider mounts the shopping endpoints.
type ShopServiceProvider struct {
	screens *screen.Manager
}

func (p *ShopServiceProvider) Register(k *kernel.Kernel) error {
	// View models reach the repositories through the module registry.
	if err := container.Route[repository.CartRepository](k.Injector, k.Modules); err != nil {
		return err
	}
	if err := container.Route[repository.ProductRepository](k.Injector, k.Modules); err != nil {
		return err
	}

	p.screens = screen.NewManager(k.Bridge, k.Log)
	k.OnShutdown(p.screens.CloseAll)
	handlers.New(k.Loop, p.screens, k.Modules).Routes(k.Router)
	return nil
}

// Boot checks that the cart repositories can be built and logs where carts
// are kept.
func (p *ShopServiceProvider) Boot(k *kernel.Kernel) error {
	products, err := container.Resolve[repository.ProductRepository](k.Modules)
	if err != nil {
		return err
	}
	carts, err := container.Resolve[repository.CartRepository](k.Modules, repository.Database)
	if err != nil {
		return err
	}
	k.Log.Info("shop ready",
		zap.String("store", carts.Source()),
		zap.Int("products", len(products.All())))
	return nil
}
