// Package app boots the process: it owns the main loop, the process
// lifecycle, the dependency bridge and module registry, and the HTTP server.
package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-shopping/framework/config"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/lifecycle"
	"github.com/km-arc/go-shopping/framework/logging"
	"github.com/km-arc/go-shopping/framework/mainthread"
	"github.com/km-arc/go-shopping/framework/metrics"
	"github.com/km-arc/go-shopping/framework/routing"
)

// Version is reported in the startup log.
const Version = "0.1.0"

const defaultShutdownTimeout = 10 * time.Second

// ── Application host ──────────────────────────────────────────────────────────

// Application is the process-level host. Its lifecycle is the process
// lifecycle, so anything bound to it lives until shutdown.
type Application struct {
	lc      *lifecycle.Lifecycle
	binders []container.Binder
}

func (a *Application) HostID() string                  { return "application" }
func (a *Application) HostKind() lifecycle.Kind        { return lifecycle.KindApplication }
func (a *Application) Lifecycle() *lifecycle.Lifecycle { return a.lc }
func (a *Application) Binders() []container.Binder     { return a.binders }

// ── Kernel ────────────────────────────────────────────────────────────────────

// Kernel holds the process-wide runtime.
//
//	k := app.New(cfg, log, repository.Binder{...})
//	if err := k.Register(&ShopServiceProvider{}); err != nil { ... }
//	err := k.Run(ctx)
type Kernel struct {
	Config   *config.Config
	Log      *zap.Logger
	Loop     *mainthread.Loop
	Process  *lifecycle.Lifecycle
	Host     *Application
	Injector *container.FieldInjector
	Bridge   *container.Bridge
	Modules  *container.ModuleRegistry
	Metrics  *metrics.Collector
	Router   *routing.Router

	providers  []ServiceProvider
	booted     bool
	onShutdown []func()
	closers    []io.Closer
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithApplicationBinders gives the application host scopes of its own,
// attached through the bridge at boot.
func WithApplicationBinders(binders ...container.Binder) Option {
	return func(k *Kernel) { k.Host.binders = append(k.Host.binders, binders...) }
}

// New wires the runtime. modules is the binder served process-wide by the
// module registry.
func New(cfg *config.Config, log *zap.Logger, modules container.Binder, opts ...Option) *Kernel {
	if log == nil {
		log = zap.NewNop()
	}
	process := lifecycle.New()
	k := &Kernel{
		Config:   cfg,
		Log:      log,
		Loop:     mainthread.New(mainthread.WithLogger(log)),
		Process:  process,
		Host:     &Application{lc: process},
		Injector: container.NewFieldInjector(nil),
		Metrics:  metrics.NewCollector("shopping"),
		Router:   routing.New(log),
	}
	for _, opt := range opts {
		opt(k)
	}

	shared := []container.Option{
		container.Ambient(logging.WithContext(context.Background(), log)),
		container.Injector(k.Injector),
		container.Logger(log),
		container.ProcessLifecycle(process),
	}
	if cfg.Metrics.Enabled {
		shared = append(shared, container.Metrics(k.Metrics))
		k.Router.Middleware(k.Metrics.Middleware)
	}
	k.Bridge = container.NewBridge(container.NewIndexCache(), shared...)
	k.Modules = container.NewModuleRegistry(modules, shared...)
	return k
}

// OnShutdown registers fn to run on the loop before the process lifecycle
// is destroyed. Hooks run in registration order.
func (k *Kernel) OnShutdown(fn func()) { k.onShutdown = append(k.onShutdown, fn) }

// OnClose registers resources closed after the process lifecycle is
// destroyed, in reverse order.
func (k *Kernel) OnClose(c ...io.Closer) { k.closers = append(k.closers, c...) }

// Run listens on the configured address and serves until ctx is done.
func (k *Kernel) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", k.Config.Addr())
	if err != nil {
		return err
	}
	return k.Serve(ctx, ln)
}

// Serve runs the main loop, boots the runtime on it and serves HTTP on ln
// until ctx is done or the server fails. Shutdown drains HTTP, then finishes
// the process lifecycle on the loop, then stops the loop.
func (k *Kernel) Serve(ctx context.Context, ln net.Listener) error {
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return k.Loop.Run(loopCtx) })

	if err := k.Loop.Do(gctx, k.boot); err != nil {
		_ = ln.Close()
		stopLoop()
		return multierr.Append(err, g.Wait())
	}

	srv := &http.Server{
		Handler:           k.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		k.Log.Info("http server listening",
			zap.String("app", k.Config.App.Name),
			zap.String("env", k.Config.App.Env),
			zap.String("addr", ln.Addr().String()),
			zap.String("version", Version))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := k.Config.App.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		k.Log.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		err = multierr.Append(err, k.Loop.Do(shutdownCtx, k.teardown))
		stopLoop()
		return err
	})
	return g.Wait()
}

// boot runs on the loop.
func (k *Kernel) boot() error {
	k.Process.Dispatch(lifecycle.Transition{Event: lifecycle.Created})
	if _, err := k.Bridge.OnCreate(k.Host); err != nil {
		return err
	}
	if err := k.Modules.Init(k.Host); err != nil {
		return err
	}
	k.booted = true
	if err := k.bootProviders(); err != nil {
		return err
	}
	k.Process.Dispatch(lifecycle.Transition{Event: lifecycle.Started})
	k.Log.Info("application booted", zap.Int("host_bindings", k.Bridge.Len()))
	return nil
}

// teardown runs on the loop.
func (k *Kernel) teardown() error {
	for _, fn := range k.onShutdown {
		fn()
	}
	k.Process.Dispatch(lifecycle.Transition{Event: lifecycle.Stopped})
	k.Process.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: true})

	var err error
	for i := len(k.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, k.closers[i].Close())
	}
	k.Log.Info("application stopped", zap.Error(err))
	return err
}
