// Package screen models shopping sessions as scoped hosts. A Screen is one
// session; its summary Panel is a sub-screen nested inside it. The Manager
// owns both and drives their lifecycles.
package screen

import (
	"github.com/google/uuid"

	"github.com/km-arc/go-shopping/app/viewmodel"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// Screen is the host of one shopping session.
type Screen struct {
	id string
	lc *lifecycle.Lifecycle
}

// New returns a screen with a fresh session ID. It is not created yet.
func New() *Screen {
	return &Screen{id: uuid.NewString(), lc: lifecycle.New()}
}

func (s *Screen) HostID() string                  { return s.id }
func (s *Screen) HostKind() lifecycle.Kind        { return lifecycle.KindScreen }
func (s *Screen) Lifecycle() *lifecycle.Lifecycle { return s.lc }

func (s *Screen) Binders() []container.Binder {
	return []container.Binder{viewmodel.Binder{}}
}

// Panel is the summary panel nested in a screen.
type Panel struct {
	parent *Screen
	lc     *lifecycle.Lifecycle
}

func newPanel(parent *Screen) *Panel {
	return &Panel{parent: parent, lc: lifecycle.New()}
}

func (p *Panel) HostID() string                  { return p.parent.id + "/summary" }
func (p *Panel) HostKind() lifecycle.Kind        { return lifecycle.KindSubScreen }
func (p *Panel) Lifecycle() *lifecycle.Lifecycle { return p.lc }
func (p *Panel) ParentHost() lifecycle.Host      { return p.parent }

func (p *Panel) Binders() []container.Binder {
	return []container.Binder{viewmodel.PanelBinder{}}
}

func start(lc *lifecycle.Lifecycle) {
	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Created})
	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Started})
}

func stop(lc *lifecycle.Lifecycle, finishing bool) {
	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Stopped})
	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: finishing})
}
