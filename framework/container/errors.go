package container

import (
	"errors"
	"strconv"

	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// Sentinels for errors.Is. Every typed error below matches exactly one of them.
var (
	ErrDuplicateProviderKey    = errors.New("container: duplicate provider key")
	ErrAnonymousCapability     = errors.New("container: anonymous capability")
	ErrUnboundCapability       = errors.New("container: unbound capability")
	ErrDuplicateInitialization = errors.New("container: module already initialized")
	ErrModuleNotInitialized    = errors.New("container: module not initialized")
	ErrUnsupportedHostContext  = errors.New("container: unsupported host context")
	ErrResolutionCycle         = errors.New("container: resolution cycle")
	ErrProviderFailed          = errors.New("container: provider failed")
	ErrTypeMismatch            = errors.New("container: type mismatch")
)

// DuplicateProviderKeyError is returned by BuildIndex when two providers of
// one binder resolve to the same key.
type DuplicateProviderKeyError struct {
	Binder string
	Key    Key
}

func (e *DuplicateProviderKeyError) Error() string {
	return "container: binder " + e.Binder + " provides " + strconv.Quote(e.Key.String()) + " twice"
}

func (e *DuplicateProviderKeyError) Unwrap() error { return ErrDuplicateProviderKey }

// AnonymousCapabilityError is returned when a capability type has no stable name.
type AnonymousCapabilityError struct {
	Type string
}

func (e *AnonymousCapabilityError) Error() string {
	return "container: type " + e.Type + " has no name and cannot be used as a capability"
}

func (e *AnonymousCapabilityError) Unwrap() error { return ErrAnonymousCapability }

// UnboundCapabilityError is returned when a key is absent from the index.
// Field is set when the key was requested by an injection point.
type UnboundCapabilityError struct {
	Key   Key
	Scope string
	Field string
	Err   error
}

func (e *UnboundCapabilityError) Error() string {
	msg := "container: no provider for " + strconv.Quote(e.Key.String())
	if e.Scope != "" {
		msg += " in scope " + e.Scope
	}
	if e.Field != "" {
		msg += " (injecting " + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *UnboundCapabilityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnboundCapability}
	}
	return []error{ErrUnboundCapability, e.Err}
}

// UnsupportedHostContextError is returned when a host kind is outside the
// accepted set, or the host has no lifecycle to attach to.
type UnsupportedHostContextError struct {
	HostID string
	Kind   lifecycle.Kind
	Reason string
}

func (e *UnsupportedHostContextError) Error() string {
	msg := "container: host " + strconv.Quote(e.HostID) + " of kind " + e.Kind.String() + " is not supported"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnsupportedHostContextError) Unwrap() error { return ErrUnsupportedHostContext }

// ResolutionCycleError is returned when a provider re-enters Resolve for a
// key that is still being created.
type ResolutionCycleError struct {
	Key   Key
	Stack []Key
}

func (e *ResolutionCycleError) Error() string {
	msg := "container: cycle while resolving " + strconv.Quote(e.Key.String())
	for i, k := range e.Stack {
		if i == 0 {
			msg += " via "
		} else {
			msg += " -> "
		}
		msg += k.String()
	}
	return msg
}

func (e *ResolutionCycleError) Unwrap() error { return ErrResolutionCycle }

// ProviderError wraps an error returned by a provider function.
type ProviderError struct {
	Key Key
	Err error
}

func (e *ProviderError) Error() string {
	return "container: provider for " + strconv.Quote(e.Key.String()) + " failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() []error { return []error{ErrProviderFailed, e.Err} }
