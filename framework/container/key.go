package container

import "reflect"

// ── Keys ──────────────────────────────────────────────────────────────────────

// Capability names the type a provider promises to supply, e.g.
// "github.com/km-arc/go-shopping/app/repository.CartRepository".
type Capability string

// Qualifier distinguishes several providers of the same capability.
// The zero value means "no qualifier".
type Qualifier string

// NoQualifier is the empty qualifier.
const NoQualifier Qualifier = ""

// Key is the (capability, qualifier) pair used to index providers and cache
// resolved instances. Keys are comparable and equal iff both parts match.
type Key struct {
	Capability Capability
	Qualifier  Qualifier
}

func (k Key) String() string {
	if k.Qualifier == NoQualifier {
		return string(k.Capability)
	}
	return string(k.Capability) + "@" + string(k.Qualifier)
}

// Qualified reports whether the key carries a qualifier.
func (k Key) Qualified() bool { return k.Qualifier != NoQualifier }

// CapabilityOf returns the stable name of t. One level of pointer is
// dereferenced so that *Cart and Cart share a capability. Types without a
// name (struct literals, slices, maps, funcs, any) fail with
// AnonymousCapabilityError.
func CapabilityOf(t reflect.Type) (Capability, error) {
	if t == nil {
		return "", &AnonymousCapabilityError{Type: "<nil>"}
	}
	named := t
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}
	if named.Name() == "" {
		return "", &AnonymousCapabilityError{Type: t.String()}
	}
	if named.PkgPath() == "" {
		return Capability(named.Name()), nil
	}
	return Capability(named.PkgPath() + "." + named.Name()), nil
}

// KeyFor builds the key for capability T with an optional qualifier.
//
//	key, err := container.KeyFor[repository.CartRepository](repository.Database)
func KeyFor[T any](q ...Qualifier) (Key, error) {
	c, err := CapabilityOf(reflect.TypeFor[T]())
	if err != nil {
		return Key{}, err
	}
	return Key{Capability: c, Qualifier: firstQualifier(q)}, nil
}

// MustKeyFor is KeyFor for package-level key variables; it panics on
// unnamed types.
func MustKeyFor[T any](q ...Qualifier) Key {
	k, err := KeyFor[T](q...)
	if err != nil {
		panic(err)
	}
	return k
}

func firstQualifier(q []Qualifier) Qualifier {
	if len(q) > 0 {
		return q[0]
	}
	return NoQualifier
}
