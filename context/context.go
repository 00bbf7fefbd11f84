// Package context composes named table lock aliases into small bundles
// a generated function can take as one parameter instead of listing each
// table it touches individually (spec §4.10). Despite the name this
// package has nothing to do with standard library contexts; it is kept
// separate from the table package because a context bundle outlives any
// single lock acquisition call.
package context

// Lock is one named lock alias held inside a bundle: typically a table
// read or write guard, or a universe-wide property handle. Name
// identifies the alias for cross-bundle transfer; Release drops
// whatever the alias is holding.
type Lock interface {
	Name() string
	Release()
}

// Bundle is any fixed-arity lock tuple, used by Transfer to read off the
// locks a bundle already holds before releasing or moving them.
type Bundle interface {
	Locks() []Lock
}

// Ctx1 composes a single named lock.
type Ctx1[A Lock] struct{ A A }

// NewCtx1 acquires A via acquireA.
func NewCtx1[A Lock](acquireA func() A) Ctx1[A] { return Ctx1[A]{A: acquireA()} }

func (c Ctx1[A]) Locks() []Lock { return []Lock{c.A} }

// Release drops every lock in the bundle.
func (c Ctx1[A]) Release() { c.A.Release() }

// Ctx2 composes two named locks, acquired in declaration order.
type Ctx2[A Lock, B Lock] struct {
	A A
	B B
}

// NewCtx2 acquires A then B.
func NewCtx2[A Lock, B Lock](acquireA func() A, acquireB func() B) Ctx2[A, B] {
	return Ctx2[A, B]{A: acquireA(), B: acquireB()}
}

func (c Ctx2[A, B]) Locks() []Lock { return []Lock{c.A, c.B} }

func (c Ctx2[A, B]) Release() {
	c.A.Release()
	c.B.Release()
}

// Ctx3 composes three named locks, acquired in declaration order.
type Ctx3[A Lock, B Lock, C Lock] struct {
	A A
	B B
	C C
}

// NewCtx3 acquires A, then B, then C.
func NewCtx3[A Lock, B Lock, C Lock](acquireA func() A, acquireB func() B, acquireC func() C) Ctx3[A, B, C] {
	return Ctx3[A, B, C]{A: acquireA(), B: acquireB(), C: acquireC()}
}

func (c Ctx3[A, B, C]) Locks() []Lock { return []Lock{c.A, c.B, c.C} }

func (c Ctx3[A, B, C]) Release() {
	c.A.Release()
	c.B.Release()
	c.C.Release()
}

// Transfer pulls locks matching a wanted name out of src by identity
// (spec §4.10 "context transfer"), acquiring the rest fresh via acquire.
// Locks left behind in src (not in wanted) are released. The result is
// ordered to match wanted, ready to be reassembled into a new bundle by
// position (e.g. Ctx2[A, B]{A: out[0].(A), B: out[1].(B)}).
func Transfer(src Bundle, wanted []string, acquire func(name string) Lock) []Lock {
	bySrc := make(map[string]Lock, len(src.Locks()))
	for _, l := range src.Locks() {
		bySrc[l.Name()] = l
	}
	out := make([]Lock, len(wanted))
	taken := make(map[string]bool, len(wanted))
	for i, name := range wanted {
		if l, ok := bySrc[name]; ok {
			out[i] = l
			taken[name] = true
			continue
		}
		out[i] = acquire(name)
	}
	for name, l := range bySrc {
		if !taken[name] {
			l.Release()
		}
	}
	return out
}

// FromCtx2 builds a Ctx2 by transferring nameA/nameB out of src, falling
// back to acquire for whichever one src did not already hold.
func FromCtx2[A Lock, B Lock](src Bundle, nameA, nameB string, acquire func(name string) Lock) Ctx2[A, B] {
	out := Transfer(src, []string{nameA, nameB}, acquire)
	return Ctx2[A, B]{A: out[0].(A), B: out[1].(B)}
}

// FromCtx3 builds a Ctx3 by transferring nameA/nameB/nameC out of src,
// falling back to acquire for whichever ones src did not already hold.
func FromCtx3[A Lock, B Lock, C Lock](src Bundle, nameA, nameB, nameC string, acquire func(name string) Lock) Ctx3[A, B, C] {
	out := Transfer(src, []string{nameA, nameB, nameC}, acquire)
	return Ctx3[A, B, C]{A: out[0].(A), B: out[1].(B), C: out[2].(C)}
}
