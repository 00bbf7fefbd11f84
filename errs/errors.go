// Package errs collects the error constructors used across tablestore,
// following the teacher's pattern of one small function per error shape
// instead of a package of sentinel errors.New values.
package errs

import "fmt"

// ErrUnknownDomain is returned when a universe is asked to instantiate a
// domain that was never registered.
func ErrUnknownDomain(name string) error {
	return fmt.Errorf("tablestore: unknown domain %q", name)
}

// ErrLockedDomain is returned when registering a table into a domain that
// has already been instantiated by some universe.
func ErrLockedDomain(domain string) error {
	return fmt.Errorf("tablestore: domain %q is locked, no further registration allowed", domain)
}

// ErrDuplicateTable is returned when a table is re-registered under the
// same (domain, name) with an incompatible shape.
func ErrDuplicateTable(domain, table string) error {
	return fmt.Errorf("tablestore: table %q already registered in domain %q with a different shape", table, domain)
}

// ErrDuplicateDomain is returned when a domain is re-registered with an
// incompatible shape.
func ErrDuplicateDomain(domain string) error {
	return fmt.Errorf("tablestore: domain %q already registered with a different shape", domain)
}

// ErrTableNotFound is returned when a universe has no table registered
// for the given (domain, name) pair.
func ErrTableNotFound(domain, table string) error {
	return fmt.Errorf("tablestore: table %q not found in domain %q", table, domain)
}

// ErrPropertyNotFound is returned when a universe has no property
// registered under the given name.
func ErrPropertyNotFound(name string) error {
	return fmt.Errorf("tablestore: property %q not found", name)
}

// ErrNotFlushed is the panic value raised when a consistent table's write
// lock is dropped without a flush (and without an explicit NoFlush).
func ErrNotFlushed(domain, table string) error {
	return fmt.Errorf("tablestore: table %q (domain %q) was written and dropped without flush", table, domain)
}

// ErrSelfMutation is returned when a tracker attempts a structural
// mutation of the very table it is being flushed for.
func ErrSelfMutation(domain, table string) error {
	return fmt.Errorf("tablestore: tracker for %q (domain %q) attempted to mutate the table being flushed", table, domain)
}

// ErrInvalidEvent is returned when code attempts to register a tracker
// against the reserved INVALID_EVENT id.
func ErrInvalidEvent() error {
	return fmt.Errorf("tablestore: cannot register a handler for INVALID_EVENT")
}

// ErrEventOutOfRange is returned when a user event id falls outside the
// assignable range.
func ErrEventOutOfRange(id, max int) error {
	return fmt.Errorf("tablestore: user event id %d exceeds maximum %d", id, max)
}

// ErrUnsupportedKind is returned when constructing a table of a kind that
// is reserved but not implemented (the "bag" kind).
func ErrUnsupportedKind(kind string) error {
	return fmt.Errorf("tablestore: table kind %q is reserved and not implemented", kind)
}

// ErrIndexedColumnMutation is returned when code attempts to mutate an
// element of an indexed column in place instead of going through
// insert/delete.
func ErrIndexedColumnMutation() error {
	return fmt.Errorf("tablestore: cannot mutate an indexed column's elements in place, only insert/delete")
}

// ErrUnsortedInput is returned (or debug-asserted) when merge() is given
// an input iterator that is not actually sorted.
func ErrUnsortedInput() error {
	return fmt.Errorf("tablestore: merge input is not sorted")
}

// ErrSchemaVersionMismatch is returned when decoding a serialized table
// whose stored schema version does not match the table's current version.
func ErrSchemaVersionMismatch(table string, want, got uint32) error {
	return fmt.Errorf("tablestore: table %q schema version mismatch: want %d, got %d", table, want, got)
}

// ErrWouldBlock is returned by TryRead/TryWrite when the lock is
// currently contended.
func ErrWouldBlock(domain, table string) error {
	return fmt.Errorf("tablestore: lock on table %q (domain %q) would block", table, domain)
}

// ErrRecursiveFlush is returned when the optional cycle guard detects a
// (table, event) pair already being flushed on the current goroutine.
func ErrRecursiveFlush(domain, table string, event int) error {
	return fmt.Errorf("tablestore: cyclic tracker graph detected flushing event %d on table %q (domain %q)", event, table, domain)
}

// ErrDeleteUnsupported is returned when Delete is called on a table kind
// other than consistent, which is the only kind with a free-list.
func ErrDeleteUnsupported(kind string) error {
	return fmt.Errorf("tablestore: delete is only supported on consistent tables, not %q", kind)
}

// ErrRowNotFound is returned when a row-id refers to a row that is out
// of range or already on the free-list.
func ErrRowNotFound(domain, table string, idx uint32) error {
	return fmt.Errorf("tablestore: row %d not found in table %q (domain %q)", idx, table, domain)
}
