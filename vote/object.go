package vote

import (
	"encoding/hex"
	"fmt"
)

// IDLength is the byte length of transaction and message identifiers.
const IDLength = 32

// ID identifies the transaction or message a vote is about.
type ID [IDLength]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID decodes an ID from its hex representation.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("malformed object id %q: %w", s, err)
	}
	if len(b) != IDLength {
		return id, fmt.Errorf("malformed object id %q: expected %d bytes, got %d", s, IDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ObjectKind discriminates what a vote is disputing.
type ObjectKind uint8

const (
	// ConflictObject disputes a conflicting transaction.
	ConflictObject ObjectKind = iota
	// TimestampObject disputes a message timestamp.
	TimestampObject
)

func (k ObjectKind) String() string {
	switch k {
	case ConflictObject:
		return "Conflict"
	case TimestampObject:
		return "Timestamp"
	default:
		return "Invalid"
	}
}

// Object is the disputed item being voted on: either a conflicting
// transaction or a message timestamp. Identity is kind plus identifier, so
// an Object is usable directly as a map key.
type Object struct {
	kind ObjectKind
	id   ID
}

// NewConflict returns the vote object for a conflicting transaction.
func NewConflict(txID ID) Object {
	return Object{kind: ConflictObject, id: txID}
}

// NewTimestamp returns the vote object for a message timestamp.
func NewTimestamp(msgID ID) Object {
	return Object{kind: TimestampObject, id: msgID}
}

// Kind reports whether the object is a conflict or a timestamp.
func (o Object) Kind() ObjectKind {
	return o.kind
}

// ID returns the identifier of the underlying transaction or message.
func (o Object) ID() ID {
	return o.id
}

func (o Object) String() string {
	return fmt.Sprintf("%s(%s)", o.kind, o.id)
}

// QueryObjects partitions the objects of one opinion query by kind. Opinion
// givers must answer with one opinion per object, conflicts first, in the
// order given here.
type QueryObjects struct {
	// Conflicts holds the conflict objects to be queried.
	Conflicts []Object
	// Timestamps holds the timestamp objects to be queried.
	Timestamps []Object
}

// Len is the total number of queried objects.
func (q QueryObjects) Len() int {
	return len(q.Conflicts) + len(q.Timestamps)
}

// All returns the objects in query order: conflicts followed by timestamps.
func (q QueryObjects) All() []Object {
	all := make([]Object, 0, q.Len())
	all = append(all, q.Conflicts...)
	all = append(all, q.Timestamps...)
	return all
}
