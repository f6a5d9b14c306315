package lfsgate

import (
	"encoding/json"
	"time"
)

// OwnerKind tells whether a lock belongs to the requesting session.
type OwnerKind int

const (
	OwnedBySelf OwnerKind = iota
	OwnedByOther
)

// Owner is the ownership of a lock relative to the session that asked for it.
// Name is only meaningful for OwnedByOther.
type Owner struct {
	Kind OwnerKind
	Name string
}

func SelfOwner() Owner {
	return Owner{Kind: OwnedBySelf}
}

func OtherOwner(name string) Owner {
	return Owner{Kind: OwnedByOther, Name: name}
}

func (o Owner) IsSelf() bool {
	return o.Kind == OwnedBySelf
}

// Lock is a lock as presented to a session.
type Lock struct {
	ID       string
	Path     string
	Owner    Owner
	LockedAt time.Time
}

type lockOwnerJSON struct {
	Name string `json:"name"`
}

type lockJSON struct {
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	Owner    *lockOwnerJSON `json:"owner,omitempty"`
	LockedAt string         `json:"locked_at"`
}

// MarshalJSON emits the owner object only for locks held by someone else.
func (l Lock) MarshalJSON() ([]byte, error) {
	out := lockJSON{
		ID:       l.ID,
		Path:     l.Path,
		LockedAt: l.LockedAt.UTC().Format(time.RFC3339),
	}
	if l.Owner.Kind == OwnedByOther {
		out.Owner = &lockOwnerJSON{Name: l.Owner.Name}
	}
	return json.Marshal(out)
}

// LockRecord is a lock as persisted. Owner holds the identity resolved at
// creation time and is empty when none was known.
type LockRecord struct {
	ID       string
	Path     string
	Owner    string
	LockedAt time.Time
}

// For presents the record to session. Unowned records and records created
// by the same identity are the session's own.
func (r LockRecord) For(session string) Lock {
	owner := SelfOwner()
	if r.Owner != "" && r.Owner != session {
		owner = OtherOwner(r.Owner)
	}
	return Lock{
		ID:       r.ID,
		Path:     r.Path,
		Owner:    owner,
		LockedAt: r.LockedAt,
	}
}

// OwnedBy reports whether session may remove the record without force.
func (r LockRecord) OwnedBy(session string) bool {
	return r.Owner == "" || r.Owner == session
}

func presentLocks(records []LockRecord, session string) []Lock {
	locks := make([]Lock, 0, len(records))
	for _, r := range records {
		locks = append(locks, r.For(session))
	}
	return locks
}
