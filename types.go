package lfsgate

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Operation is the transfer direction requested in a batch call.
type Operation string

const (
	OperationUpload   Operation = "upload"
	OperationDownload Operation = "download"
)

func (o Operation) IsValid() bool {
	switch o {
	case OperationUpload, OperationDownload:
		return true
	default:
		return false
	}
}

func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", fmt.Errorf("parse operation %q: %w (valid operations: upload, download)", s, ErrInvalidInput)
	}
	return op, nil
}

// Action names used as keys of Representation.Actions.
const (
	ActionDownload = "download"
	ActionUpload   = "upload"
	ActionVerify   = "verify"
)

// ObjectDescriptor is one object reference submitted in a batch request.
type ObjectDescriptor struct {
	OID           string `json:"oid"`
	Size          int64  `json:"size"`
	Authorization string `json:"authorization,omitempty"`
}

// ObjectMetadata is the persisted record for an accepted object.
type ObjectMetadata struct {
	OID       string    `json:"oid"`
	Size      int64     `json:"size"`
	Exist     bool      `json:"exist"`
	Split     bool      `json:"split"`
	CreatedAt time.Time `json:"created_at"`
}

type TransferAction struct {
	Href      string            `json:"href"`
	Header    map[string]string `json:"header,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type ObjectError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Representation is the per-object answer of a batch call. It carries either
// actions, an error, or neither when the object is already satisfied.
type Representation struct {
	OID           string                    `json:"oid"`
	Size          int64                     `json:"size"`
	Authenticated *bool                     `json:"authenticated,omitempty"`
	Actions       map[string]TransferAction `json:"actions,omitempty"`
	Error         *ObjectError              `json:"error,omitempty"`
}

type BatchRequest struct {
	Repo      string
	Operation Operation
	Objects   []ObjectDescriptor
	Session   string
}

type LockListQuery struct {
	Repo    string
	Path    string
	ID      string
	Cursor  string
	Limit   int
	Session string
}

type LockList struct {
	Locks      []Lock `json:"locks"`
	NextCursor string `json:"next_cursor"`
}

type VerifyQuery struct {
	Repo    string
	Cursor  string
	Limit   int
	Session string
}

type VerifyResult struct {
	Ours       []Lock `json:"ours"`
	Theirs     []Lock `json:"theirs"`
	NextCursor string `json:"next_cursor"`
}

// SplitRelation maps an original object to its ordered chunk objects.
type SplitRelation struct {
	OriginalOID string
	ChunkOIDs   []string
}

type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Objects string `mapstructure:"objects" yaml:"objects"`
	Locks   string `mapstructure:"locks" yaml:"locks"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Objects == "" {
		return errors.New("validate tables: objects table name cannot be empty")
	}
	if t.Locks == "" {
		return errors.New("validate tables: locks table name cannot be empty")
	}

	for _, name := range []string{t.Objects, t.Locks} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	if t.Objects == t.Locks {
		return fmt.Errorf("validate tables: objects and locks tables must differ: %s", t.Objects)
	}

	return nil
}
