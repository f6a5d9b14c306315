package lfsgate

import (
	"time"
)

const (
	// DefaultLockLimit is the page size used when a lock query gives none.
	DefaultLockLimit = 100
	// LinkLifetime is how long a transfer action stays valid.
	LinkLifetime = 24 * time.Hour
)

// LFSService implements the Git LFS batch, transfer and locking operations
// on top of a metadata repository and an object storage.
type LFSService struct {
	repo           MetaDataRepo
	storage        ObjectStorage
	links          *LinkBuilder
	enableSplit    bool
	enableVerify   bool
	cleanupTimeout time.Duration
	now            func() time.Time
	newLockID      func() (string, error)
}

// ServiceConfig holds configuration options for LFSService.
type ServiceConfig struct {
	// BaseURL is the externally reachable server root used in action hrefs.
	BaseURL string
	// EnableSplit marks newly accepted objects as split.
	EnableSplit bool
	// EnableVerify adds a verify action to upload representations.
	EnableVerify bool
	// Signer computes per-action Authorization values. Nil leaves them out.
	Signer         *LinkSigner
	CleanupTimeout time.Duration // Timeout for cleanup operations (default: 30s)
	// Clock overrides time.Now.
	Clock func() time.Time
	// LockIDGenerator overrides the random 8-digit lock id source.
	LockIDGenerator func() (string, error)
}

func NewLFSService(repo MetaDataRepo, storage ObjectStorage, cfg ServiceConfig) *LFSService {
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	newLockID := cfg.LockIDGenerator
	if newLockID == nil {
		newLockID = NewLockID
	}

	return &LFSService{
		repo:           repo,
		storage:        storage,
		links:          NewLinkBuilder(cfg.BaseURL, cfg.Signer, now),
		enableSplit:    cfg.EnableSplit,
		enableVerify:   cfg.EnableVerify,
		cleanupTimeout: cleanupTimeout,
		now:            now,
		newLockID:      newLockID,
	}
}
