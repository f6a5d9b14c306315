// Package lfsgate provides the protocol engine of a Git LFS server: batch
// transfer negotiation, object upload and download orchestration, and
// per-repository file locking.
//
// lfsgate decides for each object a client submits whether a transfer is
// needed, and answers with time-limited links. Locks are kept per repository
// as one ordered lock set that is updated atomically.
//
// # Key Components
//
//   - LFSService: Main service combining metadata repository and object storage
//   - MetaDataRepo: Interface for object metadata and lock set persistence (SQLite, PostgreSQL, Badger)
//   - ObjectStorage: Interface for object bytes (filesystem, S3)
//   - LinkBuilder: Builds representations and transfer actions
//   - LinkSigner: HMAC-SHA256 signed Authorization values for transfer actions
//
// # Lock Ownership
//
// A stored lock remembers the identity that created it. When presented to a
// session it is either OwnedBySelf or OwnedByOther, and only the latter is
// serialized with an owner name.
//
// # Example Usage
//
//	service := lfsgate.NewLFSService(repo, storage, lfsgate.ServiceConfig{
//	    BaseURL: "https://lfs.example.com",
//	})
//
//	reps, err := service.ProcessBatch(ctx, lfsgate.BatchRequest{
//	    Repo:      "assets",
//	    Operation: lfsgate.OperationUpload,
//	    Objects:   []lfsgate.ObjectDescriptor{{OID: oid, Size: size}},
//	})
//
//	lock, err := service.CreateLock(ctx, "assets", "models/ship.blend", "alice")
//
// See the http package for the REST API and the database package for
// metadata backends.
package lfsgate
