// Package http serves the Git LFS API over HTTP.
//
// All routes are mounted under /{repo}/info/lfs:
//
//	POST   /objects/batch         batch transfer negotiation
//	GET    /objects/{oid}         download object bytes
//	PUT    /objects/{oid}         upload object bytes
//	POST   /objects/{oid}/verify  confirm a completed upload
//	DELETE /objects/{oid}         remove an object
//	GET    /locks                 list locks
//	POST   /locks                 create a lock
//	POST   /locks/verify          split locks into ours and theirs
//	POST   /locks/{id}/unlock     release a lock
//
// Request and response bodies use the application/vnd.git-lfs+json media
// type. Errors are written as {"message": ...} with a status code derived
// from the lfsgate sentinel errors; a lock conflict also carries the
// existing lock.
//
// # Authentication
//
// Read and write routes each take an AuthConfig. The basic auth username
// becomes the session identity that owns locks:
//
//	store := keybackend.NewMapCredentialStore(users)
//	handler := http.NewHandler(&http.HandlerConfig{
//	    ReadAuth:  http.AuthConfig{Store: store},
//	    WriteAuth: http.AuthConfig{Required: true, Store: store},
//	    Signer:    signer,
//	}, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// Transfer routes also accept the signed Authorization header that the batch
// endpoint hands out, so clients need no credentials to follow an action.
package http
