package lfsgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ProcessBatch answers a batch request with one Representation per object,
// in request order.
//
// Objects whose metadata and bytes are both present need no transfer and are
// returned without actions. Otherwise an upload registers the object metadata
// and offers an upload action (plus verify when enabled), while a download
// reports a per-object 404.
//
// Tokens submitted with the objects are discarded. Action headers carry the
// signed link value instead when a signer is configured.
//
// Error types returned:
//   - ErrInvalidInput: invalid repo or operation
//   - ErrGeneral: a metadata or storage call failed; the whole batch fails
func (s *LFSService) ProcessBatch(ctx context.Context, req BatchRequest) ([]Representation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process batch: %w", err)
	}

	if !IsValidRepo(req.Repo) {
		return nil, fmt.Errorf("process batch: %w: invalid repo %q", ErrInvalidInput, req.Repo)
	}

	if !req.Operation.IsValid() {
		return nil, fmt.Errorf("process batch: %w: invalid operation %q", ErrInvalidInput, req.Operation)
	}

	reps := make([]Representation, 0, len(req.Objects))
	for _, obj := range req.Objects {
		obj.Authorization = ""

		if !IsValidOID(obj.OID) {
			reps = append(reps, objectError(obj, http.StatusUnprocessableEntity, "Invalid oid"))
			continue
		}

		if obj.Size < 0 {
			reps = append(reps, objectError(obj, http.StatusUnprocessableEntity, "Invalid size"))
			continue
		}

		rep, err := s.representObject(ctx, req.Repo, req.Operation, obj)
		if err != nil {
			return nil, fmt.Errorf("process batch %s: %w", obj.OID, storageError(err))
		}
		reps = append(reps, rep)
	}

	return reps, nil
}

func (s *LFSService) representObject(ctx context.Context, repo string, op Operation, obj ObjectDescriptor) (Representation, error) {
	meta, err := s.repo.GetObject(ctx, obj.OID)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Representation{}, fmt.Errorf("get metadata: %w", err)
	}

	if found {
		present, existsErr := s.storage.Exists(ctx, repo, obj.OID)
		if existsErr != nil {
			return Representation{}, fmt.Errorf("check object: %w", existsErr)
		}
		if present {
			return s.links.Represent(repo, obj, meta, false, false, false), nil
		}
	}

	if op != OperationUpload {
		return objectError(obj, http.StatusNotFound, "Not found"), nil
	}

	meta, _, err = s.repo.CreateObject(ctx, ObjectMetadata{
		OID:       obj.OID,
		Size:      obj.Size,
		Exist:     true,
		Split:     s.enableSplit,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Representation{}, fmt.Errorf("create metadata: %w", err)
	}

	return s.links.Represent(repo, obj, meta, false, true, s.enableVerify), nil
}

func objectError(obj ObjectDescriptor, code int, message string) Representation {
	return Representation{
		OID:  obj.OID,
		Size: obj.Size,
		Error: &ObjectError{
			Code:    code,
			Message: message,
		},
	}
}
