package http

import (
	"github.com/sagarc03/lfsgate"
)

// TransferBasic is the only transfer adapter the server offers.
const TransferBasic = "basic"

type refSpec struct {
	Name string `json:"name"`
}

type batchRequest struct {
	Operation string                     `json:"operation" validate:"required"`
	Transfers []string                   `json:"transfers,omitempty"`
	Ref       *refSpec                   `json:"ref,omitempty"`
	Objects   []lfsgate.ObjectDescriptor `json:"objects"`
	HashAlgo  string                     `json:"hash_algo,omitempty" validate:"omitempty,eq=sha256"`
}

type batchResponse struct {
	Transfer string                   `json:"transfer"`
	Objects  []lfsgate.Representation `json:"objects"`
	HashAlgo string                   `json:"hash_algo,omitempty"`
}

type createLockRequest struct {
	Path string   `json:"path" validate:"required"`
	Ref  *refSpec `json:"ref,omitempty"`
}

type lockResponse struct {
	Lock lfsgate.Lock `json:"lock"`
}

type verifyLocksRequest struct {
	Cursor string   `json:"cursor,omitempty"`
	Limit  int      `json:"limit,omitempty" validate:"gte=0"`
	Ref    *refSpec `json:"ref,omitempty"`
}

type unlockRequest struct {
	Force bool     `json:"force,omitempty"`
	Ref   *refSpec `json:"ref,omitempty"`
}

type verifyObjectRequest struct {
	OID  string `json:"oid" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}
