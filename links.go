package lfsgate

import (
	"net/http"
	"strings"
	"time"
)

const (
	// MediaType is the Accept value attached to every transfer action.
	MediaType = "application/vnd.git-lfs"
)

// LinkBuilder turns an access decision into a Representation with
// time-limited transfer actions.
type LinkBuilder struct {
	baseURL string
	signer  *LinkSigner
	now     func() time.Time
}

// NewLinkBuilder creates a builder for hrefs rooted at baseURL. signer and
// now may be nil.
func NewLinkBuilder(baseURL string, signer *LinkSigner, now func() time.Time) *LinkBuilder {
	if now == nil {
		now = time.Now
	}
	return &LinkBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		now:     now,
	}
}

// RepoBase returns the LFS endpoint of repo, e.g. https://host/repo/info/lfs.
func (b *LinkBuilder) RepoBase(repo string) string {
	return b.baseURL + "/" + repo + "/info/lfs"
}

func (b *LinkBuilder) objectHref(repo, oid string) string {
	return b.RepoBase(repo) + "/objects/" + oid
}

func (b *LinkBuilder) verifyHref(repo, oid string) string {
	return b.objectHref(repo, oid) + "/verify"
}

// Represent builds the representation of meta for the requested actions.
// Every action gets the Accept header and its own expiry. The Authorization
// header is the signed link value when a signer is configured, otherwise the
// token carried by desc, and is omitted when that is empty.
func (b *LinkBuilder) Represent(repo string, desc ObjectDescriptor, meta ObjectMetadata, download, upload, verify bool) Representation {
	authenticated := true
	rep := Representation{
		OID:           meta.OID,
		Size:          meta.Size,
		Authenticated: &authenticated,
	}

	actions := make(map[string]TransferAction)
	if download {
		actions[ActionDownload] = b.action(repo, desc, meta.OID, http.MethodGet, b.objectHref(repo, meta.OID))
	}
	if upload {
		actions[ActionUpload] = b.action(repo, desc, meta.OID, http.MethodPut, b.objectHref(repo, meta.OID))
	}
	if verify {
		actions[ActionVerify] = b.action(repo, desc, meta.OID, http.MethodPost, b.verifyHref(repo, meta.OID))
	}

	if len(actions) > 0 {
		rep.Actions = actions
	}

	return rep
}

func (b *LinkBuilder) action(repo string, desc ObjectDescriptor, oid, method, href string) TransferAction {
	expiresAt := b.now().UTC().Add(LinkLifetime).Truncate(time.Second)

	token := desc.Authorization
	if b.signer != nil {
		token = b.signer.Sign(method, repo, oid, expiresAt)
	}

	header := map[string]string{"Accept": MediaType}
	if token != "" {
		header["Authorization"] = token
	}

	return TransferAction{
		Href:      href,
		Header:    header,
		ExpiresAt: expiresAt,
	}
}
