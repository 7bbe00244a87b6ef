package authfilter

import (
	"net/http"
	"net/url"

	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
)

// NoSessionPolicy decides what happens to a request that carries no
// usable identity. The search service forwards it for public access;
// the log service rejects it outright.
type NoSessionPolicy func(
	w http.ResponseWriter, r *http.Request, next http.Handler) error

// PublicAccessPolicy forwards the request unmodified. With no
// authorization parameters attached the rewriter applies the public
// filter downstream.
func PublicAccessPolicy(
	w http.ResponseWriter, r *http.Request, next http.Handler) error {
	next.ServeHTTP(w, r)
	return nil
}

// RejectPolicy refuses the request with NotAuthorized. Used by
// endpoints that only admit identified callers.
func RejectPolicy(
	w http.ResponseWriter, r *http.Request, next http.Handler) error {
	return d1errors.NotAuthorized(
		constants.DETAIL_CODE_NOT_AUTHORIZED,
		"this service is only available to authenticated users")
}

// SubjectInjector attaches the resolved principal list to the
// outgoing parameters. Separated out so a filter variant could
// attach a narrower set.
type SubjectInjector func(params url.Values, subjects []string)

func DefaultSubjectInjector(params url.Values, subjects []string) {
	if len(subjects) > 0 {
		params[constants.PARAM_AUTHORIZED_SUBJECTS] = subjects
	}
}
