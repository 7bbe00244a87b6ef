// Package directory expands an authenticated subject into the full
// set of principals authorized to read records on the caller's
// behalf, using an external identity service.
package directory

import (
	"context"

	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

// IdentityService is the directory lookup collaborator. GetSubjectInfo
// fails with a NotFound service exception when the subject is unknown
// to the directory; other failures surface as ServiceFailure or
// NotImplemented.
type IdentityService interface {
	GetSubjectInfo(ctx context.Context, session *sessions.Session,
		subject sessions.Subject) (*sessions.SubjectInfo, error)
}
