package directory

import (
	"context"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

type PrincipalResolver struct {
	config_obj *config.Config
	identity   IdentityService
}

func NewPrincipalResolver(
	config_obj *config.Config, identity IdentityService) *PrincipalResolver {
	return &PrincipalResolver{
		config_obj: config_obj,
		identity:   identity,
	}
}

// Resolve produces the de-duplicated set of principal names the
// caller may read as. The result always contains at least the public
// and authenticated pseudo principals; order is not significant.
//
// Directory failures other than NotFound propagate so the caller can
// decide request disposition. NotFound falls back to the subject info
// embedded in the session, if any, because a certificate may carry
// its own assertion of group membership.
func (self *PrincipalResolver) Resolve(
	ctx context.Context,
	session *sessions.Session,
	authorized_subject sessions.Subject) ([]string, error) {

	logger := logging.GetLogger(self.config_obj, &logging.FrontendComponent)

	collector := newPrincipalSet()
	collector.add(constants.SUBJECT_PUBLIC)
	collector.add(constants.SUBJECT_AUTHENTICATED_USER)

	subject_info, err := self.identity.GetSubjectInfo(
		ctx, session, authorized_subject)
	if err != nil {
		if !d1errors.IsNotFound(err) {
			return nil, err
		}

		// The directory does not know this subject - fall back to
		// whatever the certificate asserted.
		subject_info = session.SubjectInfo
	}

	if subject_info == nil {
		collector.add(self.standardizeOrKeep(logger, authorized_subject))
		return collector.values(), nil
	}

	walker := &subjectWalker{
		info:    subject_info,
		visited: make(map[sessions.Subject]bool),
	}
	for _, subject := range walker.walk(authorized_subject) {
		if subject.Value == constants.SUBJECT_VERIFIED_USER {
			collector.add(constants.SUBJECT_VERIFIED_USER)
			continue
		}
		collector.add(self.standardizeOrKeep(logger, subject))
	}

	return collector.values(), nil
}

// standardizeOrKeep degrades gracefully on a malformed DN: the
// subject is kept unstandardized after a warning rather than aborting
// the whole resolution, since dropping it would silently narrow the
// caller's access.
func (self *PrincipalResolver) standardizeOrKeep(
	logger *logging.LogContext, subject sessions.Subject) string {
	standardized, err := sessions.StandardizeDN(subject.Value)
	if err != nil {
		logger.Warn("could not standardize subject %q: %v",
			subject.Value, err)
		return subject.Value
	}
	return standardized
}

// subjectWalker traverses the group memberships and person records
// transitively reachable from a starting subject, collecting every
// person and group subject exactly once.
type subjectWalker struct {
	info    *sessions.SubjectInfo
	visited map[sessions.Subject]bool
}

func (self *subjectWalker) walk(start sessions.Subject) []sessions.Subject {
	if self.visited[start] {
		return nil
	}
	self.visited[start] = true

	result := []sessions.Subject{start}

	person := self.info.FindPerson(start)
	if person != nil {
		if person.Verified {
			verified := sessions.NewSubject(constants.SUBJECT_VERIFIED_USER)
			if !self.visited[verified] {
				self.visited[verified] = true
				result = append(result, verified)
			}
		}

		for _, group := range person.IsMemberOf {
			if !self.visited[group] {
				self.visited[group] = true
				result = append(result, group)
			}
		}

		for _, equivalent := range person.EquivalentIdentities {
			result = append(result, self.walk(equivalent)...)
		}
	}

	// Groups that list the subject as a member also confer their
	// own subject.
	for _, group := range self.info.Groups {
		for _, member := range group.Members {
			if member == start && !self.visited[group.Subject] {
				self.visited[group.Subject] = true
				result = append(result, group.Subject)
			}
		}
	}

	return result
}

// principalSet de-duplicates while preserving insertion order so the
// injected parameter list is stable for tests and audit logs.
type principalSet struct {
	seen  map[string]bool
	items []string
}

func newPrincipalSet() *principalSet {
	return &principalSet{seen: make(map[string]bool)}
}

func (self *principalSet) add(value string) {
	if value == "" || self.seen[value] {
		return
	}
	self.seen[value] = true
	self.items = append(self.items, value)
}

func (self *principalSet) values() []string {
	return self.items
}
