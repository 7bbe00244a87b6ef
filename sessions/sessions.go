// Package sessions models the certificate derived identity handed to
// the authorization filter. Sessions are created per request by the
// certificate manager and are read only downstream; nothing here is
// persisted.
package sessions

import (
	"net/http"
)

// A Subject is an opaque identity string - a standardized
// distinguished name or one of the pseudo identity constants.
// Equality is case and format sensitive after standardization.
type Subject struct {
	Value string
}

func NewSubject(value string) Subject {
	return Subject{Value: value}
}

type Person struct {
	Subject Subject

	// Other identities asserted to be the same person.
	EquivalentIdentities []Subject

	// Groups the person belongs to.
	IsMemberOf []Subject

	Verified bool
}

type Group struct {
	Subject Subject
	Members []Subject
}

// SubjectInfo carries the group and person records reachable from a
// subject, as returned by the identity service or embedded in the
// client certificate.
type SubjectInfo struct {
	People []*Person
	Groups []*Group
}

func (self *SubjectInfo) FindPerson(subject Subject) *Person {
	for _, person := range self.People {
		if person.Subject == subject {
			return person
		}
	}
	return nil
}

type Session struct {
	Subject Subject

	// Optional, pre populated from a certificate extension.
	SubjectInfo *SubjectInfo
}

// Manager resolves the inbound request to an authenticated session.
// A nil session with a nil error means no client certificate was
// presented - the public path.
type Manager interface {
	GetSession(r *http.Request) (*Session, error)
}
