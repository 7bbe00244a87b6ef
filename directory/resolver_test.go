package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataONEorg/d1-solr-extensions/config"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

type fakeIdentityService struct {
	info *sessions.SubjectInfo
	err  error
}

func (self *fakeIdentityService) GetSubjectInfo(
	ctx context.Context,
	session *sessions.Session,
	subject sessions.Subject) (*sessions.SubjectInfo, error) {
	return self.info, self.err
}

func newTestSession(subject string) *sessions.Session {
	return &sessions.Session{Subject: sessions.NewSubject(subject)}
}

func TestResolveWalksGroupsAndEquivalents(t *testing.T) {
	jane := sessions.NewSubject("CN=jane,O=Example")
	alias := sessions.NewSubject("CN=jane-alias,O=Example")
	team := sessions.NewSubject("CN=team,O=Example")
	friends := sessions.NewSubject("CN=friends,O=Example")

	info := &sessions.SubjectInfo{
		People: []*sessions.Person{{
			Subject:              jane,
			EquivalentIdentities: []sessions.Subject{alias},
			IsMemberOf:           []sessions.Subject{team},
			Verified:             true,
		}},
		Groups: []*sessions.Group{{
			Subject: friends,
			Members: []sessions.Subject{alias},
		}},
	}

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(), &fakeIdentityService{info: info})

	subjects, err := resolver.Resolve(
		context.Background(), newTestSession(jane.Value), jane)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"public",
		"authenticatedUser",
		"CN=jane,O=Example",
		"verifiedUser",
		"CN=team,O=Example",
		"CN=jane-alias,O=Example",
		"CN=friends,O=Example",
	}, subjects)
}

func TestResolveEquivalentIdentityCycle(t *testing.T) {
	a := sessions.NewSubject("CN=a,O=Example")
	b := sessions.NewSubject("CN=b,O=Example")

	info := &sessions.SubjectInfo{
		People: []*sessions.Person{
			{Subject: a, EquivalentIdentities: []sessions.Subject{b}},
			{Subject: b, EquivalentIdentities: []sessions.Subject{a}},
		},
	}

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(), &fakeIdentityService{info: info})

	subjects, err := resolver.Resolve(
		context.Background(), newTestSession(a.Value), a)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"public",
		"authenticatedUser",
		"CN=a,O=Example",
		"CN=b,O=Example",
	}, subjects)
}

func TestResolveNotFoundFallsBackToSessionInfo(t *testing.T) {
	jane := sessions.NewSubject("CN=jane,O=Example")
	team := sessions.NewSubject("CN=team,O=Example")

	session := newTestSession(jane.Value)
	session.SubjectInfo = &sessions.SubjectInfo{
		People: []*sessions.Person{{
			Subject:    jane,
			IsMemberOf: []sessions.Subject{team},
		}},
	}

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(),
		&fakeIdentityService{err: d1errors.NotFound(
			"1460", "no such subject")})

	subjects, err := resolver.Resolve(context.Background(), session, jane)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"public",
		"authenticatedUser",
		"CN=jane,O=Example",
		"CN=team,O=Example",
	}, subjects)
}

func TestResolveNotFoundWithoutSessionInfo(t *testing.T) {
	jane := sessions.NewSubject("cn=jane, o=Example")

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(),
		&fakeIdentityService{err: d1errors.NotFound(
			"1460", "no such subject")})

	subjects, err := resolver.Resolve(
		context.Background(), newTestSession(jane.Value), jane)
	require.NoError(t, err)

	// The bare subject is still standardized on the way in.
	assert.Equal(t, []string{
		"public",
		"authenticatedUser",
		"CN=jane,O=Example",
	}, subjects)
}

func TestResolveServiceFailurePropagates(t *testing.T) {
	jane := sessions.NewSubject("CN=jane,O=Example")

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(),
		&fakeIdentityService{err: d1errors.ServiceFailure(
			"1490", "directory down")})

	_, err := resolver.Resolve(
		context.Background(), newTestSession(jane.Value), jane)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory down")
}

func TestResolveKeepsMalformedSubject(t *testing.T) {
	malformed := sessions.NewSubject("not-a-dn")

	resolver := NewPrincipalResolver(
		config.GetDefaultConfig(),
		&fakeIdentityService{err: d1errors.NotFound(
			"1460", "no such subject")})

	subjects, err := resolver.Resolve(
		context.Background(), newTestSession(malformed.Value), malformed)
	require.NoError(t, err)

	assert.Contains(t, subjects, "not-a-dn")
}
