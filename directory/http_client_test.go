package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

const subjectInfoFixture = `
<subjectInfo>
  <person>
    <subject>CN=jane,O=Example</subject>
    <isMemberOf>CN=team,O=Example</isMemberOf>
    <equivalentIdentity>CN=jane-alias,O=Example</equivalentIdentity>
    <verified>true</verified>
  </person>
  <group>
    <subject>CN=team,O=Example</subject>
    <hasMember>CN=jane,O=Example</hasMember>
  </group>
</subjectInfo>`

func TestGetSubjectInfo(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requestedPath = r.URL.Path
			_, _ = w.Write([]byte(subjectInfoFixture))
		}))
	defer server.Close()

	service := NewHTTPIdentityService(server.URL + "/")
	info, err := service.GetSubjectInfo(context.Background(), nil,
		sessions.NewSubject("CN=jane,O=Example"))
	require.NoError(t, err)

	assert.Equal(t, "/accounts/CN=jane,O=Example", requestedPath)

	require.Len(t, info.People, 1)
	person := info.People[0]
	assert.Equal(t, "CN=jane,O=Example", person.Subject.Value)
	assert.True(t, person.Verified)
	assert.Equal(t, []sessions.Subject{
		sessions.NewSubject("CN=team,O=Example")}, person.IsMemberOf)
	assert.Equal(t, []sessions.Subject{
		sessions.NewSubject("CN=jane-alias,O=Example")},
		person.EquivalentIdentities)

	require.Len(t, info.Groups, 1)
	assert.Equal(t, "CN=team,O=Example", info.Groups[0].Subject.Value)
}

func TestGetSubjectInfoStatusMapping(t *testing.T) {
	status := http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
	defer server.Close()

	service := NewHTTPIdentityService(server.URL)
	subject := sessions.NewSubject("CN=jane,O=Example")

	_, err := service.GetSubjectInfo(context.Background(), nil, subject)
	assert.True(t, d1errors.IsNotFound(err))

	status = http.StatusNotImplemented
	_, err = service.GetSubjectInfo(context.Background(), nil, subject)
	require.Error(t, err)
	assert.False(t, d1errors.IsNotFound(err))

	status = http.StatusInternalServerError
	_, err = service.GetSubjectInfo(context.Background(), nil, subject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity service returned")
}

func TestParseSubjectInfoMalformed(t *testing.T) {
	_, err := parseSubjectInfo([]byte("<subjectInfo"))
	assert.Error(t, err)
}
