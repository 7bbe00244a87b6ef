package directory

import (
	"context"
	"encoding/xml"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

// The subject info document served by the identity service's
// /accounts endpoint.
type subjectInfoDocument struct {
	XMLName xml.Name         `xml:"subjectInfo"`
	People  []personDocument `xml:"person"`
	Groups  []groupDocument  `xml:"group"`
}

type personDocument struct {
	Subject              string   `xml:"subject"`
	IsMemberOf           []string `xml:"isMemberOf"`
	EquivalentIdentities []string `xml:"equivalentIdentity"`
	Verified             bool     `xml:"verified"`
}

type groupDocument struct {
	Subject string   `xml:"subject"`
	Members []string `xml:"hasMember"`
}

// HTTPIdentityService looks up subject info from an identity service
// endpoint.
type HTTPIdentityService struct {
	url    string
	client *http.Client
}

func NewHTTPIdentityService(url string) *HTTPIdentityService {
	return &HTTPIdentityService{
		url: strings.TrimSuffix(url, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (self *HTTPIdentityService) GetSubjectInfo(
	ctx context.Context, session *sessions.Session,
	subject sessions.Subject) (*sessions.SubjectInfo, error) {

	endpoint := self.url + "/accounts/" + url.PathEscape(subject.Value)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"identity service: %v", err).Wrap(err)
	}

	resp, err := self.client.Do(req)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"identity service: %v", err).Wrap(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:

	case http.StatusNotFound:
		return nil, d1errors.NotFound(
			constants.DETAIL_CODE_NOT_AUTHORIZED,
			"no subject info for %s", subject.Value)

	case http.StatusNotImplemented:
		return nil, d1errors.NotImplemented(
			constants.DETAIL_CODE_NOT_IMPLEMENTED,
			"identity service does not support subject info")

	default:
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"identity service returned %v", resp.Status)
	}

	serialized, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"identity service: %v", err).Wrap(err)
	}

	return parseSubjectInfo(serialized)
}

func parseSubjectInfo(serialized []byte) (*sessions.SubjectInfo, error) {
	doc := &subjectInfoDocument{}
	err := xml.Unmarshal(serialized, doc)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"parsing subject info: %v", err).Wrap(err)
	}

	result := &sessions.SubjectInfo{}
	for _, raw := range doc.People {
		person := &sessions.Person{
			Subject:  sessions.NewSubject(raw.Subject),
			Verified: raw.Verified,
		}
		for _, group := range raw.IsMemberOf {
			person.IsMemberOf = append(person.IsMemberOf,
				sessions.NewSubject(group))
		}
		for _, equivalent := range raw.EquivalentIdentities {
			person.EquivalentIdentities = append(
				person.EquivalentIdentities,
				sessions.NewSubject(equivalent))
		}
		result.People = append(result.People, person)
	}

	for _, raw := range doc.Groups {
		group := &sessions.Group{
			Subject: sessions.NewSubject(raw.Subject),
		}
		for _, member := range raw.Members {
			group.Members = append(group.Members,
				sessions.NewSubject(member))
		}
		result.Groups = append(result.Groups, group)
	}

	return result, nil
}
