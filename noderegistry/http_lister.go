package noderegistry

import (
	"context"
	"encoding/xml"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

// The node list document served by the coordinating node's /node
// endpoint.
type nodeListDocument struct {
	XMLName xml.Name       `xml:"nodeList"`
	Nodes   []nodeDocument `xml:"node"`
}

type nodeDocument struct {
	Type       string `xml:"type,attr"`
	State      string `xml:"state,attr"`
	Identifier string `xml:"identifier"`

	Subjects []string `xml:"subject"`

	Services []serviceDocument `xml:"services>service"`
}

type serviceDocument struct {
	Name         string                `xml:"name,attr"`
	Restrictions []restrictionDocument `xml:"restriction"`
}

type restrictionDocument struct {
	MethodName string   `xml:"methodName,attr"`
	Subjects   []string `xml:"subject"`
}

// HTTPNodeLister lists registered nodes from a coordinating node's
// registry endpoint.
type HTTPNodeLister struct {
	url    string
	client *http.Client
}

func NewHTTPNodeLister(url string) *HTTPNodeLister {
	return &HTTPNodeLister{
		url: strings.TrimSuffix(url, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (self *HTTPNodeLister) ListNodes(ctx context.Context) ([]*Node, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, self.url+"/node", nil)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"node registry: %v", err).Wrap(err)
	}

	resp, err := self.client.Do(req)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"node registry: %v", err).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotImplemented {
		return nil, d1errors.NotImplemented(
			constants.DETAIL_CODE_NOT_IMPLEMENTED,
			"node registry does not support listing")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"node registry returned %v", resp.Status)
	}

	serialized, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"node registry: %v", err).Wrap(err)
	}

	return parseNodeList(serialized)
}

func parseNodeList(serialized []byte) ([]*Node, error) {
	doc := &nodeListDocument{}
	err := xml.Unmarshal(serialized, doc)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"parsing node list: %v", err).Wrap(err)
	}

	result := make([]*Node, 0, len(doc.Nodes))
	for _, raw := range doc.Nodes {
		node := &Node{
			Identifier: raw.Identifier,
			Type:       NodeType(strings.ToLower(raw.Type)),
			State:      NodeState(strings.ToLower(raw.State)),
		}

		for _, subject := range raw.Subjects {
			node.Subjects = append(node.Subjects,
				sessions.NewSubject(subject))
		}

		for _, service := range raw.Services {
			parsed := NodeService{Name: service.Name}
			for _, restriction := range service.Restrictions {
				entry := ServiceMethodRestriction{
					MethodName: restriction.MethodName,
				}
				for _, subject := range restriction.Subjects {
					entry.Subjects = append(entry.Subjects,
						sessions.NewSubject(subject))
				}
				parsed.Restrictions = append(parsed.Restrictions, entry)
			}
			node.Services = append(node.Services, parsed)
		}

		result = append(result, node)
	}

	return result, nil
}
