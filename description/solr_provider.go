package description

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
)

// SolrSchemaProvider introspects the upstream Solr core through its
// schema and system info APIs.
type SolrSchemaProvider struct {
	baseURL string
	client  *http.Client
}

func NewSolrSchemaProvider(config_obj *config.Config) *SolrSchemaProvider {
	return &SolrSchemaProvider{
		baseURL: strings.TrimSuffix(config_obj.Frontend.SolrURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type solrSchemaFieldsResponse struct {
	Fields []struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Indexed     bool   `json:"indexed"`
		Stored      bool   `json:"stored"`
		MultiValued bool   `json:"multiValued"`
	} `json:"fields"`
}

func (self *SolrSchemaProvider) GetSchemaFields(
	ctx context.Context) (map[string]FieldMeta, error) {

	serialized, err := self.get(ctx, "/schema/fields?wt=json")
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"schema introspection: %v", err).Wrap(err)
	}

	response := &solrSchemaFieldsResponse{}
	err = json.Unmarshal(serialized, response)
	if err != nil {
		return nil, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"schema introspection: %v", err).Wrap(err)
	}

	result := make(map[string]FieldMeta, len(response.Fields))
	for _, field := range response.Fields {
		result[field.Name] = FieldMeta{
			Type:        field.Type,
			Indexed:     field.Indexed,
			Stored:      field.Stored,
			MultiValued: field.MultiValued,
		}
	}
	return result, nil
}

type solrSystemInfoResponse struct {
	Lucene struct {
		SolrSpecVersion string `json:"solr-spec-version"`
	} `json:"lucene"`
}

// SpecificationVersion asks the core for its spec version. Failures
// yield "" so the assembler falls back to the configured default.
func (self *SolrSchemaProvider) SpecificationVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serialized, err := self.get(ctx, "/admin/info/system?wt=json")
	if err != nil {
		return ""
	}

	response := &solrSystemInfoResponse{}
	err = json.Unmarshal(serialized, response)
	if err != nil {
		return ""
	}
	return response.Lucene.SolrSpecVersion
}

func (self *SolrSchemaProvider) get(
	ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, self.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := self.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf(
			"unexpected status %v from %v", resp.Status, path)
	}

	return ioutil.ReadAll(resp.Body)
}
