package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "server.config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
Frontend:
  bind_address: 0.0.0.0
  solr_url: http://solr:8983/solr/search_core

Authorization:
  admin_token: sekrit
  administrators:
    - CN=admin,O=Example
  max_rows: 500
`)
	config_obj, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config_obj.Frontend.BindAddress)
	assert.Equal(t, "http://solr:8983/solr/search_core",
		config_obj.Frontend.SolrURL)
	assert.Equal(t, "sekrit", config_obj.Authorization.AdminToken)
	assert.Equal(t, StringArray{"CN=admin,O=Example"},
		config_obj.Authorization.Administrators)
	assert.Equal(t, 500, config_obj.Authorization.MaxRows)

	// Unset sections keep their defaults.
	assert.Equal(t, 1000, config_obj.Authorization.DefaultRows)
	assert.NotEmpty(t, config_obj.Authorization.SearchReadFields)
	assert.NotNil(t, config_obj.Services)
	assert.NotNil(t, config_obj.Description)
	require.NotNil(t, config_obj.LogDescription)
	assert.Equal(t, "logsolr", config_obj.LogDescription.EngineName)
}

func TestLoadConfigRejectsMissingSolrURL(t *testing.T) {
	path := writeConfigFile(t, `
Frontend:
  solr_url: ""
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solr_url")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/server.config.yaml")
	assert.Error(t, err)
}

func TestStringArrayAcceptsScalar(t *testing.T) {
	parsed := struct {
		Fields StringArray `yaml:"fields"`
	}{}

	require.NoError(t, yaml.Unmarshal(
		[]byte("fields: readPermission"), &parsed))
	assert.Equal(t, StringArray{"readPermission"}, parsed.Fields)

	require.NoError(t, yaml.Unmarshal(
		[]byte("fields:\n  - a\n  - b"), &parsed))
	assert.Equal(t, StringArray{"a", "b"}, parsed.Fields)
}
