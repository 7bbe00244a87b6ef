package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/DataONEorg/d1-solr-extensions/constants"
)

// Can be an array or a string in YAML but always parses to a string
// array. Older deployment property files are inconsistent in this
// regard so to interoperate we need to support the ambiguity.
type StringArray []string

func (a *StringArray) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var multi []string
	err := unmarshal(&multi)
	if err != nil {
		var single string
		err := unmarshal(&single)
		if err != nil {
			return err
		}
		*a = []string{single}
	} else {
		*a = multi
	}
	return nil
}

type FrontendConfig struct {
	BindAddress string `yaml:"bind_address,omitempty"`
	BindPort    uint32 `yaml:"bind_port,omitempty"`

	// When both are set the frontend serves TLS.
	CertificateFile string `yaml:"certificate_file,omitempty"`
	PrivateKeyFile  string `yaml:"private_key_file,omitempty"`

	// Roots used to verify client certificates presented directly
	// to the frontend. When unset, only proxy forwarded certificate
	// headers confer identity.
	ClientCAFile string `yaml:"client_ca_file,omitempty"`

	// Base URL of the Solr core that receives rewritten requests.
	SolrURL string `yaml:"solr_url,omitempty"`
}

type AuthorizationConfig struct {
	// Shared secret attached to requests from CN administrators. If
	// unset, no caller is ever granted CN level access.
	AdminToken string `yaml:"admin_token,omitempty"`

	// Principals granted CN administrator status unconditionally,
	// independent of the node registry.
	Administrators StringArray `yaml:"administrators,omitempty"`

	NodelistRefreshIntervalMs int64 `yaml:"nodelist_refresh_interval_ms,omitempty"`

	// Schema fields whose values are sets of principals allowed to
	// read a record.
	SearchReadFields StringArray `yaml:"search_read_fields,omitempty"`
	LogReadFields    StringArray `yaml:"log_read_fields,omitempty"`

	// Facet parameter entries containing any of these field names are
	// removed for subject-less callers.
	RedactedFacetFields StringArray `yaml:"redacted_facet_fields,omitempty"`

	// An authenticated caller that is not on a non-empty restricted
	// operation list is normally handled by the endpoint's no-session
	// policy. When true, such callers receive public level access on
	// every endpoint instead.
	RestrictedFallbackPublic bool `yaml:"restricted_fallback_public,omitempty"`

	// When true the log endpoint forwards subject-less requests with
	// public (summary only) access instead of rejecting them.
	LogServicePublicAccess bool `yaml:"log_service_public_access,omitempty"`

	MaxRows     int `yaml:"max_rows,omitempty"`
	DefaultRows int `yaml:"default_rows,omitempty"`
}

type ServicesConfig struct {
	// Coordinating node registry endpoint (serves /node).
	NodeRegistryURL string `yaml:"node_registry_url,omitempty"`

	// Identity service endpoint (serves /accounts/<subject>).
	IdentityServiceURL string `yaml:"identity_service_url,omitempty"`
}

type DescriptionConfig struct {
	// Engine name reported in the description document ("solr" for
	// the search index, "logsolr" for the event index).
	EngineName string `yaml:"engine_name,omitempty"`

	FieldDescriptionsPath string `yaml:"field_descriptions_path,omitempty"`
	SchemaPropertiesPath  string `yaml:"schema_properties_path,omitempty"`

	DefaultEngineVersion string `yaml:"default_engine_version,omitempty"`
	DefaultSchemaVersion string `yaml:"default_schema_version,omitempty"`

	AdditionalInfo StringArray `yaml:"additional_info,omitempty"`
}

type Config struct {
	Frontend      *FrontendConfig      `yaml:"Frontend,omitempty"`
	Authorization *AuthorizationConfig `yaml:"Authorization,omitempty"`
	Services      *ServicesConfig      `yaml:"Services,omitempty"`

	// The search index and the event log index each carry their own
	// description document.
	Description    *DescriptionConfig `yaml:"Description,omitempty"`
	LogDescription *DescriptionConfig `yaml:"LogDescription,omitempty"`

	Verbose bool `yaml:"Verbose,omitempty"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Frontend: &FrontendConfig{
			BindAddress: "127.0.0.1",
			BindPort:    8983,
			SolrURL:     "http://127.0.0.1:8984/solr",
		},
		Authorization: &AuthorizationConfig{
			NodelistRefreshIntervalMs: constants.NODELIST_REFRESH_INTERVAL_MS,
			SearchReadFields: []string{
				"readPermission", "rightsHolder",
				"writePermission", "changePermission",
			},
			LogReadFields: []string{"readPermission"},
			RedactedFacetFields: []string{
				"ipAddress", "readPermission", "subject", "rightsHolder",
			},
			MaxRows:     constants.MAX_ROWS_LIMIT,
			DefaultRows: constants.DEFAULT_ROWS,
		},
		Services: &ServicesConfig{
			NodeRegistryURL:    "https://127.0.0.1/cn/v2",
			IdentityServiceURL: "https://127.0.0.1/cn/v2",
		},
		Description: &DescriptionConfig{
			EngineName:            "solr",
			FieldDescriptionsPath: "/etc/dataone/index/solr/queryFieldDescriptions.properties",
			SchemaPropertiesPath:  "/etc/dataone/index/solr/schema.properties",
			DefaultEngineVersion:  "3.4",
			DefaultSchemaVersion:  "1.0",
			AdditionalInfo: []string{
				"https://dataone.org/architecture/design/SearchMetadata.html",
			},
		},
		LogDescription: &DescriptionConfig{
			EngineName:            "logsolr",
			FieldDescriptionsPath: "/etc/dataone/index/solr/eventIndexQueryFieldDescriptions.properties",
			SchemaPropertiesPath:  "/etc/dataone/index/solr/schema.properties",
			DefaultEngineVersion:  "3.4",
			DefaultSchemaVersion:  "1.0",
		},
	}
}

// Load the config stored in the YAML file over the defaults.
func LoadConfig(filename string) (*Config, error) {
	result := GetDefaultConfig()

	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(data, result)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	return result, validate(result)
}

func validate(config_obj *Config) error {
	if config_obj.Frontend == nil || config_obj.Frontend.SolrURL == "" {
		return errors.New("Frontend.solr_url must be set")
	}

	auth := config_obj.Authorization
	if auth == nil {
		return errors.New("Authorization section must be set")
	}

	if auth.NodelistRefreshIntervalMs <= 0 {
		auth.NodelistRefreshIntervalMs = constants.NODELIST_REFRESH_INTERVAL_MS
	}
	if auth.MaxRows <= 0 {
		auth.MaxRows = constants.MAX_ROWS_LIMIT
	}
	if auth.DefaultRows <= 0 {
		auth.DefaultRows = constants.DEFAULT_ROWS
	}
	if len(auth.SearchReadFields) == 0 {
		auth.SearchReadFields = []string{"readPermission"}
	}
	if len(auth.LogReadFields) == 0 {
		auth.LogReadFields = []string{"readPermission"}
	}

	if config_obj.Services == nil {
		config_obj.Services = GetDefaultConfig().Services
	}
	if config_obj.Description == nil {
		config_obj.Description = GetDefaultConfig().Description
	}
	if config_obj.LogDescription == nil {
		config_obj.LogDescription = GetDefaultConfig().LogDescription
	}

	return nil
}
