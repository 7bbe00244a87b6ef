// Package description builds the query engine description document:
// the queryable fields of the Solr schema decorated with human
// descriptions from a properties overlay.
package description

import (
	"bufio"
	"context"
	"encoding/xml"
	"os"
	"sort"
	"strings"

	"github.com/Velocidex/ordereddict"
	"github.com/pkg/errors"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/logging"
)

const schemaVersionProperty = "schema-version="

// FieldMeta is the schema metadata the engine exposes per field.
type FieldMeta struct {
	Type        string
	Indexed     bool
	Stored      bool
	MultiValued bool
}

// SchemaProvider is the engine introspection collaborator.
type SchemaProvider interface {
	GetSchemaFields(ctx context.Context) (map[string]FieldMeta, error)

	// The engine's specification version, "" when the host can not
	// supply one.
	SpecificationVersion() string
}

type QueryField struct {
	Name        string   `xml:"name"`
	Type        string   `xml:"type"`
	Description []string `xml:"description,omitempty"`
	Searchable  bool     `xml:"searchable"`
	Returnable  bool     `xml:"returnable"`
	Sortable    bool     `xml:"sortable"`
	MultiValued bool     `xml:"multivalued"`
}

type QueryEngineDescription struct {
	XMLName            xml.Name     `xml:"queryEngineDescription"`
	QueryEngineVersion string       `xml:"queryEngineVersion"`
	QuerySchemaVersion string       `xml:"querySchemaVersion"`
	Name               string       `xml:"name"`
	AdditionalInfo     []string     `xml:"additionalInfo,omitempty"`
	QueryFields        []QueryField `xml:"queryField"`
}

type Assembler struct {
	config_obj *config.Config

	// The description section for this index variant - the search
	// index and the event log index carry their own overlays.
	desc *config.DescriptionConfig

	provider SchemaProvider

	// Field name -> human description, in properties file order.
	descriptions *ordereddict.Dict

	schemaVersion string
}

func NewAssembler(
	config_obj *config.Config,
	desc *config.DescriptionConfig,
	provider SchemaProvider) *Assembler {
	self := &Assembler{
		config_obj: config_obj,
		desc:       desc,
		provider:   provider,
	}

	logger := logging.GetLogger(config_obj, &logging.FrontendComponent)

	var err error
	self.descriptions, err = loadFieldDescriptions(
		desc.FieldDescriptionsPath)
	if err != nil {
		// A missing overlay means fields simply carry no
		// description.
		logger.Info("no field descriptions loaded: %v", err)
		self.descriptions = ordereddict.NewDict()
	}

	self.schemaVersion, err = loadSchemaVersion(desc.SchemaPropertiesPath)
	if err != nil || self.schemaVersion == "" {
		self.schemaVersion = desc.DefaultSchemaVersion
	}

	return self
}

// FieldDescriptions exposes the overlay in file order, for the
// describe tool's dump.
func (self *Assembler) FieldDescriptions() *ordereddict.Dict {
	return self.descriptions
}

// Describe assembles the descriptor from the engine schema. Fields
// are sorted by name, case insensitively.
func (self *Assembler) Describe(
	ctx context.Context) (*QueryEngineDescription, error) {
	fields, err := self.provider.GetSchemaFields(ctx)
	if err != nil {
		return nil, err
	}

	result := &QueryEngineDescription{
		Name:               self.engineName(),
		QueryEngineVersion: self.engineVersion(),
		QuerySchemaVersion: self.schemaVersion,
		AdditionalInfo: append([]string(nil),
			self.desc.AdditionalInfo...),
	}

	for name, meta := range fields {
		field := QueryField{
			Name:        name,
			Type:        meta.Type,
			Searchable:  meta.Indexed,
			Returnable:  meta.Stored,
			Sortable:    isSortable(meta.Type),
			MultiValued: meta.MultiValued,
		}

		description, pres := self.descriptions.GetString(name)
		if pres && description != "" {
			field.Description = []string{description}
		}

		result.QueryFields = append(result.QueryFields, field)
	}

	sort.Slice(result.QueryFields, func(i, j int) bool {
		return strings.ToLower(result.QueryFields[i].Name) <
			strings.ToLower(result.QueryFields[j].Name)
	})

	return result, nil
}

func (self *Assembler) engineName() string {
	if self.desc.EngineName == "" {
		return "solr"
	}
	return self.desc.EngineName
}

func (self *Assembler) engineVersion() string {
	version := self.provider.SpecificationVersion()
	if version == "" {
		version = self.desc.DefaultEngineVersion
	}
	return version
}

// Sorting on a multi token numeric primitive field is not meaningful
// in the underlying engine.
func isSortable(typeName string) bool {
	switch typeName {
	case "int", "long", "float", "double":
		return false
	default:
		return true
	}
}

// loadFieldDescriptions reads a simple key=value properties file.
// Lines without an equals sign, comments and blanks are skipped.
func loadFieldDescriptions(path string) (*ordereddict.Dict, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening field descriptions")
	}
	defer fd.Close()

	result := ordereddict.NewDict()
	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.TrimSpace(parts[0])
		description := strings.TrimSpace(parts[1])
		if name != "" && description != "" {
			result.Set(name, description)
		}
	}

	return result, scanner.Err()
}

// loadSchemaVersion scans a properties file for the schema-version
// line. "" with a nil error means the property is absent.
func loadSchemaVersion(path string) (string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening schema properties")
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, schemaVersionProperty) {
			version := strings.TrimSpace(
				line[len(schemaVersionProperty):])
			if version != "" {
				return version, nil
			}
		}
	}

	return "", scanner.Err()
}
