package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// manifestJSONSchema validates a JSON-encoded descriptor manifest
// before it is strictly decoded, catching typos and extra fields the
// same way the teacher's schema-json/schema.json guards hand-authored
// schema files.
const manifestJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["descriptors"],
  "properties": {
    "descriptors": {
      "type": "array",
      "items": { "$ref": "#/definitions/descriptor" }
    }
  },
  "definitions": {
    "descriptor": {
      "type": "object",
      "additionalProperties": false,
      "required": ["identity", "properties"],
      "properties": {
        "identity": {"type": "string"},
        "abstract": {"type": "boolean"},
        "table": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"name": {"type": "string"}}
        },
        "properties": {
          "type": "array",
          "items": { "$ref": "#/definitions/property" }
        }
      }
    },
    "property": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name", "family"],
      "properties": {
        "name": {"type": "string"},
        "family": {"type": "string"},
        "nullable": {"type": "boolean"},
        "writable": {"type": "boolean"},
        "computed": {"type": "boolean"},
        "column": {"type": "object"},
        "key": {"type": "boolean"},
        "explicit_key": {"type": "boolean"},
        "primary_key": {"type": "object"},
        "indexes": {"type": "array"},
        "uniques": {"type": "array"},
        "foreign_key": {"type": "object"},
        "checks": {"type": "array"},
        "default": {"type": "object"}
      }
    }
  }
}`

// manifest is the JSON shape LoadManifest decodes, mirroring Descriptor
// with lowercase_underscore field names for a declarative JSON input
// path.
type manifest struct {
	Descriptors []manifestDescriptor `json:"descriptors"`
}

type manifestDescriptor struct {
	Identity   string             `json:"identity"`
	Abstract   bool               `json:"abstract"`
	Table      *TableTag          `json:"table"`
	Properties []manifestProperty `json:"properties"`
}

type manifestProperty struct {
	Name        string         `json:"name"`
	Family      string         `json:"family"`
	Nullable    bool           `json:"nullable"`
	Writable    bool           `json:"writable"`
	Computed    bool           `json:"computed"`
	Column      *ColumnTag     `json:"column"`
	Key         bool           `json:"key"`
	ExplicitKey bool           `json:"explicit_key"`
	PrimaryKey  *PrimaryKeyTag `json:"primary_key"`
	Indexes     []IndexTag     `json:"indexes"`
	Uniques     []UniqueTag    `json:"uniques"`
	ForeignKey  *ForeignKeyTag `json:"foreign_key"`
	Checks      []CheckTag     `json:"checks"`
	Default     *DefaultTag    `json:"default"`
}

// LoadManifest parses a JSON-encoded descriptor manifest, the
// convenience alternate input path for hosts that prefer a declarative
// file over hand-built []Descriptor. It validates against the bundled
// JSON Schema first, then strict-decodes (DisallowUnknownFields) for a
// second layer of protection against typos.
func LoadManifest(data []byte) ([]Descriptor, error) {
	schemaLoader := gojsonschema.NewStringLoader(manifestJSONSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validating descriptor manifest: %w", err)
	}
	if !result.Valid() {
		msg := "descriptor manifest failed validation:\n"
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf("- %s\n", desc)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	var m manifest
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding descriptor manifest: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(m.Descriptors))
	for _, md := range m.Descriptors {
		d := Descriptor{Identity: md.Identity, Abstract: md.Abstract, Table: md.Table}
		for _, mp := range md.Properties {
			d.Properties = append(d.Properties, Property{
				Name:        mp.Name,
				Family:      familyFromString(mp.Family),
				Nullable:    mp.Nullable,
				Writable:    mp.Writable,
				Computed:    mp.Computed,
				Column:      mp.Column,
				Key:         mp.Key,
				ExplicitKey: mp.ExplicitKey,
				PrimaryKey:  mp.PrimaryKey,
				Indexes:     mp.Indexes,
				Uniques:     mp.Uniques,
				ForeignKey:  mp.ForeignKey,
				Checks:      mp.Checks,
				Default:     mp.Default,
			})
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}
