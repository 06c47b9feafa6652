package ledger

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Document schemas. A primary file that parses as JSON but fails its schema
// is treated exactly like a corrupt file, so a torn write can never poison a
// load while a valid backup mirror exists.

const accountsSchemaJSON = `{
	"type": "object",
	"required": ["version", "accounts"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"accounts": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"balance": {"type": "integer"},
					"energy": {"type": "integer"},
					"energy_clock": {"type": "string"},
					"last_work_at": {"type": "string"},
					"job": {"type": "string"},
					"company_id": {"type": "string"},
					"inventory": {"type": "array"}
				}
			}
		}
	}
}`

const companiesSchemaJSON = `{
	"type": "object",
	"required": ["version", "companies"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"companies": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["name", "owner_id", "members"],
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string", "minLength": 1},
					"owner_id": {"type": "string"},
					"members": {"type": "array", "items": {"type": "string"}},
					"treasury": {"type": "integer"},
					"pending_invites": {"type": "array", "items": {"type": "string"}},
					"salary": {"type": "integer"}
				}
			}
		}
	}
}`

var (
	accountsSchema  = jsonschema.MustCompileString("accounts.schema.json", accountsSchemaJSON)
	companiesSchema = jsonschema.MustCompileString("companies.schema.json", companiesSchemaJSON)
)

func validateDoc(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
