// FilePath: internal/validation/validation.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const powerUsageSchema = `{
	"type": "object",
	"required": ["device_id", "device_type", "timestamp", "power_data"],
	"properties": {
		"device_id": {"type": "string", "minLength": 1},
		"device_type": {"type": "string", "minLength": 1},
		"timestamp": {"type": "string", "minLength": 1},
		"power_data": {
			"type": "object",
			"required": ["energy_out_Wh", "power_W", "state_of_charge_%", "temperature_C"],
			"properties": {
				"energy_out_Wh": {"type": "number"},
				"power_W": {"type": "number"},
				"state_of_charge_%": {"type": "number", "minimum": 0, "maximum": 100},
				"temperature_C": {"type": "number"}
			}
		}
	}
}`

const locationSchema = `{
	"type": "object",
	"required": ["device_id", "device_type", "timestamp", "location_data"],
	"properties": {
		"device_id": {"type": "string", "minLength": 1},
		"device_type": {"type": "string", "minLength": 1},
		"timestamp": {"type": "string", "minLength": 1},
		"location_data": {
			"type": "object",
			"required": ["gps_latitude", "gps_longitude"],
			"properties": {
				"gps_latitude": {"type": "number", "minimum": -90, "maximum": 90},
				"gps_longitude": {"type": "number", "minimum": -180, "maximum": 180}
			}
		}
	}
}`

// Validator checks incoming readings before they are published
type Validator struct {
	schemas map[models.EventType]*jsonschema.Schema
}

// New compiles the reading schemas
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[models.EventType]*jsonschema.Schema)}
	sources := map[models.EventType]string{
		models.EventTypePowerUsage: powerUsageSchema,
		models.EventTypeLocation:   locationSchema,
	}
	for t, src := range sources {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://fieldpulse.local/schemas/%s.schema.json", t)
		if err := c.AddResource(url, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("schema load failed for %s: %w", t, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema compile failed for %s: %w", t, err)
		}
		v.schemas[t] = compiled
	}
	return v, nil
}

// Validate checks raw against the schema registered for t
func (v *Validator) Validate(t models.EventType, raw []byte) error {
	schema, ok := v.schemas[t]
	if !ok {
		return fmt.Errorf("no schema for event type %q", t)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s payload rejected: %w", t, err)
	}
	return nil
}
