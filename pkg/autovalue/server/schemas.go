package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBase = "https://autovalue.local/schemas/"

// MinVehicleYear is the oldest model year accepted for a valuation request.
const MinVehicleYear = 1990

const vehicleDefs = `
	"vehicle": {
		"type": "object",
		"required": ["brand", "model", "year", "condition"],
		"properties": {
			"brand":     {"type": "string", "minLength": 1, "pattern": "\\S"},
			"model":     {"type": "string", "minLength": 1, "pattern": "\\S"},
			"year":      {"type": "integer", "minimum": %d},
			"mileage":   {"type": "integer", "minimum": 0},
			"condition": {"enum": ["excellent", "good", "fair", "poor"]}
		}
	},
	"contact": {
		"type": "object",
		"required": ["name", "phone"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"phone": {"type": "string", "minLength": 5}
		}
	}`

// Either {vehicleDetails, contactInfo} or the flat vehicle fields with an
// optional contactInfo.
const valuationSchemaTmpl = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"$defs": {` + vehicleDefs + `},
	"type": "object",
	"if": {"required": ["vehicleDetails"]},
	"then": {
		"required": ["contactInfo"],
		"properties": {
			"vehicleDetails": {"$ref": "#/$defs/vehicle"},
			"contactInfo":    {"$ref": "#/$defs/contact"}
		}
	},
	"else": {
		"$ref": "#/$defs/vehicle",
		"properties": {
			"contactInfo": {"$ref": "#/$defs/contact"}
		}
	}
}`

const analyzeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"anyOf": [
		{
			"required": ["images"],
			"properties": {
				"images": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
			}
		},
		{
			"required": ["image"],
			"properties": {
				"image": {"type": "string", "minLength": 1}
			}
		}
	]
}`

const overrideSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["decision", "reason"],
	"properties": {
		"decision": {"enum": ["auto_approve", "human_review", "escalate"]},
		"reason":   {"type": "string", "minLength": 1, "pattern": "\\S"}
	}
}`

const pricingPatchSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"basePrice":              {"type": "number"},
		"premiumBrandMultiplier": {"type": "number"},
		"depreciationRate":       {"type": "number"},
		"mileagePenalty":         {"type": "number"},
		"captchaEnabled":         {"type": "boolean"},
		"vinSearchEnabled":       {"type": "boolean"}
	}
}`

const brandingPatchSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"siteName":        {"type": "string"},
		"siteTagline":     {"type": "string"},
		"logoUrl":         {"type": "string"},
		"contactPhone":    {"type": "string"},
		"contactEmail":    {"type": "string"},
		"telegramBot":     {"type": "string"},
		"telegramChannel": {"type": "string"},
		"whatsapp":        {"type": "string"},
		"primaryColor":    {"type": "string"},
		"accentColor":     {"type": "string"}
	}
}`

const logoSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["image"],
	"properties": {
		"image": {"type": "string", "minLength": 1}
	}
}`

type schemas struct {
	valuation *jsonschema.Schema
	analyze   *jsonschema.Schema
	override  *jsonschema.Schema
	pricing   *jsonschema.Schema
	branding  *jsonschema.Schema
	logo      *jsonschema.Schema
}

type schemaSource struct {
	name   string
	source string
	dst    **jsonschema.Schema
}

// compileSchemas builds every request schema.
func compileSchemas() (*schemas, error) {
	s := &schemas{}
	sources := []schemaSource{
		{"valuation", fmt.Sprintf(valuationSchemaTmpl, MinVehicleYear), &s.valuation},
		{"analyze", analyzeSchema, &s.analyze},
		{"override", overrideSchema, &s.override},
		{"pricing", pricingPatchSchema, &s.pricing},
		{"branding", brandingPatchSchema, &s.branding},
		{"logo", logoSchema, &s.logo},
	}

	for _, src := range sources {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := schemaBase + src.name + ".schema.json"
		if err := c.AddResource(url, strings.NewReader(src.source)); err != nil {
			return nil, fmt.Errorf("load %s schema: %w", src.name, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", src.name, err)
		}
		*src.dst = compiled
	}
	return s, nil
}

// FieldError is one schema violation reported back to the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationDetails flattens a schema error into its leaf causes.
func validationDetails(err error) []FieldError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "/", Message: err.Error()}}
	}

	var out []FieldError
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := e.InstanceLocation
			if field == "" {
				field = "/"
			}
			out = append(out, FieldError{Field: field, Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
