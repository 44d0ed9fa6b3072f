package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"student-report-service/internal/models"
)

// payloadSchema is the contract a completed report payload must satisfy
// before its task may transition to completed.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["reportKind", "generatedAt"],
  "properties": {
    "reportKind": {
      "type": "string",
      "enum": ["performance", "endorsement", "comprehensive"]
    },
    "generatedAt": {"type": "string"},
    "performance": {
      "type": "object",
      "required": ["student", "gpaAnalysis", "recommendations"],
      "properties": {
        "gpaAnalysis": {
          "type": "object",
          "required": ["currentGpa", "averageGpa", "trend"],
          "properties": {
            "currentGpa": {"type": "number", "minimum": 0, "maximum": 4},
            "averageGpa": {"type": "number", "minimum": 0, "maximum": 4},
            "trend": {
              "type": "string",
              "enum": ["improving", "declining", "stable", "insufficient_data"]
            }
          }
        },
        "recommendations": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    },
    "endorsement": {
      "type": "object",
      "required": ["student", "summary", "ratingDistribution"],
      "properties": {
        "summary": {
          "type": "object",
          "required": ["totalEndorsements", "averageRating"],
          "properties": {
            "totalEndorsements": {"type": "integer", "minimum": 0},
            "averageRating": {"type": "number", "minimum": 0, "maximum": 5}
          }
        }
      }
    },
    "overallAssessment": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "not": {"required": ["error"]}
}`

// ReportValidator validates report payloads against the embedded schema
type ReportValidator struct {
	schema *gojsonschema.Schema
}

// NewReportValidator compiles the embedded payload schema
func NewReportValidator() (*ReportValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load payload schema: %w", err)
	}
	return &ReportValidator{schema: schema}, nil
}

// ValidatePayload checks a payload against the schema
func (v *ReportValidator) ValidatePayload(payload *models.ReportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate payload: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("payload validation failed: %v", errs)
	}

	return nil
}
