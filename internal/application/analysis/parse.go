package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// characters of context logged on each side of a decode failure
const errorContext = 200

const reportSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overallScore", "summary", "gapAnalysis", "benefitsRealisation", "criticalQuestions"],
  "properties": {
    "overallScore": { "type": "number", "minimum": 0, "maximum": 100 },
    "summary": { "type": "string" },
    "benefitsSummary": { "type": "object" },
    "gapAnalysis": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["area", "finding", "severity", "recommendation"],
        "properties": {
          "severity": { "enum": ["High", "Medium", "Low"] },
          "leadingQuestions": { "type": "array", "items": { "type": "string" } }
        }
      }
    },
    "benefitsRealisation": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "readinessScore": { "type": "number", "minimum": 0, "maximum": 100 }
        }
      }
    },
    "criticalQuestions": {
      "type": "array",
      "items": { "type": "object", "required": ["question"] }
    },
    "frameworkAlignment": { "type": "object" },
    "financialAssurance": { "type": "object" }
  }
}`

var reportSchemaLoader = gojsonschema.NewStringLoader(reportSchemaJSON)

// ExtractJSON strips markdown code fences and slices from the first '{' to the last '}'.
func ExtractJSON(text string) string {
	s := strings.ReplaceAll(text, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		s = s[first : last+1]
	}
	return strings.TrimSpace(s)
}

// Parser decodes provider output into a report.
type Parser struct {
	Log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{Log: log}
}

// Parse returns the decoded report or an error wrapping ai.ErrMalformedResponse.
// It never returns a partial report.
func (p *Parser) Parse(text string) (*assurance.AssuranceReport, error) {
	clean := ExtractJSON(text)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ai.ErrMalformedResponse)
	}
	if !strings.HasPrefix(clean, "{") {
		p.Log.Warn("assessment response is not a JSON object", zap.String("context", Around(clean, 0, errorContext)))
		return nil, fmt.Errorf("%w: not a JSON object", ai.ErrMalformedResponse)
	}

	var report assurance.AssuranceReport
	if err := json.Unmarshal([]byte(clean), &report); err != nil {
		p.logDecodeError(clean, err)
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	p.checkConformance(clean)
	return &report, nil
}

func (p *Parser) logDecodeError(clean string, err error) {
	offset := int64(-1)
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		offset = syn.Offset
	case errors.As(err, &typ):
		offset = typ.Offset
	}
	fields := []zap.Field{zap.Error(err), zap.Int("length", len(clean))}
	if offset >= 0 {
		fields = append(fields, zap.Int64("offset", offset), zap.String("context", Around(clean, int(offset), errorContext)))
	}
	p.Log.Warn("failed to parse assessment response", fields...)
}

// schema issues are logged only; the report is still returned.
func (p *Parser) checkConformance(clean string) {
	result, err := gojsonschema.Validate(reportSchemaLoader, gojsonschema.NewStringLoader(clean))
	if err != nil {
		p.Log.Warn("report schema check failed", zap.Error(err))
		return
	}
	if result.Valid() {
		return
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	p.Log.Warn("report does not conform to expected shape", zap.Strings("issues", issues))
}

// Around returns up to n bytes on each side of offset.
func Around(s string, offset, n int) string {
	if offset > len(s) {
		offset = len(s)
	}
	start := offset - n
	if start < 0 {
		start = 0
	}
	end := offset + n
	if end > len(s) {
		end = len(s)
	}
	return strings.ToValidUTF8(s[start:end], "")
}
