package wbs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Workbook format accepted by the reducer.
const (
	DocumentType    = "wbs"
	DocumentVersion = 1
)

// ErrNotWBS marks an artifact that is not a version 1 WBS workbook.
var ErrNotWBS = errors.New("not a wbs document")

const documentSchemaJSON = `{
  "type": "object",
  "required": ["type", "version", "rows"],
  "properties": {
    "type": { "enum": ["wbs"] },
    "version": { "enum": [1] },
    "title": { "type": "string" },
    "rows": {
      "type": "array",
      "items": { "type": "object" }
    }
  }
}`

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchemaJSON)

// Document is a parsed WBS workbook. Version is a float so that 1.0 decodes
// the same as 1.
type Document struct {
	Type    string  `json:"type"`
	Version float64 `json:"version"`
	Title   string  `json:"title,omitempty"`
	Rows    []Row   `json:"rows"`
}

// ParseDocument decodes body and checks it against the workbook schema.
// Anything that is not a version 1 WBS yields an error wrapping ErrNotWBS.
func ParseDocument(body []byte) (*Document, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNotWBS)
	}

	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWBS, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrNotWBS, strings.Join(issues, "; "))
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWBS, err)
	}
	return &doc, nil
}

// Artifact is a stored document belonging to a project. Only artifacts whose
// body parses as a WBS workbook contribute to the portfolio.
type Artifact struct {
	ProjectID  string    `json:"project_id"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title,omitempty"`
	Body       []byte    `json:"-"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}
