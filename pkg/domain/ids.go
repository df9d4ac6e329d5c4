package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern allows ids that are safe to use as a single path segment.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ProjectID is a validated project identifier.
type ProjectID struct {
	value string
}

// NewProjectID validates value as a project id.
func NewProjectID(value string) (ProjectID, error) {
	v, err := validateID("project", value)
	return ProjectID{value: v}, err
}

func (id ProjectID) String() string { return id.value }

// IsZero returns true if the id is empty.
func (id ProjectID) IsZero() bool { return id.value == "" }

// DocumentID is a validated WBS document identifier.
type DocumentID struct {
	value string
}

// NewDocumentID validates value as a document id.
func NewDocumentID(value string) (DocumentID, error) {
	v, err := validateID("document", value)
	return DocumentID{value: v}, err
}

func (id DocumentID) String() string { return id.value }

// IsZero returns true if the id is empty.
func (id DocumentID) IsZero() bool { return id.value == "" }

func validateID(kind, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s ID cannot be empty", kind)
	}
	if strings.Contains(value, "..") || !idPattern.MatchString(value) {
		return "", fmt.Errorf("invalid %s ID format: %s", kind, value)
	}
	return value, nil
}
