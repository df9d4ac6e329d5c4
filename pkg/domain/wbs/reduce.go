package wbs

import (
	"time"
)

// Sample points at one concrete document with missing effort so callers can
// deep-link to an example instead of only quoting a count.
type Sample struct {
	ProjectID  string   `json:"project_id"`
	DocumentID string   `json:"document_id"`
	RowIDs     []string `json:"row_ids,omitempty"`
}

// Portfolio is the sum of per-document statistics across in-scope projects.
type Portfolio struct {
	Computed
	Documents int     `json:"documents"`
	Skipped   int     `json:"skipped"`
	Projects  int     `json:"projects"`
	Sample    *Sample `json:"sample,omitempty"`
}

// Reduce runs Compute over every WBS artifact of the given projects and sums
// the results. Artifacts of other projects are ignored; artifacts that are
// not WBS workbooks are counted as skipped. A repeated (project, document)
// pair is counted once.
func Reduce(projects []string, artifacts []Artifact, today time.Time, h Horizon) Portfolio {
	inScope := make(map[string]bool, len(projects))
	for _, id := range projects {
		inScope[id] = true
	}

	var p Portfolio
	seen := make(map[string]bool)
	docs := make(map[[2]string]bool)
	for _, a := range artifacts {
		if !inScope[a.ProjectID] {
			continue
		}
		key := [2]string{a.ProjectID, a.DocumentID}
		if docs[key] {
			continue
		}
		docs[key] = true
		doc, err := ParseDocument(a.Body)
		if err != nil {
			p.Skipped++
			continue
		}

		c := Compute(doc.Rows, today, h)
		p.Computed = p.Computed.Add(c)
		p.Documents++
		if !seen[a.ProjectID] {
			seen[a.ProjectID] = true
			p.Projects++
		}

		if p.Sample == nil && c.MissingEffort > 0 {
			p.Sample = &Sample{
				ProjectID:  a.ProjectID,
				DocumentID: a.DocumentID,
				RowIDs:     c.MissingEffortIDs,
			}
		}
	}
	return p
}
