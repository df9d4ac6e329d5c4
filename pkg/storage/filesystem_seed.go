package storage

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var seedFiles = []struct {
	template string
	name     func(project string) string
}{
	{"pulse.yaml.tmpl", func(string) string { return ConfigFile }},
	{"projects.yaml.tmpl", func(string) string { return ProjectsFile }},
	{"flow.json.tmpl", func(string) string { return FlowFile }},
	{"approvals.yaml.tmpl", func(string) string { return ApprovalsFile }},
	{"change_requests.yaml.tmpl", func(string) string { return ChangeRequestsFile }},
	{"activity.json.tmpl", func(string) string { return ActivityFile }},
	{"wbs.json.tmpl", func(p string) string { return DocumentName(p, "plan") }},
}

// Seed writes an example snapshot for one project with dates relative to
// today. Existing files are left untouched. It returns the names written.
func (r *FilesystemRepository) Seed(projectID string, today time.Time) ([]string, error) {
	pid, err := domain.NewProjectID(projectID)
	if err != nil {
		return nil, err
	}
	day := guard.DayUTC(today)
	funcs := template.FuncMap{
		"day": func(offset int) string { return guard.AddDays(day, offset).Format("2006-01-02") },
	}
	data := struct{ Project string }{Project: pid.String()}

	var written []string
	for _, f := range seedFiles {
		name := f.name(pid.String())
		path, err := r.ResolvePath(name)
		if err != nil {
			return written, err
		}
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, err
		}

		tmpl, err := template.New(f.template).Funcs(funcs).ParseFS(templateFS, "templates/"+f.template)
		if err != nil {
			return written, fmt.Errorf("failed to parse %s: %w", f.template, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", f.template, err)
		}
		if err := r.WriteFile(name, buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}
