package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

type cachedArtifact struct {
	modTime  time.Time
	size     int64
	artifact wbs.Artifact
}

// DocumentName returns the .pulse-relative name of a WBS document.
func DocumentName(projectID, documentID string) string {
	return path.Join(WBSDir, projectID, documentID+".json")
}

// Artifacts lists the WBS documents stored under wbs/<project>/ for every
// project id. Unchanged files are served from the in-memory cache.
func (r *FilesystemRepository) Artifacts(ctx context.Context, projectIDs []string) ([]wbs.Artifact, error) {
	var out []wbs.Artifact
	for _, id := range projectIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid, err := domain.NewProjectID(id)
		if err != nil {
			return nil, err
		}
		dir, err := r.ResolvePath(path.Join(WBSDir, pid.String()))
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			a, err := r.loadArtifact(pid.String(), strings.TrimSuffix(name, ".json"))
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *FilesystemRepository) loadArtifact(projectID, documentID string) (wbs.Artifact, error) {
	name := DocumentName(projectID, documentID)
	p, err := r.ResolvePath(name)
	if err != nil {
		return wbs.Artifact{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return wbs.Artifact{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if c, ok := r.artifacts.Get(p); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.artifact, nil
	}

	data, err := r.readFile(name)
	if err != nil {
		return wbs.Artifact{}, err
	}
	a := wbs.Artifact{
		ProjectID:  projectID,
		DocumentID: documentID,
		Body:       data,
		UpdatedAt:  info.ModTime().UTC(),
	}
	if doc, err := wbs.ParseDocument(data); err == nil {
		a.Title = doc.Title
	}
	r.artifacts.Add(p, cachedArtifact{modTime: info.ModTime(), size: info.Size(), artifact: a})
	return a, nil
}

// SaveDocument validates and stores a WBS document.
func (r *FilesystemRepository) SaveDocument(projectID, documentID string, body []byte) error {
	pid, err := domain.NewProjectID(projectID)
	if err != nil {
		return err
	}
	did, err := domain.NewDocumentID(documentID)
	if err != nil {
		return err
	}
	if _, err := wbs.ParseDocument(body); err != nil {
		return err
	}
	return r.WriteFile(DocumentName(pid.String(), did.String()), body)
}
