package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
)

// Loader adapts a Loam repository of step documents to the
// ports.DefinitionLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[StepMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[StepMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initialises a read-only repository rooted at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam repository %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[StepMetadata](repo)), nil
}

type stepDoc struct {
	docID   string
	meta    StepMetadata
	content string
}

func (l *Loader) steps(ctx context.Context) (map[string][]stepDoc, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	forms := make(map[string][]stepDoc)
	for _, doc := range docs {
		if doc.Data.Form == "" {
			continue
		}
		forms[doc.Data.Form] = append(forms[doc.Data.Form], stepDoc{
			docID:   doc.ID,
			meta:    doc.Data,
			content: doc.Content,
		})
	}
	return forms, nil
}

// GetDefinition assembles the named form from its step documents.
func (l *Loader) GetDefinition(ctx context.Context, name string) (*definition.Definition, error) {
	forms, err := l.steps(ctx)
	if err != nil {
		return nil, err
	}
	docs, ok := forms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].meta.Order != docs[j].meta.Order {
			return docs[i].meta.Order < docs[j].meta.Order
		}
		return docs[i].docID < docs[j].docID
	})

	raw := map[string]any{"name": name}
	steps := make([]any, 0, len(docs))
	var edges []any
	seen := make(map[string]string)
	for _, d := range docs {
		id := d.meta.ID
		if id == "" {
			id = filepath.Base(trimExtension(d.docID))
		}
		// Collision Detection
		if existing, dup := seen[id]; dup {
			return nil, fmt.Errorf("collision detected: step '%s' of form '%s' is defined in both '%s' and '%s'", id, name, existing, d.docID)
		}
		seen[id] = d.docID

		if d.meta.FormTitle != "" {
			raw["title"] = d.meta.FormTitle
		}
		step := map[string]any{
			"id":       id,
			"controls": d.meta.Controls,
		}
		setIf(step, "title", d.meta.Title)
		setIf(step, "skip_if", d.meta.SkipIf)
		setIf(step, "complete_if", d.meta.CompleteIf)
		setIf(step, "description", strings.TrimSpace(d.content))
		steps = append(steps, step)
		edges = append(edges, d.meta.Edges...)
	}
	raw["steps"] = steps
	if len(edges) > 0 {
		raw["edges"] = edges
	}

	def, err := definition.FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", name, err)
	}
	return def, nil
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// ListDefinitions lists the forms found in the repository.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	forms, err := l.steps(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(forms))
	for name := range forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
