package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
	"github.com/reliant/configurator/pkg/domain"
)

// Loader adapts a Loam repository to ports.PageStore and ports.ProductCatalog.
type Loader struct {
	Repo *loam.TypedRepository[PageMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PageMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path.
// Strict mode keeps numbers as json.Number so bounds are not rounded.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PageMetadata](repo)), nil
}

// GetPage retrieves a page document and decodes its selections or number inputs.
func (l *Loader) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPageNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	if doc.Data.Kind == KindProduct {
		return nil, fmt.Errorf("%w: %s is a product", domain.ErrPageNotFound, id)
	}
	return buildPage(documentID(doc.ID, doc.Data.ID), doc.Data, doc.Content)
}

func buildPage(id string, meta PageMetadata, content string) (*domain.Page, error) {
	page := &domain.Page{
		ID:          id,
		Type:        domain.PageType(strings.ToUpper(meta.Type)),
		Title:       meta.Title,
		Description: strings.TrimSpace(content),
		NextPages:   normalizeIDs(meta.NextPages),
	}
	if !page.Type.Valid() {
		return nil, fmt.Errorf("page %s has unknown type %q", id, meta.Type)
	}

	for i, raw := range meta.Selections {
		var sel domain.Selection
		if err := mapstructure.Decode(raw, &sel); err != nil {
			return nil, fmt.Errorf("page %s: selection %d: %w", id, i, err)
		}
		sel.NextPages = normalizeIDs(sel.NextPages)
		page.Selections = append(page.Selections, sel)
	}
	for i, raw := range meta.NumberInputs {
		var in domain.NumberInput
		if err := mapstructure.Decode(raw, &in); err != nil {
			return nil, fmt.Errorf("page %s: number input %d: %w", id, i, err)
		}
		page.NumberInputs = append(page.NumberInputs, in)
	}
	return page, nil
}

// ListPages lists the ids of all page documents.
func (l *Loader) ListPages(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Data.Kind == KindProduct {
			continue
		}
		id := documentID(doc.ID, doc.Data.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListProducts lists product documents ordered by id.
func (l *Loader) ListProducts(ctx context.Context) ([]domain.Product, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	var products []domain.Product
	for _, doc := range docs {
		if doc.Data.Kind != KindProduct {
			continue
		}
		products = append(products, buildProduct(documentID(doc.ID, doc.Data.ID), doc.Data, doc.Content))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetProduct retrieves one product document.
func (l *Loader) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil || doc.Data.Kind != KindProduct {
		if err == nil || isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	p := buildProduct(documentID(doc.ID, doc.Data.ID), doc.Data, doc.Content)
	return &p, nil
}

func buildProduct(id string, meta PageMetadata, content string) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         meta.Name,
		Desc:         strings.TrimSpace(content),
		Image:        meta.Image,
		CollectionID: meta.CollectionID,
		Page:         trimExtension(meta.Page),
	}
}

// Watch reports the ids of changed catalog documents until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// isNotFound recognizes missing documents. Loam surfaces filesystem errors for
// markdown repositories.
func isNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(strings.ToLower(err.Error()), "not found")
}

func documentID(docID, metaID string) string {
	if metaID != "" {
		return trimExtension(metaID)
	}
	return trimExtension(docID)
}

func normalizeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = trimExtension(id)
	}
	return out
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
