package loam

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/reliant/configurator/pkg/domain"
)

// Export writes products and pages as markdown documents into the repository
// at path, one document per id. Descriptions become the document body.
func Export(ctx context.Context, path string, products []domain.Product, pages []domain.Page) error {
	ids := make(map[string]bool, len(pages))
	for _, p := range pages {
		ids[p.ID] = true
	}
	for _, p := range products {
		if ids[p.ID] {
			return fmt.Errorf("product %s has the same id as a page", p.ID)
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return fmt.Errorf("failed to initialize loam: %w", err)
	}
	typed := loam.NewTypedRepository[PageMetadata](repo)

	for _, p := range products {
		err := typed.Save(ctx, &loam.DocumentModel[PageMetadata]{
			ID:      p.ID,
			Content: p.Desc,
			Data: PageMetadata{
				ID:           p.ID,
				Kind:         KindProduct,
				Name:         p.Name,
				Image:        p.Image,
				CollectionID: p.CollectionID,
				Page:         p.Page,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}
	for _, p := range pages {
		if err := typed.Save(ctx, &loam.DocumentModel[PageMetadata]{
			ID:      p.ID,
			Content: p.Description,
			Data:    pageMetadata(p),
		}); err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.ID, err)
		}
	}
	return nil
}

func pageMetadata(p domain.Page) PageMetadata {
	meta := PageMetadata{
		ID:        p.ID,
		Type:      string(p.Type),
		Title:     p.Title,
		NextPages: p.NextPages,
	}
	for _, s := range p.Selections {
		item := map[string]any{"id": s.ID, "title": s.Title}
		if s.Desc != "" {
			item["desc"] = s.Desc
		}
		if s.Image != "" {
			item["image"] = s.Image
		}
		if len(s.NextPages) > 0 {
			item["next_pages"] = s.NextPages
		}
		meta.Selections = append(meta.Selections, item)
	}
	for _, in := range p.NumberInputs {
		meta.NumberInputs = append(meta.NumberInputs, map[string]any{
			"id":       in.ID,
			"title":    in.Title,
			"required": in.Required,
			"minimum":  in.Minimum,
			"maximum":  in.Maximum,
			"decimals": in.Decimals,
		})
	}
	return meta
}
