// Package validator checks a page catalog before it is served.
package validator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// Report lists the problems found in a catalog.
// Errors make flows fail or loop; warnings do not.
type Report struct {
	Errors   []string
	Warnings []string
}

// Err returns the errors as one error, or nil if there are none.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate crawls every page reachable from the products' first pages and from
// the store's own page list. It checks that references resolve, pages carry the
// items their type needs, number bounds are ordered, and the page graph has no
// cycle, which is what guarantees every flow terminates.
func Validate(ctx context.Context, store ports.PageStore, products []domain.Product) (*Report, error) {
	report := &Report{}

	ids, err := store.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	pages := make(map[string]*domain.Page)
	missing := make(map[string]bool)
	load := func(id string) *domain.Page {
		if p, ok := pages[id]; ok {
			return p
		}
		if missing[id] {
			return nil
		}
		p, err := store.GetPage(ctx, id)
		if err != nil {
			missing[id] = true
			if errors.Is(err, domain.ErrPageNotFound) {
				report.errorf("Missing page: '%s'", id)
			} else {
				report.errorf("Page '%s' failed to load: %v", id, err)
			}
			return nil
		}
		pages[id] = p
		return p
	}

	// Crawl from the products so broken references are reported even when
	// the store cannot list the pages they point to.
	reachable := make(map[string]bool)
	var queue []string
	for _, p := range products {
		if p.Page == "" {
			report.errorf("Product '%s' has no first page", p.ID)
			continue
		}
		queue = append(queue, p.Page)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		page := load(id)
		if page == nil {
			continue
		}
		for _, next := range edges(page) {
			if !reachable[next] {
				queue = append(queue, next)
			}
		}
	}

	for _, id := range ids {
		page := load(id)
		if page == nil {
			continue
		}
		for _, next := range edges(page) {
			load(next)
		}
		if len(products) > 0 && !reachable[id] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Page '%s' is not reachable from any product", id))
		}
	}

	for _, id := range sortedIDs(pages) {
		checkPage(report, pages[id])
	}
	if cycle := findCycle(pages); cycle != nil {
		report.errorf("Cycle detected: %s", strings.Join(cycle, " -> "))
	}

	return report, nil
}

func checkPage(r *Report, p *domain.Page) {
	switch p.Type {
	case domain.PageTypeSelection:
		if len(p.Selections) == 0 {
			r.errorf("Page '%s' is a SELECTION page without selections", p.ID)
		}
		seen := make(map[string]bool)
		for _, s := range p.Selections {
			if seen[s.ID] {
				r.errorf("Page '%s' has duplicate selection '%s'", p.ID, s.ID)
			}
			seen[s.ID] = true
		}
	case domain.PageTypeNumber:
		if len(p.NumberInputs) == 0 {
			r.errorf("Page '%s' is a NUMBER page without inputs", p.ID)
		}
		for _, in := range p.NumberInputs {
			if in.Minimum > in.Maximum {
				r.errorf("Page '%s' input '%s' has minimum %v above maximum %v", p.ID, in.ID, in.Minimum, in.Maximum)
			}
		}
	case domain.PageTypeText:
	default:
		r.errorf("Page '%s' has unknown type %q", p.ID, p.Type)
	}
}

// edges returns every page id a page can lead to: its selections' next pages
// followed by its own.
func edges(p *domain.Page) []string {
	var out []string
	for _, s := range p.Selections {
		out = append(out, s.NextPages...)
	}
	return append(out, p.NextPages...)
}

// findCycle returns the first cycle found by depth-first search, closed with
// its starting page, or nil.
func findCycle(pages map[string]*domain.Page) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var path []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		path = append(path, id)
		if p, ok := pages[id]; ok {
			for _, next := range edges(p) {
				switch color[next] {
				case grey:
					start := slices.Index(path, next)
					return append(slices.Clone(path[start:]), next)
				case white:
					if c := visit(next); c != nil {
						return c
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range sortedIDs(pages) {
		if color[id] == white {
			if c := visit(id); c != nil {
				return c
			}
		}
	}
	return nil
}

func sortedIDs(pages map[string]*domain.Page) []string {
	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
