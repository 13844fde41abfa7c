// Package graph renders a page catalog as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
)

// Overlay contains flow state to highlight on the graph.
type Overlay struct {
	VisitedPages []string
	CurrentPage  string
}

// OverlayFromFlow highlights the pages answered so far and the page on screen.
func OverlayFromFlow(flow *domain.Flow) *Overlay {
	if flow == nil {
		return nil
	}
	o := &Overlay{}
	for _, b := range flow.Stack {
		for _, s := range b.CompletedSteps {
			o.VisitedPages = append(o.VisitedPages, s.PageID)
		}
	}
	for _, s := range flow.Finished {
		o.VisitedPages = append(o.VisitedPages, s.PageID)
	}
	if flow.Result != nil {
		for _, s := range flow.Result.UserSelections {
			o.VisitedPages = append(o.VisitedPages, s.PageID)
		}
	}
	if flow.CurrentPage != nil {
		o.CurrentPage = flow.CurrentPage.ID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from products and pages.
// It applies semantic styling:
// - Product: ((Circle)), linked to its first page with a thick arrow
// - Selection: {Rhombus}
// - Number: [/Parallelogram/]
// - Text: [Rectangle]
// Page next_pages are solid arrows; selection next_pages are dotted and
// labelled with the option title.
func GenerateMermaid(products []domain.Product, pages []domain.Page, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, p := range products {
		safeID := sanitizeMermaidID("product_" + p.ID)
		fmt.Fprintf(&sb, "    %s((\"%s\"))\n", safeID, escapeLabel(p.Name))
		if p.Page != "" {
			fmt.Fprintf(&sb, "    %s ==> %s\n", safeID, sanitizeMermaidID(p.Page))
		}
	}

	for _, page := range pages {
		safeID := sanitizeMermaidID(page.ID)

		opener, closer := "[", "]"
		switch page.Type {
		case domain.PageTypeSelection:
			opener, closer = "{", "}"
		case domain.PageTypeNumber:
			opener, closer = "[/", "/]"
		}
		title := page.Title
		if title == "" {
			title = page.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(title), closer)

		for _, sel := range page.Selections {
			for _, next := range sel.NextPages {
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, escapeLabel(sel.Title), sanitizeMermaidID(next))
			}
		}
		for _, next := range page.NextPages {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(next))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedPages {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentPage != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentPage))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
