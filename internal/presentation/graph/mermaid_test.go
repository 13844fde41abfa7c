package graph_test

import (
	"strings"
	"testing"

	"github.com/reliant/configurator/internal/presentation/graph"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		products []domain.Product
		pages    []domain.Page
		contains []string
	}{
		{
			name:     "Product Entry",
			products: []domain.Product{{ID: "front-door", Name: "Front Door", Page: "door-style"}},
			contains: []string{
				`product_front_door(("Front Door"))`,
				"product_front_door ==> door_style",
			},
		},
		{
			name: "Page Shapes",
			pages: []domain.Page{
				{ID: "frame", Type: domain.PageTypeSelection, Title: "Frame"},
				{ID: "size", Type: domain.PageTypeNumber, Title: "Size"},
				{ID: "notes", Type: domain.PageTypeText},
			},
			contains: []string{
				`frame{"Frame"}`,
				`size[/"Size"/]`,
				`notes["notes"]`,
			},
		},
		{
			name: "Page And Selection Edges",
			pages: []domain.Page{
				{
					ID: "frame", Type: domain.PageTypeSelection, Title: "Frame",
					NextPages: []string{"size"},
					Selections: []domain.Selection{
						{ID: "oak", Title: `Oak "natural"`, NextPages: []string{"finish"}},
						{ID: "upvc", Title: "uPVC"},
					},
				},
			},
			contains: []string{
				"frame --> size",
				`frame -. "Oak 'natural'" .-> finish`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.products, tt.pages, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	pages := []domain.Page{
		{ID: "frame", Type: domain.PageTypeSelection, NextPages: []string{"size"}},
		{ID: "size", Type: domain.PageTypeNumber},
	}
	flow := &domain.Flow{
		Status:      domain.StatusAwaiting,
		CurrentPage: &pages[1],
		Stack: []domain.Branch{{
			Pages:          []string{"frame", "size"},
			CurrentIndex:   1,
			CompletedSteps: []domain.Step{{PageID: "frame"}},
			Appended:       []int{0},
		}},
	}

	got := graph.GenerateMermaid(nil, pages, graph.OverlayFromFlow(flow))
	assert.Contains(t, got, "class frame visited;")
	assert.Contains(t, got, "class size current;")
	assert.Equal(t, 1, strings.Count(got, "class frame visited;"))
	assert.Nil(t, graph.OverlayFromFlow(nil))
}
