package form_test

import (
	"testing"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaiting(page *domain.Page) *domain.Flow {
	return &domain.Flow{
		SessionID:   "s1",
		Status:      domain.StatusAwaiting,
		Stack:       []domain.Branch{domain.NewBranch([]string{page.ID})},
		CurrentPage: page,
	}
}

func TestRender_Number(t *testing.T) {
	page := sizePage(
		domain.NumberInput{ID: "width", Title: "Width", Minimum: 0, Maximum: 100},
		domain.NumberInput{ID: "qty", Title: "Qty", Decimals: true},
	)
	flow := awaiting(page)
	flow.Finished = []domain.Step{{PageID: "a"}, {PageID: "b"}}

	v := form.Render(flow, false)
	assert.Equal(t, form.VariantNumber, v.Variant)
	assert.Equal(t, 3, v.Step)
	assert.Equal(t, "Step 3", v.ProgressText)
	assert.False(t, v.CanGoBack)
	require.Len(t, v.Fields, 2)
	assert.Equal(t, "Range: 0 - 100 (whole numbers only)", v.Fields[0].Hint)
	assert.Equal(t, "1", v.Fields[0].Step)
	assert.Equal(t, "Any positive value (decimals allowed)", v.Fields[1].Hint)
	assert.Equal(t, "0.1", v.Fields[1].Step)
}

func TestRender_SelectionAndBusy(t *testing.T) {
	page := &domain.Page{
		ID:    "frame",
		Type:  domain.PageTypeSelection,
		Title: "Frame",
		Selections: []domain.Selection{
			{ID: "oak", Title: "Oak", Image: "https://cdn.example.com/oak.png"},
			{ID: "upvc", Title: "uPVC"},
		},
	}
	flow := awaiting(page)
	flow.Stack = append(flow.Stack, domain.NewBranch([]string{"frame"}))

	v := form.Render(flow, false)
	assert.Equal(t, form.VariantSelection, v.Variant)
	assert.True(t, v.CanGoBack)
	require.Len(t, v.Options, 2)
	assert.Equal(t, "https://cdn.example.com/oak.png", v.Options[0].Image)

	busy := form.Render(flow, true)
	assert.True(t, busy.Busy)
	assert.False(t, busy.CanGoBack, "navigation is disabled while busy")
}

func TestRender_Terminal(t *testing.T) {
	v := form.Render(nil, false)
	assert.Equal(t, domain.StatusIdle, v.Status)
	assert.Equal(t, form.VariantNone, v.Variant)

	done := &domain.Flow{
		SessionID: "s1",
		Status:    domain.StatusCompleted,
		Result:    &domain.ConfiguredProduct{ID: "cp", Quantity: 1},
	}
	v = form.Render(done, false)
	assert.Equal(t, domain.StatusCompleted, v.Status)
	assert.Equal(t, form.VariantNone, v.Variant)
	require.NotNil(t, v.Result)
	assert.Equal(t, "cp", v.Result.ID)

	text := form.Render(awaiting(&domain.Page{ID: "notes", Type: domain.PageTypeText}), false)
	assert.Equal(t, form.VariantText, text.Variant)
}
