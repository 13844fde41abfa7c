package form

import (
	"fmt"

	"github.com/reliant/configurator/internal/runtime"
	"github.com/reliant/configurator/pkg/domain"
)

// Variant selects how the current page is presented.
type Variant string

const (
	VariantSelection Variant = "selection_dialog"
	VariantNumber    Variant = "number_dialog"
	VariantText      Variant = "text_form"
	VariantNone      Variant = "none"
)

// Option is one choosable selection.
type Option struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc,omitempty"`
	Image string `json:"image,omitempty"`
}

// Field is one number input with its display hint.
type Field struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Required bool    `json:"required"`
	Minimum  float64 `json:"minimum"`
	Maximum  float64 `json:"maximum"`
	Step     string  `json:"step"`
	Hint     string  `json:"hint"`
}

// View is everything a renderer needs to display the current state of a flow.
type View struct {
	SessionID    string            `json:"session_id"`
	Status       domain.FlowStatus `json:"status"`
	Variant      Variant           `json:"variant"`
	PageID       string            `json:"page_id,omitempty"`
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	Options      []Option          `json:"options,omitempty"`
	Fields       []Field           `json:"fields,omitempty"`
	CanGoBack    bool              `json:"can_go_back"`
	Step         int               `json:"step"`
	ProgressText string            `json:"progress_text"`

	// Busy disables navigation while a transition for the session is in flight.
	Busy bool `json:"busy"`

	Result *domain.ConfiguredProduct `json:"result,omitempty"`
}

// Render builds the view for a flow.
func Render(flow *domain.Flow, busy bool) View {
	v := View{
		Variant: VariantNone,
		Busy:    busy,
	}
	if flow == nil {
		v.Status = domain.StatusIdle
		return v
	}

	v.SessionID = flow.SessionID
	v.Status = flow.Status
	v.Result = flow.Result
	if !flow.Active() || flow.CurrentPage == nil {
		return v
	}

	page := flow.CurrentPage
	v.PageID = page.ID
	v.Title = page.Title
	v.Description = page.Description
	v.CanGoBack = !busy && runtime.CanGoBack(flow)
	v.Step = runtime.Progress(flow)
	v.ProgressText = fmt.Sprintf("Step %d", v.Step)

	switch page.Type {
	case domain.PageTypeSelection:
		v.Variant = VariantSelection
		for _, s := range page.Selections {
			v.Options = append(v.Options, Option{ID: s.ID, Title: s.Title, Desc: s.Desc, Image: s.Image})
		}
	case domain.PageTypeNumber:
		v.Variant = VariantNumber
		for _, in := range page.NumberInputs {
			v.Fields = append(v.Fields, field(in))
		}
	case domain.PageTypeText:
		v.Variant = VariantText
	}
	return v
}

func field(in domain.NumberInput) Field {
	f := Field{
		ID:       in.ID,
		Title:    in.Title,
		Required: in.Required,
		Minimum:  in.Minimum,
		Maximum:  in.Maximum,
		Step:     "1",
	}
	kind := "whole numbers only"
	if in.Decimals {
		f.Step = "0.1"
		kind = "decimals allowed"
	}
	if in.Unbounded() {
		f.Hint = fmt.Sprintf("Any positive value (%s)", kind)
	} else {
		f.Hint = fmt.Sprintf("Range: %s - %s (%s)", formatNumber(in.Minimum), formatNumber(in.Maximum), kind)
	}
	return f
}
