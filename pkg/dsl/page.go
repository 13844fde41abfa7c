package dsl

import "github.com/reliant/configurator/pkg/domain"

// PageBuilder provides a fluent API for configuring a page.
//
// Option and Input open an item; Then, Range, Required and Decimals apply to
// the item opened last.
type PageBuilder struct {
	page domain.Page
}

// Describe sets the page description.
func (p *PageBuilder) Describe(desc string) *PageBuilder {
	p.page.Description = desc
	return p
}

// Next appends pages visited after this one regardless of the answer.
func (p *PageBuilder) Next(ids ...string) *PageBuilder {
	p.page.NextPages = append(p.page.NextPages, ids...)
	return p
}

// Option adds a selection to a SELECTION page.
func (p *PageBuilder) Option(id, title string) *PageBuilder {
	p.page.Selections = append(p.page.Selections, domain.Selection{ID: id, Title: title})
	return p
}

// Then makes the last option open a nested branch of the given pages.
func (p *PageBuilder) Then(ids ...string) *PageBuilder {
	if n := len(p.page.Selections); n > 0 {
		sel := &p.page.Selections[n-1]
		sel.NextPages = append(sel.NextPages, ids...)
	}
	return p
}

// Image sets the image of the last option.
func (p *PageBuilder) Image(url string) *PageBuilder {
	if n := len(p.page.Selections); n > 0 {
		p.page.Selections[n-1].Image = url
	}
	return p
}

// Input adds a number input to a NUMBER page.
func (p *PageBuilder) Input(id, title string) *PageBuilder {
	p.page.NumberInputs = append(p.page.NumberInputs, domain.NumberInput{ID: id, Title: title})
	return p
}

// Range bounds the last number input.
func (p *PageBuilder) Range(minimum, maximum float64) *PageBuilder {
	if in := p.lastInput(); in != nil {
		in.Minimum = minimum
		in.Maximum = maximum
	}
	return p
}

// Required marks the last number input as required.
func (p *PageBuilder) Required() *PageBuilder {
	if in := p.lastInput(); in != nil {
		in.Required = true
	}
	return p
}

// Decimals allows fractional values on the last number input.
func (p *PageBuilder) Decimals() *PageBuilder {
	if in := p.lastInput(); in != nil {
		in.Decimals = true
	}
	return p
}

func (p *PageBuilder) lastInput() *domain.NumberInput {
	if n := len(p.page.NumberInputs); n > 0 {
		return &p.page.NumberInputs[n-1]
	}
	return nil
}
