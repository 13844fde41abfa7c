package runtime

import (
	"fmt"
	"sort"

	"github.com/reliant/configurator/pkg/domain"
)

// growBranch appends page ids to the branch and records how many were added
// by the step just completed on it.
func growBranch(b *domain.Branch, pages []string) {
	b.Pages = append(b.Pages, pages...)
	b.Appended = append(b.Appended, len(pages))
}

// settle moves the flow to its next page: forward within the top branch if it has
// pages left, otherwise popping exhausted branches onto Finished until one does.
// It reports done when the root branch itself is exhausted.
func settle(f *domain.Flow) (target string, done bool, popped []domain.Branch) {
	for {
		top := f.Top()
		if !top.Exhausted() {
			top.CurrentIndex++
			return top.CurrentPageID(), false, popped
		}
		if len(f.Stack) == 1 {
			return "", true, popped
		}
		f.Finished = append(f.Finished, top.CompletedSteps...)
		popped = append(popped, *top)
		f.Stack = f.Stack[:len(f.Stack)-1]
	}
}

// stepBack reverts the last answered step, returning the page id to display.
// discarded is set when an empty sub-branch had to be dropped to get there.
func stepBack(f *domain.Flow) (target string, discarded *domain.Branch, err error) {
	top := f.Top()
	if top.CurrentIndex > 0 {
		removed, err := popStep(top)
		if err != nil {
			return "", nil, err
		}
		top.CurrentIndex--
		dropFinishedAfter(f, removed.Seq)
		return top.CurrentPageID(), nil, nil
	}

	if len(f.Stack) < 2 {
		return "", nil, &domain.InvariantViolation{Op: "previous", Reason: "already on the first page of the flow"}
	}

	dropped := *top
	f.Stack = f.Stack[:len(f.Stack)-1]
	parent := f.Top()
	removed, err := popStep(parent)
	if err != nil {
		return "", nil, err
	}
	dropFinishedAfter(f, removed.Seq)
	return parent.CurrentPageID(), &dropped, nil
}

// popStep removes the last completed step of b along with the pages it appended.
func popStep(b *domain.Branch) (domain.Step, error) {
	n := len(b.CompletedSteps)
	if n == 0 {
		return domain.Step{}, &domain.InvariantViolation{Op: "previous", Reason: "branch has no completed steps"}
	}
	removed := b.CompletedSteps[n-1]
	b.CompletedSteps = b.CompletedSteps[:n-1]

	if m := len(b.Appended); m > 0 {
		grown := b.Appended[m-1]
		b.Appended = b.Appended[:m-1]
		if grown > len(b.Pages) {
			return domain.Step{}, &domain.InvariantViolation{
				Op:     "previous",
				Reason: fmt.Sprintf("branch records %d appended pages but holds %d", grown, len(b.Pages)),
			}
		}
		b.Pages = b.Pages[:len(b.Pages)-grown]
	}
	return removed, nil
}

// dropFinishedAfter discards steps of popped sub-branches answered after seq.
// Going back past the page that spawned them makes them unreachable.
func dropFinishedAfter(f *domain.Flow, seq int) {
	kept := f.Finished[:0]
	for _, s := range f.Finished {
		if s.Seq < seq {
			kept = append(kept, s)
		}
	}
	f.Finished = kept
}

// collectSteps flattens popped and still stacked steps in submission order.
func collectSteps(f *domain.Flow) []domain.Step {
	steps := make([]domain.Step, 0, f.CompletedCount())
	steps = append(steps, f.Finished...)
	for _, b := range f.Stack {
		steps = append(steps, b.CompletedSteps...)
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Seq < steps[j].Seq
	})
	return steps
}

// normalizeInput checks that the answer matches the page type and replaces the
// submitted selection with the page's own copy, so traversal never trusts
// next_pages coming from the caller.
func normalizeInput(page *domain.Page, in domain.UserInput) (domain.UserInput, error) {
	violation := func(reason string) error {
		return &domain.InvariantViolation{Op: "submit", Reason: fmt.Sprintf("page %s: %s", page.ID, reason)}
	}

	switch page.Type {
	case domain.PageTypeSelection:
		if in.Selection == nil || in.Numbers != nil || in.Text != nil {
			return domain.UserInput{}, violation("SELECTION page expects a selection")
		}
		sel, ok := page.Selection(in.Selection.ID)
		if !ok {
			return domain.UserInput{}, violation("unknown selection " + in.Selection.ID)
		}
		return domain.UserInput{Selection: &sel}, nil

	case domain.PageTypeNumber:
		if in.Selection != nil || in.Text != nil {
			return domain.UserInput{}, violation("NUMBER page expects number values")
		}
		numbers := make(map[string]domain.NumberValue, len(in.Numbers))
		for id, v := range in.Numbers {
			field, ok := page.NumberInput(id)
			if !ok {
				return domain.UserInput{}, violation("unknown number input " + id)
			}
			numbers[id] = domain.NumberValue{Title: field.Title, Value: v.Value}
		}
		return domain.UserInput{Numbers: numbers}, nil

	case domain.PageTypeText:
		if in.Text == nil || in.Selection != nil || in.Numbers != nil {
			return domain.UserInput{}, violation("TEXT page expects a text value")
		}
		text := *in.Text
		return domain.UserInput{Text: &text}, nil
	}

	return domain.UserInput{}, violation("unknown page type " + string(page.Type))
}
