package runtime

import "github.com/reliant/configurator/pkg/domain"

// CanGoBack reports whether Previous has a page to return to.
func CanGoBack(f *domain.Flow) bool {
	if f == nil || !f.Active() {
		return false
	}
	return f.Top().CurrentIndex > 0 || len(f.Stack) > 1
}

// Progress returns the 1-based number of the step being displayed.
// The total is unknown up front since branch length depends on the answers.
func Progress(f *domain.Flow) int {
	if f == nil {
		return 0
	}
	return f.CompletedCount() + 1
}

// Steps returns every step recorded so far in submission order.
func Steps(f *domain.Flow) []domain.Step {
	if f == nil {
		return nil
	}
	if f.Result != nil {
		return append([]domain.Step(nil), f.Result.UserSelections...)
	}
	return collectSteps(f)
}
