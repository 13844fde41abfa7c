package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_CloneIsDeep(t *testing.T) {
	f := &domain.Flow{
		SessionID: "s1",
		Status:    domain.StatusAwaiting,
		Stack:     []domain.Branch{domain.NewBranch([]string{"a", "b"})},
		Finished:  []domain.Step{{PageID: "x"}},
	}
	f.Stack[0].CompletedSteps = append(f.Stack[0].CompletedSteps, domain.Step{PageID: "a"})

	c := f.Clone()
	require.Equal(t, f, c)

	c.Stack[0].Pages[0] = "z"
	c.Stack[0].CompletedSteps[0].PageID = "z"
	c.Finished[0].PageID = "z"
	c.Stack = append(c.Stack, domain.NewBranch([]string{"c"}))

	assert.Equal(t, "a", f.Stack[0].Pages[0])
	assert.Equal(t, "a", f.Stack[0].CompletedSteps[0].PageID)
	assert.Equal(t, "x", f.Finished[0].PageID)
	assert.Len(t, f.Stack, 1)
	assert.Equal(t, 2, f.CompletedCount())
}

func TestFlow_TopAndActive(t *testing.T) {
	var f domain.Flow
	assert.Nil(t, f.Top())
	assert.False(t, f.Active())
	assert.Nil(t, (*domain.Flow)(nil).Clone())

	f.Status = domain.StatusAwaiting
	f.Stack = []domain.Branch{domain.NewBranch([]string{"a"}), domain.NewBranch([]string{"b"})}
	assert.True(t, f.Active())
	assert.Equal(t, "b", f.Top().CurrentPageID())
	assert.True(t, f.Top().Exhausted())
}

func TestErrors(t *testing.T) {
	ple := &domain.PageLoadError{PageID: "frame", Err: domain.ErrPageNotFound}
	wrapped := fmt.Errorf("submit: %w", ple)
	assert.True(t, domain.IsRetryable(wrapped))
	assert.True(t, errors.Is(wrapped, domain.ErrPageNotFound))
	assert.False(t, domain.IsRetryable(&domain.InvariantViolation{Op: "previous"}))

	ve := &domain.ValidationError{PageID: "size", Fields: map[string]string{"width": "required", "height": "too large"}}
	assert.Equal(t, "invalid answer for page size (height: too large; width: required)", ve.Error())
}
