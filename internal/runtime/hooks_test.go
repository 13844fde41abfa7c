package runtime_test

import (
	"context"
	"testing"

	"github.com/reliant/configurator/internal/runtime"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []string
	record := func(name string) func(context.Context, *domain.PageEvent) {
		return func(ctx context.Context, ev *domain.PageEvent) {
			events = append(events, name+":"+ev.PageID)
		}
	}

	hooks := domain.LifecycleHooks{
		OnPageEnter: record("enter"),
		OnPageLeave: record("leave"),
		OnBranchPush: func(ctx context.Context, ev *domain.BranchEvent) {
			events = append(events, "push")
			assert.Equal(t, 2, ev.Depth)
		},
		OnBranchPop: func(ctx context.Context, ev *domain.BranchEvent) {
			events = append(events, "pop")
			assert.Equal(t, []string{"B", "C"}, ev.Pages)
		},
		OnFlowComplete: func(ctx context.Context, ev *domain.FlowEvent) {
			events = append(events, "complete")
			assert.Equal(t, 4, ev.Steps)
			assert.Equal(t, "window", ev.ProductID)
		},
	}

	catalog, err := rejoinCatalog().Build()
	require.NoError(t, err)
	e := runtime.NewEngine(catalog, runtime.WithLifecycleHooks(hooks))

	flow := start(t, e, "A")
	flow = submit(t, e, flow, pick("S"))
	flow = submit(t, e, flow, text("b"))
	flow = submit(t, e, flow, text("c"))
	_ = submit(t, e, flow, text("d"))

	assert.Equal(t, []string{
		"enter:A",
		"leave:A", "push", "enter:B",
		"leave:B", "enter:C",
		"leave:C", "pop", "enter:D",
		"leave:D", "complete",
	}, events)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnPageEnter: func(context.Context, *domain.PageEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnPageEnter: func(context.Context, *domain.PageEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnPageEnter(context.Background(), &domain.PageEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, a.Merge(domain.LifecycleHooks{}).OnFlowCancel)
}
