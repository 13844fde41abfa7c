package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPageEnter    EventType = "page_enter"
	EventPageLeave    EventType = "page_leave"
	EventBranchPush   EventType = "branch_push"
	EventBranchPop    EventType = "branch_pop"
	EventFlowComplete EventType = "flow_complete"
	EventFlowCancel   EventType = "flow_cancel"
	EventPageError    EventType = "page_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id,omitempty"`
}

// PageEvent represents entry to, exit from, or failed load of a page.
type PageEvent struct {
	EventBase
	PageID   string   `json:"page_id"`
	PageType PageType `json:"page_type,omitempty"`
	Depth    int      `json:"depth"`
	Err      error    `json:"-"`
}

// BranchEvent represents a branch pushed onto or popped off the flow stack.
type BranchEvent struct {
	EventBase
	Pages []string `json:"pages"`
	Depth int      `json:"depth"`
}

// FlowEvent represents the end of a flow.
type FlowEvent struct {
	EventBase
	Steps int `json:"steps"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnPageEnter    func(context.Context, *PageEvent)
	OnPageLeave    func(context.Context, *PageEvent)
	OnPageError    func(context.Context, *PageEvent)
	OnBranchPush   func(context.Context, *BranchEvent)
	OnBranchPop    func(context.Context, *BranchEvent)
	OnFlowComplete func(context.Context, *FlowEvent)
	OnFlowCancel   func(context.Context, *FlowEvent)
}

// Merge returns hooks that call h first, then other, for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPageEnter:    chain(h.OnPageEnter, other.OnPageEnter),
		OnPageLeave:    chain(h.OnPageLeave, other.OnPageLeave),
		OnPageError:    chain(h.OnPageError, other.OnPageError),
		OnBranchPush:   chain(h.OnBranchPush, other.OnBranchPush),
		OnBranchPop:    chain(h.OnBranchPop, other.OnBranchPop),
		OnFlowComplete: chain(h.OnFlowComplete, other.OnFlowComplete),
		OnFlowCancel:   chain(h.OnFlowCancel, other.OnFlowCancel),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
