package runtime

import (
	"context"

	"github.com/reliant/configurator/pkg/domain"
)

func (e *Engine) base(flow *domain.Flow, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: flow.SessionID,
		ProductID: flow.Product.ID,
	}
}

func (e *Engine) emitPageEnter(ctx context.Context, flow *domain.Flow) {
	if e.hooks.OnPageEnter == nil || flow.CurrentPage == nil {
		return
	}
	e.hooks.OnPageEnter(ctx, &domain.PageEvent{
		EventBase: e.base(flow, domain.EventPageEnter),
		PageID:    flow.CurrentPage.ID,
		PageType:  flow.CurrentPage.Type,
		Depth:     len(flow.Stack),
	})
}

func (e *Engine) emitPageLeave(ctx context.Context, flow *domain.Flow) {
	if e.hooks.OnPageLeave == nil || flow.CurrentPage == nil {
		return
	}
	e.hooks.OnPageLeave(ctx, &domain.PageEvent{
		EventBase: e.base(flow, domain.EventPageLeave),
		PageID:    flow.CurrentPage.ID,
		PageType:  flow.CurrentPage.Type,
		Depth:     len(flow.Stack),
	})
}

func (e *Engine) emitPageError(ctx context.Context, flow *domain.Flow, pageID string, err error) {
	if e.hooks.OnPageError == nil {
		return
	}
	e.hooks.OnPageError(ctx, &domain.PageEvent{
		EventBase: e.base(flow, domain.EventPageError),
		PageID:    pageID,
		Depth:     len(flow.Stack),
		Err:       err,
	})
}

func (e *Engine) emitBranchPush(ctx context.Context, flow *domain.Flow, pages []string) {
	if e.hooks.OnBranchPush == nil {
		return
	}
	e.hooks.OnBranchPush(ctx, &domain.BranchEvent{
		EventBase: e.base(flow, domain.EventBranchPush),
		Pages:     append([]string(nil), pages...),
		Depth:     len(flow.Stack),
	})
}

// emitBranchPops reports popped branches innermost first. from is the flow
// before the transition and gives the depth each branch had.
func (e *Engine) emitBranchPops(ctx context.Context, from *domain.Flow, popped []domain.Branch) {
	if e.hooks.OnBranchPop == nil {
		return
	}
	depth := len(from.Stack)
	for _, b := range popped {
		e.hooks.OnBranchPop(ctx, &domain.BranchEvent{
			EventBase: e.base(from, domain.EventBranchPop),
			Pages:     append([]string(nil), b.Pages...),
			Depth:     depth,
		})
		depth--
	}
}

func (e *Engine) emitFlowComplete(ctx context.Context, flow *domain.Flow) {
	if e.hooks.OnFlowComplete == nil || flow.Result == nil {
		return
	}
	e.hooks.OnFlowComplete(ctx, &domain.FlowEvent{
		EventBase: e.base(flow, domain.EventFlowComplete),
		Steps:     len(flow.Result.UserSelections),
	})
}

func (e *Engine) emitFlowCancel(ctx context.Context, flow *domain.Flow) {
	if e.hooks.OnFlowCancel == nil {
		return
	}
	e.hooks.OnFlowCancel(ctx, &domain.FlowEvent{
		EventBase: e.base(flow, domain.EventFlowCancel),
		Steps:     flow.CompletedCount(),
	})
}
