package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// Engine is the product configuration flow engine.
//
// It is stateless: every operation takes a flow snapshot and returns a new one.
// The input snapshot is never mutated, and a new snapshot is only returned once the
// page it points at has been fetched, so a failed fetch leaves the caller's flow intact.
type Engine struct {
	pages  ports.PageStore
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
	newID  func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for step and completion timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how configured product ids are generated.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		e.newID = gen
	}
}

// NewEngine creates a new engine reading pages from the given store.
func NewEngine(pages ports.PageStore, opts ...EngineOption) *Engine {
	e := &Engine{
		pages:  pages,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start creates the flow for a product, positioned on its first page.
func (e *Engine) Start(ctx context.Context, sessionID, cartID string, product domain.Product) (*domain.Flow, error) {
	if product.Page == "" {
		return nil, &domain.InvariantViolation{Op: "start", Reason: "product " + product.ID + " has no first page"}
	}

	flow := &domain.Flow{
		SessionID: sessionID,
		CartID:    cartID,
		Product:   product,
		Status:    domain.StatusIdle,
	}

	page, err := e.loadPage(ctx, flow, product.Page)
	if err != nil {
		return nil, err
	}

	flow.Status = domain.StatusAwaiting
	flow.Stack = []domain.Branch{domain.NewBranch([]string{page.ID})}
	flow.Finished = []domain.Step{}
	flow.CurrentPage = page

	e.logger.DebugContext(ctx, "flow started", "session_id", sessionID, "product_id", product.ID, "page_id", page.ID)
	e.emitPageEnter(ctx, flow)
	return flow, nil
}

// Submit records the answer to the current page and moves the flow forward.
//
// A selection carrying next_pages opens a nested branch; the page's own next_pages are
// queued on the branch being left so they are visited once the nested branch is done.
// Otherwise the page's next_pages grow the current branch in place, and the engine
// advances, popping exhausted branches until a page to display is found or the
// whole flow is complete.
func (e *Engine) Submit(ctx context.Context, flow *domain.Flow, input domain.UserInput) (*domain.Flow, error) {
	if flow == nil || !flow.Active() || flow.CurrentPage == nil {
		return nil, &domain.InvariantViolation{Op: "submit", Reason: "no page is awaiting an answer"}
	}
	input, err := normalizeInput(flow.CurrentPage, input)
	if err != nil {
		return nil, err
	}

	next := flow.Clone()
	page := next.CurrentPage
	step := e.recordStep(next, page, input)

	var (
		target string
		done   bool
		pushed *domain.Branch
		popped []domain.Branch
	)

	if sel := input.Selection; page.Type == domain.PageTypeSelection && len(sel.NextPages) > 0 {
		growBranch(next.Top(), page.NextPages)
		next.Stack = append(next.Stack, domain.NewBranch(sel.NextPages))
		pushed = next.Top()
		target = pushed.CurrentPageID()
	} else {
		growBranch(next.Top(), page.NextPages)
		target, done, popped = settle(next)
	}

	if done {
		e.complete(next)
		e.logger.DebugContext(ctx, "page answered", "session_id", next.SessionID, "page_id", step.PageID, "seq", step.Seq)
		e.emitPageLeave(ctx, flow)
		e.emitBranchPops(ctx, flow, popped)
		e.emitFlowComplete(ctx, next)
		return next, nil
	}

	loaded, err := e.loadPage(ctx, flow, target)
	if err != nil {
		return nil, err
	}
	next.CurrentPage = loaded

	e.logger.DebugContext(ctx, "page answered",
		"session_id", next.SessionID,
		"page_id", step.PageID,
		"seq", step.Seq,
		"next_page_id", loaded.ID,
		"depth", len(next.Stack),
	)
	e.emitPageLeave(ctx, flow)
	e.emitBranchPops(ctx, flow, popped)
	if pushed != nil {
		e.emitBranchPush(ctx, next, pushed.Pages)
	}
	e.emitPageEnter(ctx, next)
	return next, nil
}

// Previous moves back to the previously answered page, discarding its answer.
// It returns an InvariantViolation when CanGoBack is false.
func (e *Engine) Previous(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
	if flow == nil || !flow.Active() {
		return nil, &domain.InvariantViolation{Op: "previous", Reason: "flow is not active"}
	}
	if !CanGoBack(flow) {
		return nil, &domain.InvariantViolation{Op: "previous", Reason: "already on the first page of the flow"}
	}

	next := flow.Clone()
	target, discarded, err := stepBack(next)
	if err != nil {
		return nil, err
	}

	loaded, err := e.loadPage(ctx, flow, target)
	if err != nil {
		return nil, err
	}
	next.CurrentPage = loaded

	e.logger.DebugContext(ctx, "stepped back", "session_id", next.SessionID, "page_id", loaded.ID, "depth", len(next.Stack))
	if discarded != nil {
		e.emitBranchPops(ctx, flow, []domain.Branch{*discarded})
	}
	e.emitPageEnter(ctx, next)
	return next, nil
}

// Reload fetches the current page again, e.g. after a PageLoadError or when a
// snapshot was restored from a store.
func (e *Engine) Reload(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
	if flow == nil || !flow.Active() {
		return nil, &domain.InvariantViolation{Op: "reload", Reason: "flow is not active"}
	}
	next := flow.Clone()
	loaded, err := e.loadPage(ctx, flow, next.Top().CurrentPageID())
	if err != nil {
		return nil, err
	}
	next.CurrentPage = loaded
	return next, nil
}

// Cancel discards all branch and step state without producing a configured product.
func (e *Engine) Cancel(ctx context.Context, flow *domain.Flow) *domain.Flow {
	next := &domain.Flow{Status: domain.StatusIdle}
	if flow != nil {
		next.SessionID = flow.SessionID
		next.CartID = flow.CartID
		next.Product = flow.Product
		e.logger.DebugContext(ctx, "flow cancelled", "session_id", flow.SessionID, "steps", flow.CompletedCount())
		e.emitFlowCancel(ctx, flow)
	}
	return next
}

func (e *Engine) recordStep(flow *domain.Flow, page *domain.Page, input domain.UserInput) domain.Step {
	step := domain.Step{
		PageID:      page.ID,
		PageTitle:   page.Title,
		PageType:    page.Type,
		UserInput:   input,
		Seq:         flow.NextSeq,
		SubmittedAt: e.now(),
	}
	flow.NextSeq++
	top := flow.Top()
	top.CompletedSteps = append(top.CompletedSteps, step)
	return step
}

// complete flattens every recorded step into the configured product and resets the flow.
func (e *Engine) complete(flow *domain.Flow) {
	flow.Result = &domain.ConfiguredProduct{
		ID:             e.newID(),
		Product:        flow.Product,
		UserSelections: collectSteps(flow),
		Quantity:       1,
		CompletedAt:    e.now(),
	}
	flow.Status = domain.StatusCompleted
	flow.Stack = nil
	flow.Finished = nil
	flow.CurrentPage = nil
}

func (e *Engine) loadPage(ctx context.Context, flow *domain.Flow, id string) (*domain.Page, error) {
	page, err := e.pages.GetPage(ctx, id)
	if err != nil {
		e.logger.WarnContext(ctx, "page load failed", "session_id", flow.SessionID, "page_id", id, "err", err)
		e.emitPageError(ctx, flow, id, err)
		return nil, &domain.PageLoadError{PageID: id, Err: err}
	}
	return page, nil
}
