package configurator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/internal/runtime"
	"github.com/reliant/configurator/pkg/adapters/memory"
	"github.com/reliant/configurator/pkg/cart"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
	"github.com/reliant/configurator/pkg/ports"
	"github.com/reliant/configurator/pkg/session"
)

// Configurator is the high-level entry point of the library.
// It ties the flow engine to session persistence and the cart, one flow per session.
type Configurator struct {
	engine    *runtime.Engine
	pages     ports.PageStore
	catalog   ports.ProductCatalog
	sessions  *session.Manager
	cart      *cart.Service
	predictor ports.Predictor

	flows      ports.FlowStore
	carts      ports.CartStore
	quotations ports.QuotationStore
	locker     ports.DistributedLocker
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	newID      func() string
}

// Option defines a functional option for configuring the Configurator.
type Option func(*Configurator)

// WithPageStore sets where pages are fetched from.
func WithPageStore(pages ports.PageStore) Option {
	return func(c *Configurator) {
		c.pages = pages
	}
}

// WithCatalog sets the product catalog. If it also implements ports.PageStore and
// no page store was given, it serves pages too.
func WithCatalog(catalog ports.ProductCatalog) Option {
	return func(c *Configurator) {
		c.catalog = catalog
	}
}

// WithFlowStore sets where flow snapshots live between calls (default: memory).
func WithFlowStore(store ports.FlowStore) Option {
	return func(c *Configurator) {
		c.flows = store
	}
}

// WithCartStore sets the cart persistence (default: the flow store if it can hold
// carts, otherwise memory).
func WithCartStore(store ports.CartStore) Option {
	return func(c *Configurator) {
		c.carts = store
	}
}

// WithQuotationStore sets where checkouts are recorded (default: memory).
func WithQuotationStore(store ports.QuotationStore) Option {
	return func(c *Configurator) {
		c.quotations = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Configurator) {
		c.locker = locker
	}
}

// WithPredictor wires the AI model service.
func WithPredictor(p ports.Predictor) Option {
	return func(c *Configurator) {
		c.predictor = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Configurator) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Configurator) {
		c.logger = logger
	}
}

// New initializes a Configurator. A page store (or a catalog that is one) is required.
func New(opts ...Option) (*Configurator, error) {
	c := &Configurator{newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}

	if c.pages == nil {
		ps, ok := c.catalog.(ports.PageStore)
		if !ok {
			return nil, errors.New("a page store is required")
		}
		c.pages = ps
	}
	if c.catalog == nil {
		if pc, ok := c.pages.(ports.ProductCatalog); ok {
			c.catalog = pc
		}
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.flows == nil {
		c.flows = memory.NewStore()
	}
	if c.carts == nil {
		if cs, ok := c.flows.(ports.CartStore); ok {
			c.carts = cs
		} else {
			c.carts = memory.NewStore()
		}
	}
	if c.quotations == nil {
		c.quotations = memory.NewQuotationStore()
	}

	c.engine = runtime.NewEngine(c.pages,
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
	)

	sessionOpts := []session.Option{session.WithLogger(c.logger)}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	c.sessions = session.NewManager(c.flows, sessionOpts...)
	c.cart = cart.NewService(c.carts, c.quotations,
		cart.WithLogger(c.logger),
		cart.WithLocker(c.sessions),
	)

	return c, nil
}

// Products lists the configurable products.
func (c *Configurator) Products(ctx context.Context) ([]domain.Product, error) {
	if c.catalog == nil {
		return nil, errors.New("no product catalog configured")
	}
	return c.catalog.ListProducts(ctx)
}

// Start begins configuring a product. An empty cartID starts a new cart.
func (c *Configurator) Start(ctx context.Context, cartID, productID string) (form.View, error) {
	if c.catalog == nil {
		return form.View{}, errors.New("no product catalog configured")
	}
	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return form.View{}, err
	}
	if cartID == "" {
		cartID = c.newID()
	}

	sessionID := c.newID()
	flow, err := c.engine.Start(ctx, sessionID, cartID, *product)
	if err != nil {
		return form.View{}, err
	}
	if err := c.sessions.Save(ctx, sessionID, flow); err != nil {
		return form.View{}, fmt.Errorf("failed to save session: %w", err)
	}

	c.logger.InfoContext(ctx, "configuration started", "session_id", sessionID, "product_id", product.ID, "cart_id", cartID)
	return form.Render(flow, false), nil
}

// Flow returns the stored flow of a session.
func (c *Configurator) Flow(ctx context.Context, sessionID string) (*domain.Flow, error) {
	return c.sessions.Load(ctx, sessionID)
}

// View renders the current page of a session.
func (c *Configurator) View(ctx context.Context, sessionID string) (form.View, error) {
	flow, err := c.sessions.Store().Load(ctx, sessionID)
	if err != nil {
		return form.View{}, err
	}
	return form.Render(flow, c.sessions.Busy(sessionID)), nil
}

// Submit validates the answer for the current page and moves the flow forward.
// On completion the configured product is added to the session's cart and the
// session is closed. If the completed flow cannot be stored the product is taken
// out of the cart again, so a retried submit does not add it twice.
func (c *Configurator) Submit(ctx context.Context, sessionID string, answer form.Answer) (form.View, error) {
	var added *domain.Flow
	next, err := c.sessions.Transition(ctx, sessionID, func(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
		if !flow.Active() || flow.CurrentPage == nil {
			return nil, &domain.InvariantViolation{Op: "submit", Reason: "no page is awaiting an answer"}
		}
		input, err := form.Resolve(flow.CurrentPage, answer)
		if err != nil {
			return nil, err
		}
		next, err := c.engine.Submit(ctx, flow, input)
		if err != nil {
			return nil, err
		}
		if next.Status == domain.StatusCompleted {
			if _, err := c.cart.Add(ctx, next.CartID, *next.Result); err != nil {
				return nil, err
			}
			added = next
		}
		return next, nil
	})
	if err != nil {
		if added != nil {
			c.undoAdd(ctx, sessionID, added)
		}
		return form.View{}, err
	}

	if next.Status == domain.StatusCompleted {
		c.logger.InfoContext(ctx, "configuration completed",
			"session_id", sessionID,
			"product_id", next.Product.ID,
			"cart_id", next.CartID,
			"steps", len(next.Result.UserSelections),
		)
		c.close(ctx, sessionID)
	}
	return form.Render(next, false), nil
}

// Previous returns to the previously answered page.
func (c *Configurator) Previous(ctx context.Context, sessionID string) (form.View, error) {
	next, err := c.sessions.Transition(ctx, sessionID, func(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
		return c.engine.Previous(ctx, flow)
	})
	if err != nil {
		return form.View{}, err
	}
	return form.Render(next, false), nil
}

// Reload retries loading the current page after a page load failure.
func (c *Configurator) Reload(ctx context.Context, sessionID string) (form.View, error) {
	next, err := c.sessions.Transition(ctx, sessionID, func(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
		return c.engine.Reload(ctx, flow)
	})
	if err != nil {
		return form.View{}, err
	}
	return form.Render(next, false), nil
}

// Cancel abandons the session without adding anything to the cart.
func (c *Configurator) Cancel(ctx context.Context, sessionID string) (form.View, error) {
	next, err := c.sessions.Transition(ctx, sessionID, func(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
		return c.engine.Cancel(ctx, flow), nil
	})
	if err != nil {
		return form.View{}, err
	}
	c.close(ctx, sessionID)
	return form.Render(next, false), nil
}

func (c *Configurator) undoAdd(ctx context.Context, sessionID string, flow *domain.Flow) {
	if _, err := c.cart.Remove(ctx, flow.CartID, flow.Result.ID); err != nil {
		c.logger.WarnContext(ctx, "failed to undo cart add",
			"session_id", sessionID,
			"cart_id", flow.CartID,
			"item_id", flow.Result.ID,
			"err", err,
		)
	}
}

func (c *Configurator) close(ctx context.Context, sessionID string) {
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		c.logger.WarnContext(ctx, "failed to delete finished session", "session_id", sessionID, "err", err)
	}
}

// Sessions returns the ids of sessions still in progress.
func (c *Configurator) Sessions(ctx context.Context) ([]string, error) {
	return c.sessions.List(ctx)
}

// Cart returns the cart service.
func (c *Configurator) Cart() *cart.Service {
	return c.cart
}

// Predictor returns the AI model client, or nil if none was configured.
func (c *Configurator) Predictor() ports.Predictor {
	return c.predictor
}

// Pages returns the page store.
func (c *Configurator) Pages() ports.PageStore {
	return c.pages
}
