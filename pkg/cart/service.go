package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// ErrItemNotFound is returned when a cart item id is unknown.
var ErrItemNotFound = errors.New("cart item not found")

// ErrEmptyCart is returned when checking out a cart without items.
var ErrEmptyCart = errors.New("cart is empty")

// Locker serializes work on a key. session.Manager implements it, adding the
// distributed lock when one is configured.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// processLock serializes every cart change in the process.
type processLock struct {
	mu sync.Mutex
}

func (l *processLock) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// Service manages carts and checkout.
type Service struct {
	carts      ports.CartStore
	quotations ports.QuotationStore
	locks      Locker
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocker replaces the in-process lock guarding cart changes.
func WithLocker(locks Locker) Option {
	return func(s *Service) {
		if locks != nil {
			s.locks = locks
		}
	}
}

// NewService creates a cart service. quotations may be nil if checkout is not used.
func NewService(carts ports.CartStore, quotations ports.QuotationStore, opts ...Option) *Service {
	s := &Service{
		carts:      carts,
		quotations: quotations,
		locks:      &processLock{},
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cart, or an empty one if nothing was added yet.
func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	c, err := s.carts.LoadCart(ctx, cartID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.NewCart(cartID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", cartID, err)
	}
	return c, nil
}

// Items returns the configured products of the cart.
func (s *Service) Items(ctx context.Context, cartID string) ([]domain.ConfiguredProduct, error) {
	c, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

// Add appends a configured product to the cart.
func (s *Service) Add(ctx context.Context, cartID string, item domain.ConfiguredProduct) (*domain.Cart, error) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return s.update(ctx, cartID, func(c *domain.Cart) error {
		c.Items = append(c.Items, item)
		return nil
	})
}

// SetQuantity changes the quantity of one item. Quantities below 1 are rejected.
func (s *Service) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &domain.ValidationError{
			PageID: itemID,
			Fields: map[string]string{"quantity": "Quantity must be at least 1"},
		}
	}
	return s.update(ctx, cartID, func(c *domain.Cart) error {
		i := c.Item(itemID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

// Remove deletes one item from the cart.
func (s *Service) Remove(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	return s.update(ctx, cartID, func(c *domain.Cart) error {
		i := c.Item(itemID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.withCart(ctx, cartID, func(ctx context.Context) error {
		return s.carts.DeleteCart(ctx, cartID)
	})
}

func (s *Service) withCart(ctx context.Context, cartID string, fn func(context.Context) error) error {
	return s.locks.WithLock(ctx, "cart:"+cartID, fn)
}

// update runs load, fn and save as one step under the cart lock.
func (s *Service) update(ctx context.Context, cartID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	var c *domain.Cart
	err := s.withCart(ctx, cartID, func(ctx context.Context) error {
		var err error
		if c, err = s.Get(ctx, cartID); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		if err := s.carts.SaveCart(ctx, c); err != nil {
			return fmt.Errorf("failed to save cart %s: %w", cartID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateCustomer checks the fields required to raise a quotation.
func ValidateCustomer(c domain.Customer) error {
	fields := make(map[string]string)
	required := map[string]string{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"phone":      c.Phone,
	}
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[k] = "This field is required"
		}
	}
	if _, ok := fields["email"]; !ok {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			fields["email"] = "Please enter a valid email"
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{PageID: "customer", Fields: fields}
	}
	return nil
}

// Checkout creates the customer and a quotation holding one item per configured
// product, then clears the cart. Items added while the checkout runs wait for it.
func (s *Service) Checkout(ctx context.Context, cartID string, customer domain.Customer) (*domain.Quotation, error) {
	if s.quotations == nil {
		return nil, errors.New("checkout requires a quotation store")
	}
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}

	var quotationID string
	err := s.withCart(ctx, cartID, func(ctx context.Context) error {
		c, err := s.Get(ctx, cartID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}

		created, err := s.quotations.CreateCustomer(ctx, customer)
		if err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		q, err := s.quotations.CreateQuotation(ctx, created.ID)
		if err != nil {
			return fmt.Errorf("failed to create quotation: %w", err)
		}
		for _, item := range TransformToQuotationItems(q.ID, c.Items) {
			if _, err := s.quotations.CreateQuotationItem(ctx, item); err != nil {
				return fmt.Errorf("failed to save quotation item for %s: %w", item.Product, err)
			}
		}

		if err := s.carts.DeleteCart(ctx, cartID); err != nil {
			s.logger.WarnContext(ctx, "failed to clear cart after checkout", "cart_id", cartID, "err", err)
		}
		s.logger.InfoContext(ctx, "quotation created", "quotation_id", q.ID, "cart_id", cartID, "items", len(c.Items))
		quotationID = q.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.quotations.GetQuotation(ctx, quotationID)
}

// Quotations returns stored quotations matching the search query.
func (s *Service) Quotations(ctx context.Context, query string) ([]domain.Quotation, error) {
	if s.quotations == nil {
		return nil, errors.New("quotation store not configured")
	}
	all, err := s.quotations.ListQuotations(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, q := range all {
		if MatchQuery(q, query) {
			out = append(out, q)
		}
	}
	return out, nil
}

// SetPrice records the quoted price of one quotation item.
func (s *Service) SetPrice(ctx context.Context, itemID string, price float64) error {
	if s.quotations == nil {
		return errors.New("quotation store not configured")
	}
	if price < 0 {
		return &domain.ValidationError{PageID: itemID, Fields: map[string]string{"price": "Price cannot be negative"}}
	}
	return s.quotations.UpdateItemPrice(ctx, itemID, price)
}

// Quotation returns one stored quotation.
func (s *Service) Quotation(ctx context.Context, id string) (*domain.Quotation, error) {
	if s.quotations == nil {
		return nil, errors.New("quotation store not configured")
	}
	return s.quotations.GetQuotation(ctx, id)
}
