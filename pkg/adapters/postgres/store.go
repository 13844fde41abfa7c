// Package postgres persists customers, quotations and quotation items in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/reliant/configurator/pkg/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements ports.QuotationStore.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err == nil && logger != nil {
		logger.Info("migrations applied", "version", version)
	}
	return nil
}

// New creates a store over an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.ID = uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, phone, postcode)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Postcode)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}

func (s *Store) CreateQuotation(ctx context.Context, customerID string) (*domain.Quotation, error) {
	id := uuid.NewString()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quotations (id, customer_id, pincode, created_at)
		SELECT $1, c.id, c.postcode, $3 FROM customers c WHERE c.id = $2
	`, id, customerID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("unknown customer %s", customerID)
	}
	return s.GetQuotation(ctx, id)
}

func (s *Store) CreateQuotationItem(ctx context.Context, item domain.QuotationItem) (*domain.QuotationItem, error) {
	item.ID = uuid.NewString()
	if item.ProductDetails == nil {
		item.ProductDetails = map[string]any{}
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quotation_items (id, quotation_id, product, product_details, quantity, price)
		SELECT $1, q.id, $3, $4, $5, $6 FROM quotations q WHERE q.id = $2
	`, item.ID, item.Quotation, item.Product, item.ProductDetails, item.Quantity, item.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to create quotation item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuotationNotFound, item.Quotation)
	}
	return &item, nil
}

const quotationColumns = `
	q.id, q.pincode, q.created_at,
	c.id, c.first_name, c.last_name, c.email, c.phone, c.postcode`

func scanQuotation(row pgx.Row) (domain.Quotation, error) {
	var q domain.Quotation
	err := row.Scan(&q.ID, &q.Pincode, &q.Created,
		&q.Customer.ID, &q.Customer.FirstName, &q.Customer.LastName,
		&q.Customer.Email, &q.Customer.Phone, &q.Customer.Postcode)
	q.Items = []domain.QuotationItem{}
	return q, err
}

func (s *Store) GetQuotation(ctx context.Context, id string) (*domain.Quotation, error) {
	q, err := scanQuotation(s.pool.QueryRow(ctx, `
		SELECT `+quotationColumns+`
		FROM quotations q JOIN customers c ON c.id = q.customer_id
		WHERE q.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQuotationNotFound, id)
		}
		return nil, fmt.Errorf("failed to load quotation %s: %w", id, err)
	}

	items, err := s.items(ctx, `WHERE quotation_id = $1`, id)
	if err != nil {
		return nil, err
	}
	if list, ok := items[id]; ok {
		q.Items = list
	}
	return &q, nil
}

// ListQuotations returns quotations newest first.
func (s *Store) ListQuotations(ctx context.Context) ([]domain.Quotation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+quotationColumns+`
		FROM quotations q JOIN customers c ON c.id = q.customer_id
		ORDER BY q.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer rows.Close()

	out := []domain.Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.items(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		if list, ok := items[out[i].ID]; ok {
			out[i].Items = list
		}
	}
	return out, nil
}

func (s *Store) UpdateItemPrice(ctx context.Context, itemID string, price float64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quotation_items SET price = $2 WHERE id = $1`, itemID, price)
	if err != nil {
		return fmt.Errorf("failed to update price of %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", domain.ErrQuotationNotFound, itemID)
	}
	return nil
}

// items loads quotation items grouped by quotation id, in insertion order.
func (s *Store) items(ctx context.Context, where string, args ...any) (map[string][]domain.QuotationItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quotation_id, product, product_details, quantity, price
		FROM quotation_items `+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotation items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]domain.QuotationItem)
	for rows.Next() {
		var it domain.QuotationItem
		if err := rows.Scan(&it.ID, &it.Quotation, &it.Product, &it.ProductDetails, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan quotation item: %w", err)
		}
		grouped[it.Quotation] = append(grouped[it.Quotation], it)
	}
	return grouped, rows.Err()
}
