package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/adapters/postgres"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup connects to the database named by CONFIGURATOR_TEST_POSTGRES_DSN and
// resets the schema. Tests are skipped when the variable is unset.
func setup(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("CONFIGURATOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CONFIGURATOR_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, logging.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE quotation_items, quotations, customers`)
	require.NoError(t, err)
	return postgres.New(pool)
}

func TestStore_QuotationLifecycle(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	customer, err := store.CreateCustomer(ctx, domain.Customer{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "0123", Postcode: "N1 9GU",
	})
	require.NoError(t, err)
	require.NotEmpty(t, customer.ID)

	q, err := store.CreateQuotation(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "N1 9GU", q.Pincode)
	assert.Equal(t, "Ada", q.Customer.FirstName)
	assert.Empty(t, q.Items)

	item, err := store.CreateQuotationItem(ctx, domain.QuotationItem{
		Quotation:      q.ID,
		Product:        "casement",
		ProductDetails: map[string]any{"frame": "oak", "width": 1200.0},
		Quantity:       2,
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateItemPrice(ctx, item.ID, 410.25))

	got, err := store.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 410.25, got.Items[0].Price)
	assert.Equal(t, "oak", got.Items[0].ProductDetails["frame"])
	assert.Equal(t, 1200.0, got.Items[0].ProductDetails["width"])

	list, err := store.ListQuotations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)
}

func TestStore_NotFound(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	_, err := store.GetQuotation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQuotationNotFound)

	_, err = store.CreateQuotationItem(ctx, domain.QuotationItem{Quotation: "missing", Product: "p", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrQuotationNotFound)

	assert.ErrorIs(t, store.UpdateItemPrice(ctx, "missing", 1), domain.ErrQuotationNotFound)

	_, err = store.CreateQuotation(ctx, "nobody")
	assert.Error(t, err)
}
