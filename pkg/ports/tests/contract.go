package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PageStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.PageStore.
// The store must contain exactly the given pages.
func PageStoreContractTest(t *testing.T, store ports.PageStore, expected []domain.Page) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetPage_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := store.GetPage(ctx, want.ID)
			require.NoError(t, err, "page %s", want.ID)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Type, got.Type)
			assert.Equal(t, want.Title, got.Title)
			assert.Equal(t, len(want.NextPages), len(got.NextPages), "next_pages of %s", want.ID)
			assert.Equal(t, len(want.Selections), len(got.Selections), "selections of %s", want.ID)
			assert.Equal(t, len(want.NumberInputs), len(got.NumberInputs), "number inputs of %s", want.ID)
		}
	})

	t.Run("GetPage_NotFound", func(t *testing.T) {
		_, err := store.GetPage(ctx, "non-existent-page")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPageNotFound), "expected ErrPageNotFound, got %v", err)
	})

	t.Run("ListPages", func(t *testing.T) {
		ids, err := store.ListPages(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, len(expected))
		for _, p := range expected {
			assert.Contains(t, ids, p.ID)
		}
	})
}

// FlowStoreContractTest runs a suite of tests to verify that a FlowStore implementation
// adheres to the defined interface contract.
func FlowStoreContractTest(t *testing.T, store ports.FlowStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newFlow := func(id string) *domain.Flow {
		return &domain.Flow{
			SessionID: id,
			Product:   domain.Product{ID: "window", Name: "Window", Page: "frame"},
			Status:    domain.StatusAwaiting,
			Stack:     []domain.Branch{domain.NewBranch([]string{"frame"})},
			CurrentPage: &domain.Page{
				ID:   "frame",
				Type: domain.PageTypeText,
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		flow := newFlow(sessionID)
		flow.Stack[0].Pages = append(flow.Stack[0].Pages, "glass")
		flow.Stack[0].CompletedSteps = append(flow.Stack[0].CompletedSteps, domain.Step{
			PageID:    "frame",
			PageType:  domain.PageTypeText,
			UserInput: domain.UserInput{Text: &domain.TextValue{TextValue: "oak"}},
			Seq:       0,
		})
		flow.Stack[0].Appended = append(flow.Stack[0].Appended, 1)
		flow.Stack[0].CurrentIndex = 1

		require.NoError(t, store.Save(ctx, sessionID, flow), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StatusAwaiting, loaded.Status)
		require.Len(t, loaded.Stack, 1)
		assert.Equal(t, []string{"frame", "glass"}, loaded.Stack[0].Pages)
		assert.Equal(t, 1, loaded.Stack[0].CurrentIndex)
		require.Len(t, loaded.Stack[0].CompletedSteps, 1)
		require.NotNil(t, loaded.Stack[0].CompletedSteps[0].UserInput.Text)
		assert.Equal(t, "oak", loaded.Stack[0].CompletedSteps[0].UserInput.Text.TextValue)
	})

	t.Run("Load isolates stored copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Stack[0].Pages[0] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "frame", again.Stack[0].Pages[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newFlow(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newFlow(id1)))
		require.NoError(t, store.Save(ctx, id2, newFlow(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// CartStoreContractTest verifies a CartStore implementation.
func CartStoreContractTest(t *testing.T, store ports.CartStore) {
	t.Helper()
	ctx := context.Background()

	cart := domain.NewCart("contract-cart")
	cart.Items = append(cart.Items, domain.ConfiguredProduct{
		ID:       "cp-1",
		Product:  domain.Product{ID: "window"},
		Quantity: 2,
	})
	require.NoError(t, store.SaveCart(ctx, cart))

	loaded, err := store.LoadCart(ctx, "contract-cart")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)

	_, err = store.LoadCart(ctx, "missing-cart")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	require.NoError(t, store.DeleteCart(ctx, "contract-cart"))
	_, err = store.LoadCart(ctx, "contract-cart")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}
