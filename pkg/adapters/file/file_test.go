package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reliant/configurator/pkg/adapters/file"
	"github.com/reliant/configurator/pkg/domain"
	contract "github.com/reliant/configurator/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	catalog, err := file.Load(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	ctx := context.Background()

	products, err := catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "frame", products[0].Page)

	size, err := catalog.GetPage(ctx, "size")
	require.NoError(t, err)
	assert.Equal(t, domain.PageTypeNumber, size.Type)
	require.Len(t, size.NumberInputs, 2)
	assert.Equal(t, 2400.0, size.NumberInputs[0].Maximum)
	assert.True(t, size.NumberInputs[1].Unbounded())

	frame, err := catalog.GetPage(ctx, "frame")
	require.NoError(t, err)
	assert.Equal(t, []string{"finish"}, frame.Selections[0].NextPages)

	var pages []domain.Page
	for _, id := range []string{"frame", "finish", "size", "door-style"} {
		p, err := catalog.GetPage(ctx, id)
		require.NoError(t, err)
		pages = append(pages, *p)
	}
	contract.PageStoreContractTest(t, catalog, pages)
}

func TestParse_Errors(t *testing.T) {
	_, err := file.Parse([]byte("pages:\n  - id: a\n    type: SLIDER\n"))
	assert.ErrorContains(t, err, "unknown type")

	_, err = file.Parse([]byte("pages:\n  - id: a\n    type: TEXT\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = file.Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestStore_Contract(t *testing.T) {
	contract.FlowStoreContractTest(t, file.NewStore(t.TempDir()))
}

func TestStore_CartContract(t *testing.T) {
	contract.CartStoreContractTest(t, file.NewStore(t.TempDir()))
}

func TestStore_ListIgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Save(ctx, "s1", &domain.Flow{SessionID: "s1"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions", "tmp-s2-123.json"), []byte("{"), 0o644))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	assert.Error(t, store.Save(ctx, "", &domain.Flow{}))
}
