package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/reliant/configurator/internal/config"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
products:
  - id: casement-window
    name: Casement Window
    page: frame
  - id: front-door
    name: Front Door
    page: door-style
pages:
  - id: frame
    type: SELECTION
    title: Frame material
    next_pages: [size]
    selections:
      - id: oak
        title: Oak
      - id: upvc
        title: uPVC
  - id: size
    type: NUMBER
    title: Opening size
    next_pages: []
    number_inputs:
      - id: width
        title: Width (mm)
        required: true
        minimum: 300
        maximum: 2400
  - id: door-style
    type: SELECTION
    title: Door style
    next_pages: []
    selections:
      - id: solid
        title: Solid
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	var cfg config.Config
	cfg.Catalog.Source = config.SourceFile
	cfg.Catalog.Path = path
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	return cfg
}

func TestBuild_FileCatalogWithMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Sessions.Dir = filepath.Join(t.TempDir(), "sessions")

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Metrics)
	assert.Nil(t, app.Predictor())

	ctx := context.Background()
	view, err := app.Start(ctx, "cart-1", "front-door")
	require.NoError(t, err)
	view, err = app.Submit(ctx, view.SessionID, form.Answer{SelectionID: "solid"})
	require.NoError(t, err)
	require.NotNil(t, view.Result)

	items, err := app.Cart().Items(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	count, err := testutil.GatherAndCount(app.Metrics.Registry(), "configurator_flows_completed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.FileExists(t, filepath.Join(cfg.Sessions.Dir, "carts", "cart-1.json"))
}

func TestBuild_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Catalog.Source = "ftp"
	_, err = Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown catalog source")
}

func TestOpenCatalog_PocketBase(t *testing.T) {
	var cfg config.Config
	cfg.Catalog.Source = config.SourcePocketBase
	cfg.PocketBase.URL = "http://127.0.0.1:1"
	catalog, client, err := OpenCatalog(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, catalog)
	assert.NotNil(t, client)
}

func TestRunSession_Text(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	var out bytes.Buffer
	input := strings.Join([]string{"9", "1", "upvc", "900"}, "\n") + "\n"
	product, err := RunSession(context.Background(), app, RunOptions{
		CartID: "cart-9",
		In:     strings.NewReader(input),
		Out:    &out,
	})
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "casement-window", product.Product.ID)
	assert.Contains(t, out.String(), "! Unknown product \"9\"")
	assert.Contains(t, out.String(), ">>> Added Casement Window to the cart.")

	items, err := app.Cart().Items(context.Background(), "cart-9")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRunSession_EndOfInputIsNotAnError(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	product, err := RunSession(context.Background(), app, RunOptions{
		ProductID: "casement-window",
		In:        strings.NewReader(""),
		Out:       &bytes.Buffer{},
	})
	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestRunSession_JSONNeedsProduct(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	_, err = RunSession(context.Background(), app, RunOptions{JSON: true, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestWatchCatalog_UnsupportedSource(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()
	assert.False(t, WatchCatalog(context.Background(), app.Catalog, app.Logger))
}
