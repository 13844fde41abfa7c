package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/reliant/configurator"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/dsl"
	"github.com/reliant/configurator/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *configurator.Configurator {
	t.Helper()
	b := dsl.New()
	b.Product("window", "Casement Window").Starts("frame")
	b.Selection("frame", "Frame material").
		Option("oak", "Oak").Then("finish").
		Option("upvc", "uPVC").
		Next("size")
	b.Text("finish", "Oak finish")
	b.Number("size", "Opening size").
		Input("width", "Width (mm)").Range(300, 2400).Required().
		Input("panes", "Panes").Required()
	catalog, err := b.Build()
	require.NoError(t, err)

	app, err := configurator.New(configurator.WithCatalog(catalog))
	require.NoError(t, err)
	return app
}

func runText(t *testing.T, app *configurator.Configurator, input string, opts ...runner.Option) (*domain.ConfiguredProduct, string, error) {
	t.Helper()
	var out bytes.Buffer
	handler := runner.NewTextHandler(strings.NewReader(input), &out, runner.WithInteractive(true))
	r := runner.NewRunner(append([]runner.Option{runner.WithInputHandler(handler)}, opts...)...)
	product, err := r.Run(context.Background(), app, "window")
	return product, out.String(), err
}

func TestRunner_TextFlow(t *testing.T) {
	app := newApp(t)
	input := strings.Join([]string{
		"5",      // not an option
		"1",      // oak opens the finish page
		":b",     // back to the frame page
		"oak",    // by id this time
		"walnut", // finish
		"900",    // width
		"2",      // panes
	}, "\n") + "\n"

	product, out, err := runText(t, app, input, runner.WithCartID("cart-1"))
	require.NoError(t, err)
	require.NotNil(t, product)

	assert.Contains(t, out, "! frame: Please choose one of the options")
	assert.Contains(t, out, "[Step 1] Frame material")
	assert.Contains(t, out, "[Step 2] Oak finish")
	assert.Contains(t, out, "(:b back, :q cancel, :r retry)")
	assert.Contains(t, out, "Configured Casement Window:")
	assert.Contains(t, out, "  Frame material: Oak\n")
	assert.Contains(t, out, "  Oak finish: walnut\n")
	assert.Contains(t, out, "  Opening size: Panes 2, Width (mm) 900\n")

	items, err := app.Cart().Items(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ID)
}

func TestRunner_NumberValidationAsksAgain(t *testing.T) {
	app := newApp(t)
	input := "2\n100\n0\n900\n1\n"

	product, out, err := runText(t, app, input)
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Contains(t, out, "! panes: Value must be greater than 0")
	assert.Contains(t, out, "! width: Value must be at least 300")
	assert.Contains(t, out, "Width (mm) [Range: 300 - 2400 (whole numbers only)]: ")
}

func TestRunner_Cancel(t *testing.T) {
	app := newApp(t)

	product, out, err := runText(t, app, "q\n")
	assert.ErrorIs(t, err, runner.ErrCancelled)
	assert.Nil(t, product)
	assert.Contains(t, out, "Configuration cancelled.")

	sessions, err := app.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRunner_BackOnFirstPageIsReported(t *testing.T) {
	app := newApp(t)

	_, out, err := runText(t, app, "b\nexit\n")
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out, "! invariant violation in previous")
}

func TestRunner_EndOfInput(t *testing.T) {
	app := newApp(t)

	_, _, err := runText(t, app, "1\n")
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunner_JSONFlow(t *testing.T) {
	app := newApp(t)
	input := strings.Join([]string{
		`{"answer":{"selection_id":"upvc"}}`,
		`{"answer":{"numbers":{"width":"50","panes":"1"}}}`,
		`{"command":"back"}`,
		`{"command":"submit","answer":{"selection_id":"upvc"}}`,
		`{"answer":{"numbers":{"width":"1200","panes":"1"}}}`,
	}, "\n")

	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(input), &out)))
	product, err := r.Run(context.Background(), app, "window")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Len(t, product.UserSelections, 2)

	var kinds []string
	var lastStatus string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var msg struct {
			Type   string            `json:"type"`
			Fields map[string]string `json:"fields"`
			View   struct {
				Status string `json:"status"`
			} `json:"view"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		kinds = append(kinds, msg.Type)
		if msg.Type == "error" {
			assert.Contains(t, msg.Fields, "width")
		}
		lastStatus = msg.View.Status
	}
	assert.Equal(t, []string{"view", "view", "error", "view", "view", "view"}, kinds)
	assert.Equal(t, string(domain.StatusCompleted), lastStatus)
}

func TestRunner_RejectsOversizedInput(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "8")
	app := newApp(t)

	_, out, err := runText(t, app, "1\n"+strings.Repeat("x", 20)+"\n:exit\n")
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out, "input exceeds maximum allowed size")
}
