package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reliant/configurator"
	api "github.com/reliant/configurator/pkg/adapters/http"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/dsl"
	"github.com/reliant/configurator/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubPredictor struct{}

func (stubPredictor) Predict(_ context.Context, id string) (json.RawMessage, error) {
	return json.RawMessage(`{"item":"` + id + `","price":99}`), nil
}

func (stubPredictor) Summarize(_ context.Context, id string) (string, error) {
	return "summary of " + id, nil
}

func (stubPredictor) Cluster(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func newTestServer(t *testing.T, opts ...configurator.Option) *httptest.Server {
	t.Helper()
	b := dsl.New()
	b.Product("door", "Front Door").Starts("style")
	b.Selection("style", "Door style").
		Option("panel", "Panelled").
		Option("glazed", "Glazed").
		Next("size")
	b.Number("size", "Door size").
		Input("width", "Width (mm)").Range(300, 2400).Required()
	catalog, err := b.Build()
	require.NoError(t, err)

	cfg, err := configurator.New(append([]configurator.Option{configurator.WithCatalog(catalog)}, opts...)...)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewHandler(cfg,
		api.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("configurator_up 1\n"))
		})),
	))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func configureDoor(t *testing.T, base, cartID string) {
	t.Helper()
	var view form.View
	require.Equal(t, http.StatusCreated, call(t, "POST", base+"/sessions", map[string]string{"cart_id": cartID, "product_id": "door"}, &view))
	sid := view.SessionID
	require.Equal(t, http.StatusOK, call(t, "POST", base+"/sessions/"+sid+"/submit", form.Answer{SelectionID: "glazed"}, &view))
	require.Equal(t, http.StatusOK, call(t, "POST", base+"/sessions/"+sid+"/submit", form.Answer{Numbers: map[string]string{"width": "900"}}, &view))
	require.Equal(t, domain.StatusCompleted, view.Status)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "configurator_up")
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/sessions", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Products(t *testing.T) {
	srv := newTestServer(t)
	var products []domain.Product
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/products", nil, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "door", products[0].ID)
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var view form.View
	require.Equal(t, http.StatusCreated, call(t, "POST", srv.URL+"/sessions", map[string]string{"cart_id": "c1", "product_id": "door"}, &view))
	sid := view.SessionID
	assert.Equal(t, form.VariantSelection, view.Variant)
	assert.Equal(t, "style", view.PageID)

	require.Equal(t, http.StatusOK, call(t, "POST", srv.URL+"/sessions/"+sid+"/submit", form.Answer{SelectionID: "panel"}, &view))
	assert.Equal(t, "size", view.PageID)
	assert.True(t, view.CanGoBack)

	var got form.View
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/sessions/"+sid, nil, &got))
	assert.Equal(t, "size", got.PageID)

	require.Equal(t, http.StatusOK, call(t, "POST", srv.URL+"/sessions/"+sid+"/previous", nil, &view))
	assert.Equal(t, "style", view.PageID)

	require.Equal(t, http.StatusOK, call(t, "POST", srv.URL+"/sessions/"+sid+"/reload", nil, &view))
	assert.Equal(t, "style", view.PageID)

	require.Equal(t, http.StatusOK, call(t, "DELETE", srv.URL+"/sessions/"+sid, nil, &view))
	assert.Equal(t, http.StatusNotFound, call(t, "GET", srv.URL+"/sessions/"+sid, nil, nil))

	var c domain.Cart
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/carts/c1", nil, &c))
	assert.Empty(t, c.Items)
}

func TestServer_Errors(t *testing.T) {
	srv := newTestServer(t)

	var e apiError
	assert.Equal(t, http.StatusNotFound, call(t, "POST", srv.URL+"/sessions", map[string]string{"product_id": "gate"}, &e))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, "POST", srv.URL+"/sessions", map[string]string{}, &e))
	assert.Contains(t, e.Fields, "product_id")
	assert.Equal(t, http.StatusNotFound, call(t, "POST", srv.URL+"/sessions/missing/submit", form.Answer{}, &e))

	var view form.View
	require.Equal(t, http.StatusCreated, call(t, "POST", srv.URL+"/sessions", map[string]string{"cart_id": "c1", "product_id": "door"}, &view))
	sid := view.SessionID

	e = apiError{}
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, "POST", srv.URL+"/sessions/"+sid+"/submit", form.Answer{SelectionID: "sliding"}, &e))
	assert.Equal(t, form.MsgSelection, e.Fields["style"])

	e = apiError{}
	assert.Equal(t, http.StatusConflict, call(t, "POST", srv.URL+"/sessions/"+sid+"/previous", nil, &e))

	e = apiError{}
	long := strings.Repeat("a", 5000)
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		call(t, "POST", srv.URL+"/sessions/"+sid+"/submit", form.Answer{Text: &long}, &e))

	req, _ := http.NewRequest("POST", srv.URL+"/sessions/"+sid+"/submit", strings.NewReader("{not json"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_CartAndCheckout(t *testing.T) {
	srv := newTestServer(t)
	configureDoor(t, srv.URL, "c1")
	configureDoor(t, srv.URL, "c1")

	var c domain.Cart
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/carts/c1", nil, &c))
	require.Len(t, c.Items, 2)

	first, second := c.Items[0].ID, c.Items[1].ID
	require.Equal(t, http.StatusOK, call(t, "PATCH", srv.URL+"/carts/c1/items/"+first, map[string]int{"quantity": 3}, &c))
	assert.Equal(t, 3, c.Items[0].Quantity)
	require.Equal(t, http.StatusOK, call(t, "DELETE", srv.URL+"/carts/c1/items/"+second, nil, &c))
	assert.Len(t, c.Items, 1)
	assert.Equal(t, http.StatusNotFound, call(t, "DELETE", srv.URL+"/carts/c1/items/"+second, nil, nil))

	resp, err := http.Get(srv.URL + "/carts/c1/export.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), "Items")

	var e apiError
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, "POST", srv.URL+"/carts/c1/checkout", domain.Customer{FirstName: "Ann"}, &e))
	assert.Contains(t, e.Fields, "email")

	customer := domain.Customer{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "0400000000"}
	var q domain.Quotation
	require.Equal(t, http.StatusCreated, call(t, "POST", srv.URL+"/carts/c1/checkout", customer, &q))
	require.Len(t, q.Items, 1)
	assert.Equal(t, "door", q.Items[0].Product)
	assert.Equal(t, 3, q.Items[0].Quantity)

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, "POST", srv.URL+"/carts/c1/checkout", customer, nil))

	var list []map[string]any
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/quotations?q=ann", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, []any{"door"}, list[0]["products"])
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/quotations?q=nobody", nil, &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusNoContent, call(t, "PATCH", srv.URL+"/quotations/items/"+q.Items[0].ID, map[string]float64{"price": 1250}, nil))
	var got domain.Quotation
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/quotations/"+q.ID, nil, &got))
	assert.InDelta(t, 1250, got.Items[0].Price, 0.001)
	assert.Equal(t, http.StatusNotFound, call(t, "GET", srv.URL+"/quotations/none", nil, nil))

	resp2, err := http.Get(srv.URL + "/quotations/" + q.ID + "/export.xlsx")
	require.NoError(t, err)
	defer resp2.Body.Close()
	f2, err := excelize.OpenReader(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, f2.GetSheetList(), "Customer")
}

func TestServer_AIRoutes(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotImplemented, call(t, "GET", srv.URL+"/ai/cluster", nil, nil))

	srv = newTestServer(t, configurator.WithPredictor(stubPredictor{}))
	var pred map[string]any
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/ai/prediction/i1", nil, &pred))
	assert.Equal(t, "i1", pred["item"])

	resp, err := http.Get(srv.URL + "/ai/summary/q1")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "summary of q1", string(data))
}

func TestServer_Events(t *testing.T) {
	srv := newTestServer(t)

	var view form.View
	require.Equal(t, http.StatusCreated, call(t, "POST", srv.URL+"/sessions", map[string]string{"cart_id": "c1", "product_id": "door"}, &view))
	sid := view.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/"+sid+"/events?watch=page", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Equal(t, http.StatusOK, call(t, "POST", srv.URL+"/sessions/"+sid+"/submit", form.Answer{SelectionID: "panel"}, &view))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	var pushed form.View
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &pushed))
	assert.Equal(t, "size", pushed.PageID)
}

func TestServer_EventsUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, call(t, "GET", srv.URL+"/sessions/nope/events", nil, nil))
}

func TestServer_OpenAPIDocument(t *testing.T) {
	doc, err := api.OpenAPI()
	require.NoError(t, err)
	for _, path := range []string{"/sessions", "/sessions/{sessionID}/submit", "/carts/{cartID}/checkout", "/quotations/items/{itemID}"} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "operationId: submitAnswer")
}

func TestServer_RejectsRequestsOutsideDocument(t *testing.T) {
	srv := newTestServer(t)
	configureDoor(t, srv.URL, "c1")

	var c domain.Cart
	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/carts/c1", nil, &c))
	require.Len(t, c.Items, 1)
	itemID := c.Items[0].ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"quantity as text", "PATCH", "/carts/c1/items/" + itemID, map[string]string{"quantity": "three"}},
		{"price as text", "PATCH", "/quotations/items/q1", map[string]string{"price": "cheap"}},
		{"product id as number", "POST", "/sessions", map[string]any{"product_id": 7}},
		{"numbers not strings", "POST", "/sessions/s1/submit", map[string]any{"numbers": map[string]int{"width": 900}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e apiError
			assert.Equal(t, http.StatusBadRequest, call(t, tt.method, srv.URL+tt.path, tt.body, &e))
			assert.Contains(t, e.Error, "invalid request")
		})
	}

	require.Equal(t, http.StatusOK, call(t, "GET", srv.URL+"/carts/c1", nil, &c))
	assert.Equal(t, 1, c.Items[0].Quantity, "rejected requests change nothing")
}
