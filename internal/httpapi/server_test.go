package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/config"
	"github.com/antoniostano/omnicart/internal/observability"
	"github.com/antoniostano/omnicart/internal/orchestrator"
	"github.com/antoniostano/omnicart/internal/session"
)

func testConfig() config.Config {
	return config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
		RateLimitRPS:             1000,
		RateLimitBurst:           1000,
		DefaultChannel:           "web",
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cat := catalog.New(catalog.Seed())
	metrics := observability.NewMetrics("test_httpapi")
	orch := orchestrator.New(orchestrator.Deps{
		Catalog:     cat,
		Metrics:     metrics,
		Log:         log,
		Roller:      agents.FixedRoller(0.99),
		FailureRate: 0.2,
	})
	sessions := session.NewManager(cfg.SessionInactivityTimeout, session.WithLogger(log))
	srv := New(cfg, sessions, orch, cat, metrics, log)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func createSession(t *testing.T, ts *httptest.Server, body any) string {
	t.Helper()
	status, created := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", body)
	require.Equal(t, http.StatusCreated, status, created)
	id, _ := created["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, created := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{
		"customer_id": "C001",
		"channel":     "mobile",
	})
	require.Equal(t, http.StatusCreated, status)
	id := created["session_id"].(string)
	assert.Equal(t, "mobile", created["channel"])
	assert.Equal(t, "active", created["status"])
	customer := created["customer"].(map[string]any)
	assert.Equal(t, float64(2500), customer["loyalty_points"])

	base := ts.URL + "/v1/sessions/" + id
	status, turn := doJSON(t, http.MethodPost, base+"/turns", map[string]string{"text": "add LV001"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "add_to_cart", turn["intent"])
	assert.Equal(t, agents.NameSales, turn["agent_used"])
	assert.Equal(t, float64(2999), turn["cart_total"])

	status, turn = doJSON(t, http.MethodPost, base+"/turns", map[string]string{"text": "checkout"})
	require.Equal(t, http.StatusOK, status)
	data := turn["data"].(map[string]any)
	assert.Equal(t, float64(2549), data["final_total"])

	status, view := doJSON(t, http.MethodPut, base+"/channel", map[string]string{"channel": "kiosk"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kiosk", view["channel"])
	assert.Equal(t, float64(1), view["cart_items"])

	status, view = doJSON(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), view["cart_items"])
	assert.Equal(t, "C001", view["customer_id"])

	status, view = doJSON(t, http.MethodPost, base+"/end", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ended", view["status"])

	status, body := doJSON(t, http.MethodPost, base+"/turns", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "session_not_found", body["code"])

	status, view = doJSON(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ended", view["status"])
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{"channel": "fax"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_channel", body["code"])

	status, body = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{"customer_id": "C999"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "customer_not_found", body["code"])

	status, body = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", nil)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "web", body["channel"])
	assert.Nil(t, body["customer"])
}

func TestTurnErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/missing/turns", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "session_not_found", body["code"])

	id := createSession(t, ts, nil)
	status, body = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+id+"/turns", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_message", body["code"])
}

func TestSetCustomer(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := createSession(t, ts, nil)
	url := ts.URL + "/v1/sessions/" + id + "/customer"

	status, view := doJSON(t, http.MethodPut, url, map[string]string{"customer_id": "C002"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "C002", view["customer_id"])

	status, body := doJSON(t, http.MethodPut, url, map[string]string{"customer_id": "C999"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "customer_not_found", body["code"])

	status, view = doJSON(t, http.MethodPut, url, map[string]string{"customer_id": ""})
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, view["customer_id"])
}

func TestCatalogAndOrderRoutes(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/products?category=formal", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), body["count"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/products?q=nothing-matches", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["categories"], 5)

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/customers", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["customers"], 10)

	id := createSession(t, ts, map[string]string{"customer_id": "C001"})
	turns := ts.URL + "/v1/sessions/" + id + "/turns"
	doJSON(t, http.MethodPost, turns, map[string]string{"text": "add LV001"})
	status, body = doJSON(t, http.MethodPost, turns, map[string]string{"text": "pay with upi"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment", body["intent"])
	assert.Equal(t, float64(0), body["cart_items"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/customers/C001/orders", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["orders"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, float64(2549), list[0].(map[string]any)["total"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/customers/C999/orders", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "customer_not_found", body["code"])
}

func TestStoreInventoryAndPhoneLookup(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/stores/S001/inventory", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Phoenix Mall Mumbai", body["store"].(map[string]any)["store_name"])
	rows := body["inventory"].([]any)
	require.Len(t, rows, 4)
	assert.Equal(t, "LV001", rows[0].(map[string]any)["sku"])
	assert.Equal(t, float64(15), rows[0].(map[string]any)["quantity"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/stores/S404/inventory", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "store_not_found", body["code"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/customers?phone=%2B91-9876543210", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["customers"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "C001", list[0].(map[string]any)["id"])

	status, body = doJSON(t, http.MethodGet, ts.URL+"/v1/customers?phone=%2B91-0000000000", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "customer_not_found", body["code"])
}

func TestRateLimitPerClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	ts := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		status, _ := doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/categories", nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/catalog/categories", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["code"])

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPerfAndMetricsRoutes(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := createSession(t, ts, nil)
	doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+id+"/turns", map[string]string{"text": "help"})

	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/perf/agents", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["agents"])

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test_httpapi_turns_total")
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestSessionWebSocket(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := createSession(t, ts, map[string]string{"channel": "whatsapp"})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.Equal(t, "session_state", ev["type"])
	assert.Equal(t, "whatsapp", ev["channel"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":       "client_message",
		"session_id": id,
		"seq":        1,
		"text":       "add LV001",
	}))
	ev = readEvent(t, conn)
	assert.Equal(t, "assistant_reply", ev["type"])
	assert.Equal(t, float64(1), ev["seq"])
	assert.Equal(t, "add_to_cart", ev["intent"])
	assert.Equal(t, float64(2999), ev["cart_total"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	ev = readEvent(t, conn)
	assert.Equal(t, "error_event", ev["type"])
	assert.Equal(t, "invalid_client_message", ev["code"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":       "client_control",
		"session_id": id,
		"action":     "channel",
		"value":      "kiosk",
	}))
	ev = readEvent(t, conn)
	assert.Equal(t, "session_state", ev["type"])
	assert.Equal(t, "kiosk", ev["channel"])
	assert.Equal(t, float64(1), ev["cart_items"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":       "client_control",
		"session_id": id,
		"action":     "end",
	}))
	ev = readEvent(t, conn)
	assert.Equal(t, "session_state", ev["type"])
	assert.Equal(t, "ended", ev["status"])
}

func TestSessionWebSocketRejectsEndedSession(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := createSession(t, ts, nil)
	doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+id+"/end", nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + id + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
