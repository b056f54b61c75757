package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/flake/clog"
)

func scrape(t *testing.T, m Meter) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func shutdown(t *testing.T, m Meter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, m.Shutdown(ctx))
}

// TestNew 测试创建 Meter 实例
func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	m, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, noopMeter{}, m)

	m, err = New(NewDevDefaultConfig("flake-test"), WithLogger(clog.Discard()))
	require.NoError(t, err)
	assert.IsType(t, &meterImpl{}, m)
	shutdown(t, m)
}

func TestDiscard(t *testing.T) {
	m := Discard()
	ctx := context.Background()

	c, err := m.Counter("c", "c")
	require.NoError(t, err)
	c.Inc(ctx)

	g, err := m.Gauge("g", "g")
	require.NoError(t, err)
	g.Set(ctx, 1)

	h, err := m.Histogram("h", "h")
	require.NoError(t, err)
	h.Record(ctx, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, m.Shutdown(ctx))
}

func TestInstrumentsExported(t *testing.T) {
	m, err := New(NewDevDefaultConfig("flake-test"))
	require.NoError(t, err)
	defer shutdown(t, m)

	ctx := context.Background()

	counter, err := m.Counter("flake_test_generated_total", "generated ids")
	require.NoError(t, err)
	counter.Inc(ctx, L("node_id", "7"))
	counter.Add(ctx, 4, L("node_id", "7"))
	counter.Add(ctx, -3, L("node_id", "7"))

	gauge, err := m.Gauge("flake_test_node", "node id")
	require.NoError(t, err)
	gauge.Set(ctx, 7)
	gauge.Inc(ctx)
	gauge.Dec(ctx)

	hist, err := m.Histogram("flake_test_wait", "wait", WithBuckets(0.001, 0.01))
	require.NoError(t, err)
	hist.Record(ctx, 0.0005)

	body := scrape(t, m)
	assert.Contains(t, body, `flake_test_generated_total{node_id="7"`)
	assert.Contains(t, body, "flake_test_node")
	assert.Contains(t, body, "flake_test_wait_bucket")
}

func TestCounterValue(t *testing.T) {
	m, err := New(NewDevDefaultConfig("flake-test"))
	require.NoError(t, err)
	defer shutdown(t, m)

	counter, err := m.Counter("flake_value_total", "value")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		counter.Inc(context.Background(), L("code", "x"))
	}

	body := scrape(t, m)
	assert.Regexp(t, `flake_value_total\{code="x"[^}]*\} 3`, body)
}

func TestLabelKeyOrderIndependent(t *testing.T) {
	a := labelKey([]Label{L("a", "1"), L("b", "2")})
	b := labelKey([]Label{L("b", "2"), L("a", "1")})
	assert.Equal(t, a, b)
	assert.Empty(t, labelKey(nil))
}

func TestMetricsServer(t *testing.T) {
	cfg := &Config{Enabled: true, ServiceName: "flake-test", Port: 19091}
	m, err := New(cfg)
	require.NoError(t, err)
	defer shutdown(t, m)

	assert.Equal(t, "/metrics", cfg.Path)

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://127.0.0.1:19091/metrics")
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
