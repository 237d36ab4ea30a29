package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeus/internal/core"
	"zeus/internal/metrics"
	"zeus/internal/middleware/ratelimit"
	"zeus/internal/news"
	"zeus/internal/services"
	"zeus/internal/storage"
)

type stubNews struct {
	result news.Result
}

func (s stubNews) Latest(context.Context) news.Result { return s.result }

var march = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv    *Server
	store  *storage.MemoryStore
	ledger *services.LedgerService
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	ledger, err := services.NewLedgerService(context.Background(), store, nil, nil)
	require.NoError(t, err)

	o := Options{
		Ledger:    ledger,
		News:      stubNews{result: news.Result{Online: true, Items: []news.Item{{Title: "Selic mantida", Link: "https://example.com/selic"}}}},
		RateLimit: ratelimit.Config{RequestsPerMinute: 1000},
		Now:       func() time.Time { return march },
	}
	for _, fn := range opts {
		fn(&o)
	}
	srv := NewServer(":0", o)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store, ledger: ledger}
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (e *testEnv) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDashboard_DefaultState(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Dashboard Zeus - Março")
	assert.Contains(t, body, "R$ 0,00")
	assert.Contains(t, body, "Bate-papo da família Zeus!")
	assert.Contains(t, body, "⚠️ COMPRAR GÁS")
	assert.Contains(t, body, "Selic mantida")
	assert.Contains(t, body, `value="Exemplo"`)
	assert.Contains(t, body, "✅ Saldo do Mês")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestDashboard_SelectsMonthFromQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/?month=Julho")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard Zeus - Julho")
	assert.Contains(t, rec.Body.String(), `<option value="Julho" selected>`)
}

func TestDashboard_InvalidMonthFallsBackToCurrent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/?month=Smarch")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard Zeus - Março")
}

func TestDashboard_NewsOffline(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.News = stubNews{} })

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Notícias off-line")
}

func TestDashboard_DeficitCard(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.SetIncome(context.Background(), core.March, dec("100"))
	env.ledger.ReplaceExpenses(context.Background(), core.March, []core.ExpenseEntry{
		{Category: "Casa", Item: "Aluguel", Amount: dec("250.5")},
	})

	rec := env.get("/?month=Março")
	body := rec.Body.String()
	assert.Contains(t, body, "🚨 Atenção! Déficit: R$ -150,50")
	assert.NotContains(t, body, "✅ Saldo do Mês")
}

func TestIncome_UpdatesMemoryWithoutSaving(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/income", url.Values{"month": {"Março"}, "income": {"1500,50"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, dashboardURL(core.March, ""), rec.Header().Get("Location"))

	assert.True(t, dec("1500.50").Equal(env.ledger.Snapshot().Ledger(core.March).Income))
	assert.Equal(t, 0, env.store.Saves())
}

func TestIncome_RejectsInvalidAmounts(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"negative", "-10"},
		{"blank", ""},
		{"text", "abc"},
		{"exponent", "1e400"},
		{"huge exponent", "1e50000000"},
		{"not a number", "NaN"},
		{"too many digits", "1000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.post("/income", url.Values{"month": {"Março"}, "income": {tt.value}})
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "valor numérico não negativo")
			assert.True(t, env.ledger.Snapshot().Ledger(core.March).Income.IsZero())
		})
	}
}

func TestIncome_ExponentDoesNotBreakCharts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/income", url.Values{"month": {"Janeiro"}, "income": {"1e400"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.get("/api/charts/comparison")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 24)
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]float64{"v": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIncome_InvalidMonth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.post("/income", url.Values{"month": {"Trezembro"}, "income": {"10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "mês inválido")
}

func TestGoal_Updates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/goal", url.Values{"month": {"Abril"}, "goal": {"5000"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, dashboardURL(core.April, ""), rec.Header().Get("Location"))
	assert.True(t, dec("5000").Equal(env.ledger.Snapshot().SavingsGoal))
	assert.Equal(t, 0, env.store.Saves())
}

func TestSavings_DepositSaves(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/savings", url.Values{"month": {"Março"}, "op": {"deposit"}, "amount": {"200"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, dashboardURL(core.March, noticeSavings), rec.Header().Get("Location"))

	assert.True(t, dec("200").Equal(env.ledger.Snapshot().Ledger(core.March).Savings))
	assert.Equal(t, 1, env.store.Saves())

	saved, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(saved.Ledger(core.March).Savings))
}

func TestSavings_WithdrawOverBalanceShowsNotice(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.Deposit(context.Background(), core.March, dec("200"))

	rec := env.post("/savings", url.Values{"month": {"Março"}, "op": {"withdraw"}, "amount": {"500"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.Equal(t, dashboardURL(core.March, noticeInsufficient), location)
	assert.True(t, dec("200").Equal(env.ledger.Snapshot().Ledger(core.March).Savings))

	page := env.get(location)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Saldo insuficiente no cofrinho")
	assert.Contains(t, page.Body.String(), "notice-warning")
}

func TestSavings_WithdrawWithinBalance(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.Deposit(context.Background(), core.March, dec("200"))

	rec := env.post("/savings", url.Values{"month": {"Março"}, "op": {"withdraw"}, "amount": {"50"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, dashboardURL(core.March, noticeSavings), rec.Header().Get("Location"))
	assert.True(t, dec("150").Equal(env.ledger.Snapshot().Ledger(core.March).Savings))
}

func TestSavings_UnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.post("/savings", url.Values{"month": {"Março"}, "op": {"steal"}, "amount": {"50"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, env.store.Saves())
}

func TestSavings_SaveFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailWith(errors.New("disk full"))

	rec := env.post("/savings", url.Values{"month": {"Março"}, "op": {"deposit"}, "amount": {"10"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não foi possível salvar os dados.")
}

func TestNotesAndReminders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/notes", url.Values{"month": {"Março"}, "notes": {"Oi\r\nfamília\x00"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = env.post("/reminders", url.Values{"month": {"Março"}, "reminders": {"pagar luz\n\n  ração  "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	st := env.ledger.Snapshot()
	assert.Equal(t, "Oi\nfamília", st.Notes)
	assert.Equal(t, []string{"pagar luz", "ração"}, st.ReminderItems())
	assert.Equal(t, 0, env.store.Saves())

	page := env.get("/?month=Março").Body.String()
	assert.Contains(t, page, "⚠️ PAGAR LUZ")
	assert.Contains(t, page, "⚠️ RAÇÃO")
}

func TestExpenses_ReplaceAndSave(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"month":    {"Março"},
		"category": {"Casa", "", "Lazer", ""},
		"item":     {"Aluguel", "", "Cinema", "Pipoca"},
		"amount":   {"1200", "", "45,90", ""},
	}
	rec := env.post("/expenses", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, dashboardURL(core.March, noticeSaved), rec.Header().Get("Location"))

	expenses := env.ledger.Snapshot().Ledger(core.March).Expenses
	require.Len(t, expenses, 3)
	assert.Equal(t, "Casa", expenses[0].Category)
	assert.True(t, dec("1200").Equal(expenses[0].Amount))
	assert.True(t, dec("45.90").Equal(expenses[1].Amount))
	assert.Equal(t, "Pipoca", expenses[2].Item)
	assert.True(t, expenses[2].Amount.IsZero())
	assert.Equal(t, 1, env.store.Saves())

	page := env.get(rec.Header().Get("Location")).Body.String()
	assert.Contains(t, page, "Tudo salvo com sucesso!")
}

func TestExpenses_EmptyTableClearsMonth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/expenses", url.Values{"month": {"Março"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.ledger.Snapshot().Ledger(core.March).Expenses)
	assert.Len(t, env.ledger.Snapshot().Ledger(core.April).Expenses, 1)
}

func TestExpenses_Validation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{
			name: "mismatched columns",
			form: url.Values{"month": {"Março"}, "category": {"Casa", "Lazer"}, "item": {"Aluguel"}, "amount": {"1", "2"}},
		},
		{
			name: "negative amount",
			form: url.Values{"month": {"Março"}, "category": {"Casa"}, "item": {"Aluguel"}, "amount": {"-1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.post("/expenses", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, 0, env.store.Saves())
			assert.Len(t, env.ledger.Snapshot().Ledger(core.March).Expenses, 1)
		})
	}
}

func TestComparisonChart(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.SetIncome(context.Background(), core.January, dec("1000"))
	env.ledger.ReplaceExpenses(context.Background(), core.January, []core.ExpenseEntry{
		{Category: "Casa", Item: "Luz", Amount: dec("120.5")},
	})

	rec := env.get("/api/charts/comparison")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 24)
	assert.Equal(t, map[string]any{"month": "Janeiro", "type": "Receita", "value": 1000.0}, rows[0])
	assert.Equal(t, map[string]any{"month": "Janeiro", "type": "Gasto", "value": 120.5}, rows[1])
	assert.Equal(t, "Dezembro", rows[23]["month"])
}

func TestBreakdownChart(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.ReplaceExpenses(context.Background(), core.March, []core.ExpenseEntry{
		{Category: "Casa", Item: "Aluguel", Amount: dec("300")},
		{Category: "Lazer", Item: "Cinema", Amount: dec("40")},
		{Category: "Casa", Item: "Luz", Amount: dec("60")},
	})

	rec := env.get("/api/charts/breakdown?month=" + url.QueryEscape("Março"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"category":"Casa","value":360},{"category":"Lazer","value":40}]`, rec.Body.String())

	rec = env.get("/api/charts/breakdown?month=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = env.get("/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Metrics = metrics.New() })

	env.get("/healthz")
	rec := env.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `zeus_requests_total{code="200",method="GET",route="GET /healthz"} 1`)
}

func TestMiddlewareChain(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
}

func TestRateLimitOnlyThrottlesPosts(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimit = ratelimit.Config{RequestsPerMinute: 1} })

	form := url.Values{"month": {"Março"}, "income": {"10"}}
	assert.Equal(t, http.StatusSeeOther, env.post("/income", form).Code)

	rec := env.post("/income", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.get("/").Code)
	assert.Equal(t, http.StatusOK, env.get("/").Code)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/charts/comparison")
	assert.NotEmpty(t, rec.Header().Get("Cache-Control"))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.get("/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.get("/income").Code)
}
