package ginserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	pricingapp "villaledger/internal/app/handlers/pricing"
	reservationsapp "villaledger/internal/app/handlers/reservations"
	"villaledger/internal/app/middleware"
	"villaledger/internal/app/queries"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/infra/config"
	ginserver "villaledger/internal/infra/http/gin"
	"villaledger/internal/infra/obs"
	"villaledger/internal/infra/storage/memory"
	"villaledger/internal/infra/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, checks map[string]obs.Check) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := memory.NewRuleRepository(pricing.DefaultRules())
	ledger := memory.NewReservationRepository()
	settings := memory.NewSettingsStore(decimal.NewFromInt(10))
	now := func() time.Time { return time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC) }

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[reservationsapp.SaveReservationCommand, dto.SaveReservationResult](cmdBus, reservationsapp.SaveReservationCommand{}.Key(), &reservationsapp.SaveReservationHandler{
		Reservations: ledger, Rules: rules, Settings: settings, StrictRates: true, Now: now,
	})
	commands.RegisterHandler[reservationsapp.DeleteReservationCommand, struct{}](cmdBus, reservationsapp.DeleteReservationCommand{}.Key(), &reservationsapp.DeleteReservationHandler{
		Reservations: ledger, Now: now,
	})
	commands.RegisterHandler[pricingapp.AddRuleCommand, dto.PriceRule](cmdBus, pricingapp.AddRuleCommand{}.Key(), &pricingapp.AddRuleHandler{Rules: rules, Now: now})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[reservationsapp.ListReservationsQuery, []dto.Reservation](queryBus, reservationsapp.ListReservationsQuery{}.Key(), &reservationsapp.ListReservationsHandler{Reservations: ledger})
	queries.RegisterHandler[reservationsapp.GetReservationQuery, dto.Reservation](queryBus, reservationsapp.GetReservationQuery{}.Key(), &reservationsapp.GetReservationHandler{Reservations: ledger})
	queries.RegisterHandler[pricingapp.ResolveNightlyQuery, dto.NightlyPrice](queryBus, pricingapp.ResolveNightlyQuery{}.Key(), &pricingapp.ResolveNightlyHandler{Rules: rules})

	validator := validation.New()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Validation(validator),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	return ginserver.NewRouter(
		config.Config{Env: "test"},
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{Checks: checks},
		ginserver.Handlers{
			Pricing:      ginserver.PricingHandler{Commands: cmds, Queries: qs, Logger: logger},
			Reservations: ginserver.ReservationHandler{Commands: cmds, Queries: qs, Logger: logger},
		},
	)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const summerBooking = `{"apart":"Safira","name":"Ayşe","cin":"2026-07-10","cout":"2026-07-15","paidAmt":5000}`

func TestReservationLifecycle(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/reservations", summerBooking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.SaveReservationResult](t, rec)
	assert.Equal(t, 22500.0, created.Reservation.Gross)
	assert.Equal(t, 15250.0, created.Reservation.Remaining)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	path := "/api/v1/reservations/" + jsonID(created.Reservation.ID)
	rec = do(t, router, http.MethodPut, path, `{"apart":"Safira","name":"Ayşe","cin":"2026-07-10","cout":"2026-07-15","price":4000,"commissionRate":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 20000.0, decode[dto.SaveReservationResult](t, rec).Reservation.Gross)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.Reservation](t, rec), 1)

	rec = do(t, router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateIsIdempotentPerKey(t *testing.T) {
	router := newRouter(t, nil)

	first := do(t, router, http.MethodPost, "/api/v1/reservations", summerBooking, "Idempotency-Key", "abc")
	second := do(t, router, http.MethodPost, "/api/v1/reservations", summerBooking, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := do(t, router, http.MethodGet, "/api/v1/reservations", "")
	assert.Len(t, decode[[]dto.Reservation](t, rec), 1)
}

func TestErrorMapping(t *testing.T) {
	router := newRouter(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing guest", http.MethodPost, "/api/v1/reservations", `{"apart":"Safira","cin":"2026-07-10","cout":"2026-07-12"}`, http.StatusBadRequest},
		{"unknown unit", http.MethodPost, "/api/v1/reservations", `{"apart":"Mars","name":"A","cin":"2026-07-10","cout":"2026-07-12"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/v1/reservations", `{"apart":"Safira","name":"A","cin":"10.07.2026","cout":"2026-07-12"}`, http.StatusBadRequest},
		{"reversed stay", http.MethodPost, "/api/v1/reservations", `{"apart":"Safira","name":"A","cin":"2026-07-12","cout":"2026-07-10"}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/reservations/abc", "", http.StatusBadRequest},
		{"missing reservation", http.MethodGet, "/api/v1/reservations/999", "", http.StatusNotFound},
		{"reversed rule", http.MethodPost, "/api/v1/prices", `{"apart":"Safira","start":"2026-10-10","end":"2026-10-01","price":10}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestUnpricedStayAsksForManualPrice(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/reservations", `{"apart":"Destan","name":"A","cin":"2026-12-30","cout":"2027-01-02"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["hint"])

	rec = do(t, router, http.MethodPost, "/api/v1/reservations", `{"apart":"Destan","name":"A","cin":"2026-12-30","cout":"2027-01-02","price":2000}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNightlyPrice(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/prices/nightly?apart=Destan&date=2026-07-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	price := decode[dto.NightlyPrice](t, rec)
	assert.Equal(t, 4000.0, price.Price)
	assert.EqualValues(t, 5, price.RuleID)
}

func TestHealth(t *testing.T) {
	router := newRouter(t, map[string]obs.Check{
		"mongo": func(context.Context) error { return errors.New("no reachable servers") },
	})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/livez", "").Code)
	rec := do(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no reachable servers")
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
