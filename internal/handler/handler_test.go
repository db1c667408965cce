package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/config"
	"github.com/dmelgar/fintrack/internal/middleware"
	"github.com/dmelgar/fintrack/internal/models"
	"github.com/dmelgar/fintrack/internal/repository"
	"github.com/dmelgar/fintrack/internal/service"
)

type stubRepo struct {
	cycleConfig *models.CycleConfig
	loan        *models.Loan
	card        *models.CreditCard
}

func (r *stubRepo) CreateUser(user *models.User) error { user.ID = 1; return nil }

func (r *stubRepo) FindUserByEmail(email string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (r *stubRepo) GetCycleConfig(userID int64) (*models.CycleConfig, error) {
	if r.cycleConfig == nil {
		return nil, repository.ErrNotFound
	}
	return r.cycleConfig, nil
}

func (r *stubRepo) SaveCycleConfig(cfg *models.CycleConfig) error { r.cycleConfig = cfg; return nil }
func (r *stubRepo) ClearCycleOverride(userID int64) error         { return nil }
func (r *stubRepo) CreateLoan(loan *models.Loan) error            { loan.ID = 1; r.loan = loan; return nil }

func (r *stubRepo) FindLoanByID(id, userID int64) (*models.Loan, error) {
	if r.loan == nil || r.loan.ID != id {
		return nil, repository.ErrNotFound
	}
	return r.loan, nil
}

func (r *stubRepo) CountLinkedPayments(loanID int64) (int, error) { return 0, nil }
func (r *stubRepo) CreateCard(card *models.CreditCard) error      { card.ID = 1; r.card = card; return nil }

func (r *stubRepo) FindCardByID(id, userID int64) (*models.CreditCard, error) {
	if r.card == nil || r.card.ID != id {
		return nil, repository.ErrNotFound
	}
	return r.card, nil
}

func newTestHandler(repo *stubRepo) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:             "test-secret",
		AdvisorMaxInterestPct: decimal.NewFromInt(5),
	}
	return NewHandler(service.NewService(repo, log, cfg), log)
}

// authedRequest builds a request carrying the user ID the auth middleware
// would have injected.
func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "7"))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestGetBillingCycle(t *testing.T) {
	h := newTestHandler(&stubRepo{cycleConfig: &models.CycleConfig{UserID: 7, StartDay: 15}})

	rec := httptest.NewRecorder()
	h.GetBillingCycle(rec, authedRequest(http.MethodGet, "/billing-cycle?date=2026-09-10", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var window struct {
		CycleName string `json:"cycle_name"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	decodeBody(t, rec, &window)

	if window.CycleName != "Septiembre" {
		t.Errorf("cycle_name = %q, want Septiembre", window.CycleName)
	}
	if !strings.HasPrefix(window.StartDate, "2026-08-15") {
		t.Errorf("start_date = %q, want 2026-08-15", window.StartDate)
	}
	if !strings.HasPrefix(window.EndDate, "2026-09-14") {
		t.Errorf("end_date = %q, want 2026-09-14", window.EndDate)
	}
}

func TestGetBillingCycle_RejectsBadDate(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.GetBillingCycle(rec, authedRequest(http.MethodGet, "/billing-cycle?date=10/09/2026", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetBillingCycle_Unauthenticated(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.GetBillingCycle(rec, httptest.NewRequest(http.MethodGet, "/billing-cycle", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUpdateBillingCycle(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)

	rec := httptest.NewRecorder()
	h.UpdateBillingCycle(rec, authedRequest(http.MethodPut, "/billing-cycle",
		`{"start_day": 15, "next_override_date": "2026-10-25"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if repo.cycleConfig == nil || repo.cycleConfig.StartDay != 15 {
		t.Fatalf("saved config = %+v, want start day 15", repo.cycleConfig)
	}
	if repo.cycleConfig.NextOverrideDate == nil {
		t.Fatal("override date was not saved")
	}
	if want := time.Date(2026, time.October, 25, 0, 0, 0, 0, time.UTC); !repo.cycleConfig.NextOverrideDate.Equal(want) {
		t.Errorf("override = %v, want %v", repo.cycleConfig.NextOverrideDate, want)
	}
}

func TestUpdateBillingCycle_RejectsStartDayOutOfRange(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.UpdateBillingCycle(rec, authedRequest(http.MethodPut, "/billing-cycle", `{"start_day": 32}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateLoanAndSchedule(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)

	rec := httptest.NewRecorder()
	h.CreateLoan(rec, authedRequest(http.MethodPost, "/loans",
		`{"name": "moto", "original_amount": "15000", "annual_rate": "14.27",
		  "total_installments": 12, "base_installments_paid": 3,
		  "start_date": "2026-01-15", "payment_day": 15}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var loan struct {
		ID             int64  `json:"id"`
		MonthlyPayment string `json:"monthly_payment"`
	}
	decodeBody(t, rec, &loan)
	if loan.MonthlyPayment == "" || loan.MonthlyPayment == "0" {
		t.Errorf("monthly_payment = %q, want a derived amount", loan.MonthlyPayment)
	}

	rec = httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/loans/1/schedule", "")
	h.LoanSchedule(rec, mux.SetURLVars(req, map[string]string{"id": "1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var payload struct {
		Schedule []struct {
			InstallmentNumber int  `json:"installment_number"`
			IsPaid            bool `json:"is_paid"`
		} `json:"schedule"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Schedule) != 12 {
		t.Fatalf("schedule has %d rows, want 12", len(payload.Schedule))
	}
	for _, row := range payload.Schedule {
		if want := row.InstallmentNumber <= 3; row.IsPaid != want {
			t.Errorf("row %d: is_paid = %v, want %v", row.InstallmentNumber, row.IsPaid, want)
		}
	}
}

func TestCreateLoan_RejectsZeroAmount(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.CreateLoan(rec, authedRequest(http.MethodPost, "/loans",
		`{"name": "moto", "original_amount": "0", "annual_rate": "14.27",
		  "total_installments": 12, "start_date": "2026-01-15", "payment_day": 15}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLoanProgress_NotFound(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/loans/99/progress", "")
	h.LoanProgress(rec, mux.SetURLVars(req, map[string]string{"id": "99"}))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCardTimelineAndPurchaseAdvice(t *testing.T) {
	repo := &stubRepo{card: &models.CreditCard{
		ID:                   1,
		UserID:               7,
		Name:                 "visa",
		CreditLimit:          decimal.NewFromInt(5000),
		CurrentBalance:       decimal.NewFromInt(1500),
		StatementDay:         20,
		PaymentDueOffsetDays: 10,
		TEA:                  decimal.NewFromFloat(42.5),
	}}
	h := newTestHandler(repo)

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/cards/1/timeline?date=2026-09-10", "")
	h.CardTimeline(rec, mux.SetURLVars(req, map[string]string{"id": "1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("timeline status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var timeline struct {
		CurrentCycle struct {
			DaysUntilClose   int `json:"days_until_close"`
			DaysUntilPayment int `json:"days_until_payment"`
		} `json:"current_cycle"`
		FloatCalculator struct {
			IfBuyToday struct {
				FloatDays int `json:"float_days"`
			} `json:"if_buy_today"`
		} `json:"float_calculator"`
	}
	decodeBody(t, rec, &timeline)
	if timeline.CurrentCycle.DaysUntilClose != 10 {
		t.Errorf("days_until_close = %d, want 10", timeline.CurrentCycle.DaysUntilClose)
	}
	if timeline.FloatCalculator.IfBuyToday.FloatDays != 20 {
		t.Errorf("if_buy_today.float_days = %d, want 20", timeline.FloatCalculator.IfBuyToday.FloatDays)
	}

	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPost, "/cards/1/purchase-advice",
		`{"amount": "4000", "installments": 6, "date": "2026-09-10"}`)
	h.PurchaseAdvice(rec, mux.SetURLVars(req, map[string]string{"id": "1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("advice status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var advice struct {
		Error   string `json:"error"`
		Warning *struct {
			Details struct {
				ShortBy string `json:"short_by"`
			} `json:"details"`
		} `json:"warning"`
	}
	decodeBody(t, rec, &advice)
	if advice.Error != "insufficient_credit" || advice.Warning == nil {
		t.Fatalf("advice = %+v, want insufficient_credit warning", advice)
	}
	if advice.Warning.Details.ShortBy != "500" {
		t.Errorf("short_by = %q, want 500", advice.Warning.Details.ShortBy)
	}
}

func TestCreateCard_RejectsBadStatementDay(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.CreateCard(rec, authedRequest(http.MethodPost, "/cards",
		`{"name": "visa", "credit_limit": "5000", "statement_day": 0}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
