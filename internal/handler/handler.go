package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/engine"
	"github.com/dmelgar/fintrack/internal/middleware"
	"github.com/dmelgar/fintrack/internal/models"
	"github.com/dmelgar/fintrack/internal/service"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc      *service.Service
	log      *logrus.Logger
	validate *validator.Validate
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, validate: validator.New()}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetBillingCycle resolves the cycle window containing the requested date
func (h *Handler) GetBillingCycle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	ref, ok := h.queryDate(w, r)
	if !ok {
		return
	}

	window, err := h.svc.ResolveCycle(userID, ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, window)
}

type updateCycleRequest struct {
	StartDay         int     `json:"start_day" validate:"required,min=1,max=31"`
	NextOverrideDate *string `json:"next_override_date"`
}

// UpdateBillingCycle updates the user's start day and optional override date
func (h *Handler) UpdateBillingCycle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req updateCycleRequest
	if !h.decode(w, r, &req) {
		return
	}

	var override *time.Time
	if req.NextOverrideDate != nil {
		parsed, err := time.Parse(dateLayout, *req.NextOverrideDate)
		if err != nil {
			http.Error(w, "next_override_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		override = &parsed
	}

	cfg, err := h.svc.UpdateCycleConfig(userID, req.StartDay, override)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cfg)
}

type createLoanRequest struct {
	Name                 string          `json:"name" validate:"required"`
	OriginalAmount       decimal.Decimal `json:"original_amount"`
	AnnualRate           decimal.Decimal `json:"annual_rate"`
	TotalInstallments    int             `json:"total_installments" validate:"required,min=1"`
	BaseInstallmentsPaid int             `json:"base_installments_paid" validate:"min=0"`
	StartDate            string          `json:"start_date" validate:"required"`
	PaymentDay           int             `json:"payment_day" validate:"required,min=1,max=31"`
}

// CreateLoan creates a loan with its derived monthly payment
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	loan, err := h.svc.CreateLoan(userID, req.Name, req.OriginalAmount, req.AnnualRate,
		req.TotalInstallments, req.BaseInstallmentsPaid, req.PaymentDay, startDate)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, loan)
}

// LoanSchedule returns the amortization schedule with derived paid flags
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	loanID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	schedule, err := h.svc.LoanSchedule(userID, loanID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"schedule": schedule})
}

// LoanProgress returns the derived progress snapshot for a loan
func (h *Handler) LoanProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	loanID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	progress, err := h.svc.LoanProgress(userID, loanID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, progress)
}

type createCardRequest struct {
	Name                 string          `json:"name" validate:"required"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	RevolvingDebt        decimal.Decimal `json:"revolving_debt"`
	StatementDay         int             `json:"statement_day" validate:"required,min=1,max=31"`
	PaymentDueOffsetDays int             `json:"payment_due_offset_days" validate:"min=0"`
	TEA                  decimal.Decimal `json:"tea"`
}

// CreateCard creates a credit card
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.svc.CreateCard(&models.CreditCard{
		UserID:               userID,
		Name:                 req.Name,
		CreditLimit:          req.CreditLimit,
		CurrentBalance:       req.CurrentBalance,
		RevolvingDebt:        req.RevolvingDebt,
		StatementDay:         req.StatementDay,
		PaymentDueOffsetDays: req.PaymentDueOffsetDays,
		TEA:                  req.TEA,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, card)
}

// CardTimeline returns the statement cycle timeline for a card
func (h *Handler) CardTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	cardID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	ref, ok := h.queryDate(w, r)
	if !ok {
		return
	}

	timeline, err := h.svc.CardTimeline(userID, cardID, ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, timeline)
}

type purchaseAdviceRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	Installments       int             `json:"installments" validate:"min=0"`
	ExpectsFullPayment *bool           `json:"expects_full_payment"`
	Date               *string         `json:"date"`
}

// PurchaseAdvice compares revolving versus installment financing
func (h *Handler) PurchaseAdvice(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	cardID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req purchaseAdviceRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref := time.Now()
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		ref = parsed
	}

	// Unless the caller says otherwise, assume the purchase gets paid in
	// full within the cycle.
	expectsFull := true
	if req.ExpectsFullPayment != nil {
		expectsFull = *req.ExpectsFullPayment
	}

	advice, err := h.svc.PurchaseAdvice(userID, cardID, req.Amount, req.Installments, expectsFull, ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, advice)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return parsed, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidConfiguration), errors.Is(err, engine.ErrInvalidLoanParameters):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, engine.ErrScheduleImbalance):
		h.log.Errorf("Schedule consistency violation: %v", err)
		http.Error(w, "Internal calculation error", http.StatusInternalServerError)
	default:
		h.log.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
