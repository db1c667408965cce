package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmelgar/fintrack/internal/config"
	"github.com/dmelgar/fintrack/internal/engine"
	"github.com/dmelgar/fintrack/internal/models"
	"github.com/dmelgar/fintrack/internal/repository"
)

// Repository is the persistence surface the service depends on.
type Repository interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	GetCycleConfig(userID int64) (*models.CycleConfig, error)
	SaveCycleConfig(cfg *models.CycleConfig) error
	ClearCycleOverride(userID int64) error
	CreateLoan(loan *models.Loan) error
	FindLoanByID(id, userID int64) (*models.Loan, error)
	CountLinkedPayments(loanID int64) (int, error)
	CreateCard(card *models.CreditCard) error
	FindCardByID(id, userID int64) (*models.CreditCard, error)
}

// ErrNotFound is forwarded to handlers for missing or foreign records.
var ErrNotFound = repository.ErrNotFound

// defaultCycleStartDay applies when a user never configured a custom cycle.
const defaultCycleStartDay = 1

// Service handles business logic
type Service struct {
	repo   Repository
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(repo Repository, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, log: log, config: cfg}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// ResolveCycle computes the billing cycle window containing the reference
// date for the given user. When a stored override date starts the resolved
// window, the override has been consumed and is cleared from storage.
func (s *Service) ResolveCycle(userID int64, referenceDate time.Time) (engine.CycleWindow, error) {
	cfg, err := s.cycleConfig(userID)
	if err != nil {
		return engine.CycleWindow{}, err
	}

	window, err := engine.ResolveCycle(engine.BillingCycleConfig{
		StartDay:         cfg.StartDay,
		NextOverrideDate: cfg.NextOverrideDate,
	}, referenceDate)
	if err != nil {
		return engine.CycleWindow{}, err
	}

	if cfg.NextOverrideDate != nil && window.StartDate.Equal(*cfg.NextOverrideDate) {
		if err := s.repo.ClearCycleOverride(userID); err != nil {
			return engine.CycleWindow{}, err
		}
		s.log.Infof("Cycle override %s consumed for user %d", cfg.NextOverrideDate.Format("2006-01-02"), userID)
	}

	return window, nil
}

// UpdateCycleConfig validates and persists a billing cycle change
func (s *Service) UpdateCycleConfig(userID int64, startDay int, override *time.Time) (*models.CycleConfig, error) {
	current := engine.BillingCycleConfig{StartDay: defaultCycleStartDay}
	if cfg, err := s.cycleConfig(userID); err == nil {
		current.StartDay = cfg.StartDay
		current.NextOverrideDate = cfg.NextOverrideDate
	}

	updated, err := engine.UpdateCycleConfig(current, startDay, override)
	if err != nil {
		return nil, err
	}

	cfg := &models.CycleConfig{
		UserID:           userID,
		StartDay:         updated.StartDay,
		NextOverrideDate: updated.NextOverrideDate,
	}
	if err := s.repo.SaveCycleConfig(cfg); err != nil {
		return nil, err
	}

	s.log.Infof("Cycle config updated for user %d: start day %d", userID, cfg.StartDay)
	return cfg, nil
}

// CreateLoan derives the constant monthly payment and persists the loan
func (s *Service) CreateLoan(userID int64, name string, amount, annualRate decimal.Decimal, installments, basePaid, paymentDay int, startDate time.Time) (*models.Loan, error) {
	schedule, err := engine.BuildSchedule(engine.LoanParams{
		Principal:     amount,
		AnnualRatePct: annualRate,
		Installments:  installments,
		StartDate:     startDate,
		PaymentDay:    paymentDay,
	})
	if err != nil {
		return nil, err
	}

	if basePaid < 0 {
		return nil, fmt.Errorf("%w: base installments paid must not be negative, got %d", engine.ErrInvalidLoanParameters, basePaid)
	}

	loan := &models.Loan{
		UserID:               userID,
		Name:                 name,
		OriginalAmount:       amount,
		AnnualRate:           annualRate,
		TotalInstallments:    installments,
		BaseInstallmentsPaid: basePaid,
		StartDate:            startDate,
		PaymentDay:           paymentDay,
		MonthlyPayment:       schedule[0].PaymentAmount,
	}
	if err := s.repo.CreateLoan(loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan created for user %d: %s over %d installments", userID, amount, installments)
	return loan, nil
}

// LoanSchedule rebuilds a loan's amortization schedule with per-row paid
// status derived from the current installment
func (s *Service) LoanSchedule(userID, loanID int64) ([]engine.AmortizationRow, error) {
	_, schedule, progress, err := s.loanState(userID, loanID)
	if err != nil {
		return nil, err
	}
	engine.MarkPaid(schedule, progress.CurrentInstallment)
	return schedule, nil
}

// LoanProgress derives a loan's current position from the attested base
// count plus the count of linked payment transactions
func (s *Service) LoanProgress(userID, loanID int64) (engine.ProgressSnapshot, error) {
	_, _, progress, err := s.loanState(userID, loanID)
	return progress, err
}

// CreateCard persists a new credit card
func (s *Service) CreateCard(card *models.CreditCard) (*models.CreditCard, error) {
	if card.StatementDay < 1 || card.StatementDay > 31 {
		return nil, fmt.Errorf("%w: statement day %d outside [1,31]", engine.ErrInvalidConfiguration, card.StatementDay)
	}
	if err := s.repo.CreateCard(card); err != nil {
		return nil, err
	}
	card.AvailableCredit = card.CreditLimit.Sub(card.CurrentBalance)
	s.log.Infof("Credit card created for user %d: %s", card.UserID, card.Name)
	return card, nil
}

// CardTimeline computes the statement cycle timeline for a card
func (s *Service) CardTimeline(userID, cardID int64, referenceDate time.Time) (engine.CycleTimeline, error) {
	card, err := s.repo.FindCardByID(cardID, userID)
	if err != nil {
		return engine.CycleTimeline{}, err
	}
	return engine.Timeline(toEngineCard(card), referenceDate)
}

// PurchaseAdvice compares revolving versus installment financing for a
// prospective purchase on a card
func (s *Service) PurchaseAdvice(userID, cardID int64, amount decimal.Decimal, installments int, expectsFullPayment bool, referenceDate time.Time) (engine.PurchaseAdvice, error) {
	card, err := s.repo.FindCardByID(cardID, userID)
	if err != nil {
		return engine.PurchaseAdvice{}, err
	}

	engineCard := toEngineCard(card)
	timeline, err := engine.Timeline(engineCard, referenceDate)
	if err != nil {
		return engine.PurchaseAdvice{}, err
	}

	policy := engine.DefaultAdvisorPolicy()
	policy.ExpectsFullPayment = expectsFullPayment
	policy.MaxInterestRatioPct = s.config.AdvisorMaxInterestPct

	advice, err := engine.Advise(engineCard, amount, installments, timeline, policy)
	if err != nil {
		return engine.PurchaseAdvice{}, err
	}

	if advice.Error != "" {
		s.log.Infof("Insufficient credit for user %d on card %d: short by %s", userID, cardID, advice.Warning.Details.ShortBy)
	}
	return advice, nil
}

// cycleConfig loads the stored configuration or falls back to the default
// start day for users who never customized their cycle.
func (s *Service) cycleConfig(userID int64) (*models.CycleConfig, error) {
	cfg, err := s.repo.GetCycleConfig(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.CycleConfig{UserID: userID, StartDay: defaultCycleStartDay}, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Service) loanState(userID, loanID int64) (*models.Loan, []engine.AmortizationRow, engine.ProgressSnapshot, error) {
	loan, err := s.repo.FindLoanByID(loanID, userID)
	if err != nil {
		return nil, nil, engine.ProgressSnapshot{}, err
	}

	schedule, err := engine.BuildSchedule(engine.LoanParams{
		Principal:     loan.OriginalAmount,
		AnnualRatePct: loan.AnnualRate,
		Installments:  loan.TotalInstallments,
		StartDate:     loan.StartDate,
		PaymentDay:    loan.PaymentDay,
	})
	if err != nil {
		return nil, nil, engine.ProgressSnapshot{}, err
	}

	linked, err := s.repo.CountLinkedPayments(loan.ID)
	if err != nil {
		return nil, nil, engine.ProgressSnapshot{}, err
	}

	progress := engine.LoanProgress(loan.OriginalAmount, loan.TotalInstallments, loan.BaseInstallmentsPaid, linked, schedule)
	return loan, schedule, progress, nil
}

func toEngineCard(card *models.CreditCard) engine.CreditCard {
	return engine.CreditCard{
		CreditLimit:          card.CreditLimit,
		CurrentBalance:       card.CurrentBalance,
		RevolvingDebt:        card.RevolvingDebt,
		StatementDay:         card.StatementDay,
		PaymentDueOffsetDays: card.PaymentDueOffsetDays,
		TEA:                  card.TEA,
	}
}
