package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmelgar/fintrack/internal/models"
)

// ErrNotFound is returned when a requested record does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO fintrack.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM fintrack.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetCycleConfig retrieves a user's billing cycle configuration
func (r *Repository) GetCycleConfig(userID int64) (*models.CycleConfig, error) {
	cfg := &models.CycleConfig{}
	query := `
		SELECT user_id, start_day, next_override_date, updated_at
		FROM fintrack.cycle_configs
		WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).
		Scan(&cfg.UserID, &cfg.StartDay, &cfg.NextOverrideDate, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle config: %w", err)
	}
	return cfg, nil
}

// SaveCycleConfig inserts or updates a user's billing cycle configuration
func (r *Repository) SaveCycleConfig(cfg *models.CycleConfig) error {
	query := `
		INSERT INTO fintrack.cycle_configs (user_id, start_day, next_override_date, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
		SET start_day = EXCLUDED.start_day,
		    next_override_date = EXCLUDED.next_override_date,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at`
	err := r.db.QueryRow(query, cfg.UserID, cfg.StartDay, cfg.NextOverrideDate).
		Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save cycle config: %w", err)
	}
	return nil
}

// ClearCycleOverride removes a consumed override date
func (r *Repository) ClearCycleOverride(userID int64) error {
	query := `
		UPDATE fintrack.cycle_configs
		SET next_override_date = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1`
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to clear cycle override: %w", err)
	}
	return nil
}

// CreateLoan creates a new loan in the database
func (r *Repository) CreateLoan(loan *models.Loan) error {
	query := `
		INSERT INTO fintrack.loans (user_id, name, original_amount, annual_rate,
			total_installments, base_installments_paid, start_date, payment_day,
			monthly_payment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		loan.UserID, loan.Name, loan.OriginalAmount, loan.AnnualRate,
		loan.TotalInstallments, loan.BaseInstallmentsPaid, loan.StartDate,
		loan.PaymentDay, loan.MonthlyPayment).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan owned by the given user
func (r *Repository) FindLoanByID(id, userID int64) (*models.Loan, error) {
	loan := &models.Loan{}
	query := `
		SELECT id, user_id, name, original_amount, annual_rate, total_installments,
			base_installments_paid, start_date, payment_day, monthly_payment,
			created_at, updated_at
		FROM fintrack.loans
		WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, id, userID).
		Scan(&loan.ID, &loan.UserID, &loan.Name, &loan.OriginalAmount, &loan.AnnualRate,
			&loan.TotalInstallments, &loan.BaseInstallmentsPaid, &loan.StartDate,
			&loan.PaymentDay, &loan.MonthlyPayment, &loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// CountLinkedPayments counts the payment transactions linked to a loan
func (r *Repository) CountLinkedPayments(loanID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM fintrack.transactions
		WHERE linked_loan_id = $1`
	if err := r.db.QueryRow(query, loanID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count linked payments: %w", err)
	}
	return count, nil
}

// CreateCard creates a new credit card in the database
func (r *Repository) CreateCard(card *models.CreditCard) error {
	query := `
		INSERT INTO fintrack.credit_cards (user_id, name, credit_limit, current_balance,
			revolving_debt, statement_day, payment_due_offset_days, tea,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		card.UserID, card.Name, card.CreditLimit, card.CurrentBalance,
		card.RevolvingDebt, card.StatementDay, card.PaymentDueOffsetDays, card.TEA).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCardByID retrieves a credit card owned by the given user
func (r *Repository) FindCardByID(id, userID int64) (*models.CreditCard, error) {
	card := &models.CreditCard{}
	query := `
		SELECT id, user_id, name, credit_limit, current_balance, revolving_debt,
			statement_day, payment_due_offset_days, tea, created_at, updated_at
		FROM fintrack.credit_cards
		WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, id, userID).
		Scan(&card.ID, &card.UserID, &card.Name, &card.CreditLimit, &card.CurrentBalance,
			&card.RevolvingDebt, &card.StatementDay, &card.PaymentDueOffsetDays,
			&card.TEA, &card.CreatedAt, &card.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// ListLoansWithOwners retrieves all loans joined with their owner's contact
// details, for the payment reminder job
func (r *Repository) ListLoansWithOwners() ([]models.LoanWithOwner, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.original_amount, l.annual_rate,
			l.total_installments, l.base_installments_paid, l.start_date,
			l.payment_day, l.monthly_payment, l.created_at, l.updated_at,
			u.email, u.username
		FROM fintrack.loans l
		JOIN fintrack.users u ON u.id = l.user_id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var out []models.LoanWithOwner
	for rows.Next() {
		var lo models.LoanWithOwner
		if err := rows.Scan(&lo.Loan.ID, &lo.Loan.UserID, &lo.Loan.Name,
			&lo.Loan.OriginalAmount, &lo.Loan.AnnualRate, &lo.Loan.TotalInstallments,
			&lo.Loan.BaseInstallmentsPaid, &lo.Loan.StartDate, &lo.Loan.PaymentDay,
			&lo.Loan.MonthlyPayment, &lo.Loan.CreatedAt, &lo.Loan.UpdatedAt,
			&lo.Email, &lo.Username); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		out = append(out, lo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}
	return out, nil
}
