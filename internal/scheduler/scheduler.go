package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/config"
	"github.com/dmelgar/fintrack/internal/engine"
	"github.com/dmelgar/fintrack/internal/models"
)

// Repository is the persistence surface the reminder job needs.
type Repository interface {
	ListLoansWithOwners() ([]models.LoanWithOwner, error)
	CountLinkedPayments(loanID int64) (int, error)
}

// ReminderSender delivers payment reminders.
type ReminderSender interface {
	SendPaymentReminder(to, username, loanName string, paymentDate time.Time, amount decimal.Decimal, isOverdue bool) error
}

// Scheduler runs the daily loan payment reminder job.
type Scheduler struct {
	cron   *cron.Cron
	repo   Repository
	sender ReminderSender
	log    *logrus.Logger
	cfg    *config.Config
}

// New creates a scheduler with the reminder job registered but not started
func New(repo Repository, sender ReminderSender, log *logrus.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		repo:   repo,
		sender: sender,
		log:    log,
		cfg:    cfg,
	}
}

// Start registers the cron entry and begins scheduling
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReminderCron, func() {
		s.runReminders(time.Now())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infof("Reminder scheduler started: %s", s.cfg.ReminderCron)
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runReminders finds each loan's next unpaid installment and emails the
// owner when it is overdue or due within the configured window. The next
// installment is derived from the schedule on every run, never cached.
func (s *Scheduler) runReminders(now time.Time) {
	loans, err := s.repo.ListLoansWithOwners()
	if err != nil {
		s.log.Errorf("Reminder job failed to list loans: %v", err)
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, lo := range loans {
		loan := lo.Loan
		schedule, err := engine.BuildSchedule(engine.LoanParams{
			Principal:     loan.OriginalAmount,
			AnnualRatePct: loan.AnnualRate,
			Installments:  loan.TotalInstallments,
			StartDate:     loan.StartDate,
			PaymentDay:    loan.PaymentDay,
		})
		if err != nil {
			s.log.Errorf("Reminder job failed to build schedule for loan %d: %v", loan.ID, err)
			continue
		}

		linked, err := s.repo.CountLinkedPayments(loan.ID)
		if err != nil {
			s.log.Errorf("Reminder job failed to count payments for loan %d: %v", loan.ID, err)
			continue
		}

		progress := engine.LoanProgress(loan.OriginalAmount, loan.TotalInstallments, loan.BaseInstallmentsPaid, linked, schedule)
		if progress.CurrentInstallment >= loan.TotalInstallments {
			continue
		}

		next := schedule[progress.CurrentInstallment]
		daysUntilDue := int(next.PaymentDate.Sub(today).Hours() / 24)
		overdue := daysUntilDue < 0
		if !overdue && daysUntilDue > s.cfg.ReminderDaysAhead {
			continue
		}

		if err := s.sender.SendPaymentReminder(lo.Email, lo.Username, loan.Name, next.PaymentDate, next.PaymentAmount, overdue); err != nil {
			s.log.Errorf("Reminder job failed to notify user %d: %v", loan.UserID, err)
		}
	}
}
