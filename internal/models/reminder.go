package models

// LoanWithOwner pairs a loan with the contact details the reminder job
// needs to address the owner.
type LoanWithOwner struct {
	Loan     Loan
	Email    string
	Username string
}
