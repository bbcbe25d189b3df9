package models

import "time"

// Student is identified by its lower-cased email address. Suspended students
// are excluded from notification recipients.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Suspended bool      `db:"suspended" json:"suspended"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentEmails projects students onto their email addresses, preserving order.
func StudentEmails(students []Student) []string {
	emails := make([]string, 0, len(students))
	for _, s := range students {
		emails = append(emails, s.Email)
	}
	return emails
}
