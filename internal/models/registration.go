package models

import "time"

// Registration links a teacher to a student it may address. At most one
// registration exists per (teacher, student) pair.
type Registration struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
