package dto

// RegisterStudentsRequest registers one or more students under a teacher.
type RegisterStudentsRequest struct {
	Teacher  string   `json:"teacher" validate:"required,mailbox"`
	Students []string `json:"students" validate:"required,min=1,dive,required,mailbox"`
}

// CommonStudentsQuery lists the teachers whose shared students are requested.
type CommonStudentsQuery struct {
	Teachers []string `form:"teacher" validate:"required,min=1,dive,required,mailbox"`
}

// CommonStudentsResponse contains the students registered to every requested teacher.
type CommonStudentsResponse struct {
	Students []string `json:"students"`
}

// SuspendStudentRequest suspends a single student.
type SuspendStudentRequest struct {
	Student string `json:"student" validate:"required,mailbox"`
}

// NotificationRequest asks for the recipients of a teacher's notification.
type NotificationRequest struct {
	Teacher      string `json:"teacher" validate:"required,mailbox"`
	Notification string `json:"notification" validate:"required"`
}

// NotificationRecipientsResponse lists who receives a notification.
type NotificationRecipientsResponse struct {
	Recipients []string `json:"recipients"`
}
