package model

// NotificationTemplate names a transactional email.
type NotificationTemplate string

const (
	TemplateStaffInvite    NotificationTemplate = "staff_invite"
	TemplateDoctorVerified NotificationTemplate = "doctor_verified"
)

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EmailMessage is handed to the mailer as-is.
type EmailMessage struct {
	Template NotificationTemplate `json:"template"`
	To       string               `json:"to"`
	From     EmailAddress         `json:"from"`
	Subject  string               `json:"subject"`
	HTML     string               `json:"html"`
}
