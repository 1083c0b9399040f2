package notification

// NotificationSystem represents a delivery channel (e.g., email, SMS).
type NotificationSystem string

// NoticeType represents a kind of notice (e.g., "password_reset").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// PasswordResetNotice carries password reset instructions.
	PasswordResetNotice NoticeType = "password_reset"

	// EmailConfirmationNotice asks the recipient to prove control of a
	// pending email address.
	EmailConfirmationNotice NoticeType = "email_confirmation"

	// EmailChangeConfirmationNotice is sent to the NEW address when a
	// profile edit changes the email.
	EmailChangeConfirmationNotice NoticeType = "email_change_confirmation"

	// EmailChangeNotice informs the PREVIOUS address that it has been
	// replaced after a change confirmation succeeds.
	EmailChangeNotice NoticeType = "email_change_notice"
)

// NotificationData is the payload handed to a notifier.
type NotificationData struct {
	To      string            // Recipient identifier (e.g., email address)
	Subject string            // Optional subject override
	Data    map[string]string // Template data
}

// NoticeTemplate holds the rendered-from templates for one notice.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a notice over one system.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
