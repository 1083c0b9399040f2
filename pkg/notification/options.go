package notification

import (
	"embed"
	"log/slog"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithSMTP adds an email notifier with the provided SMTP configuration
func WithSMTP(config SMTPConfig) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		nm.RegisterNotifier(EmailSystem, emailNotifier)
		return nil
	}
}

// WithPasswordResetTemplate registers the password reset template
func WithPasswordResetTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{
			Subject: "Password Reset Request",
			Html:    loadTemplate("templates/email/password_reset.html"),
		})
	}
}

// WithEmailConfirmationTemplate registers the email confirmation template
func WithEmailConfirmationTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailConfirmationNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirm Your Email Address",
			Html:    loadTemplate("templates/email/email_confirmation.html"),
		})
	}
}

// WithEmailChangeConfirmationTemplate registers the template sent to the
// new address when a profile edit changes the email
func WithEmailChangeConfirmationTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailChangeConfirmationNotice, EmailSystem, NoticeTemplate{
			Subject: "Confirm Your New Email Address",
			Html:    loadTemplate("templates/email/email_change_confirmation.html"),
		})
	}
}

// WithEmailChangeNoticeTemplate registers the template sent to the
// previous address after an email change is confirmed
func WithEmailChangeNoticeTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(EmailChangeNotice, EmailSystem, NoticeTemplate{
			Subject: "Your Email Address Was Changed",
			Html:    loadTemplate("templates/email/email_change_notice.html"),
		})
	}
}

// WithDefaultTemplates registers all default notice templates
func WithDefaultTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithPasswordResetTemplate(),
			WithEmailConfirmationTemplate(),
			WithEmailChangeConfirmationTemplate(),
			WithEmailChangeNoticeTemplate(),
		}

		for _, opt := range options {
			if err := opt(nm); err != nil {
				return err
			}
		}

		return nil
	}
}

// NewNotificationManagerWithOptions creates a new notification manager with the provided options
func NewNotificationManagerWithOptions(opts ...NotificationManagerOption) (*NotificationManager, error) {
	notificationManager := NewNotificationManager()

	for _, opt := range opts {
		if err := opt(notificationManager); err != nil {
			return nil, err
		}
	}

	return notificationManager, nil
}
