package notification

// MockNotifier records every notification it is asked to send.
type MockNotifier struct {
	SentNotifications []SentNotification
}

// SentNotification is one captured send.
type SentNotification struct {
	Type         NoticeType
	Notification NotificationData
	Template     NoticeTemplate
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	m.SentNotifications = append(m.SentNotifications, SentNotification{
		Type:         noticeType,
		Notification: notification,
		Template:     template,
	})
	return nil
}

// SentOfType returns the captured sends of one notice type.
func (m *MockNotifier) SentOfType(noticeType NoticeType) []SentNotification {
	var out []SentNotification
	for _, s := range m.SentNotifications {
		if s.Type == noticeType {
			out = append(out, s)
		}
	}
	return out
}
