// Package notifications defines the notification service interface used to
// deliver donation receipts by email or SMS.
package notifications

import "context"

// Notification is a message to deliver to a donor or an organization admin.
type Notification struct {
	ToName    string
	ToAddress string
	ToNumber  string
	Subject   string
	Body      string
	PlainBody string
}

// NotificationService is implemented by each delivery channel (SMTP, SMS).
type NotificationService interface {
	New(conf any) error
	SendNotification(context.Context, *Notification) error
}
