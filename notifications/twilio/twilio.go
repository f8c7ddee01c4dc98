// Package twilio provides a Twilio-based implementation of the
// NotificationService interface for sending SMS receipts.
package twilio

import (
	"context"
	"fmt"
	"os"

	"github.com/Zrodkin/ShulPadServer-sub001/notifications"
	t "github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	AccountSidEnv = "TWILIO_ACCOUNT_SID"
	AuthTokenEnv  = "TWILIO_AUTH_TOKEN"
)

// Config represents the configuration for the Twilio SMS service. It
// contains the account SID, the auth token and the number from which the SMS
// will be sent.
type Config struct {
	AccountSid string
	AuthToken  string
	FromNumber string
}

// SMS is the implementation of the NotificationService interface for the
// Twilio SMS service. It contains the configuration and the Twilio REST
// client.
type SMS struct {
	config *Config
	client *t.RestClient
}

// New initializes the Twilio SMS service with the configuration. It sets the
// account SID and the auth token as environment variables and initializes the
// Twilio REST client.
// Read more here: https://www.twilio.com/docs/messaging/quickstart/go
func (sms *SMS) New(rawConfig any) error {
	config, ok := rawConfig.(*Config)
	if !ok {
		return fmt.Errorf("invalid Twilio configuration")
	}
	sms.config = config
	if err := os.Setenv(AccountSidEnv, sms.config.AccountSid); err != nil {
		return err
	}
	if err := os.Setenv(AuthTokenEnv, sms.config.AuthToken); err != nil {
		return err
	}
	sms.client = t.NewRestClient()
	return nil
}

// SendNotification sends an SMS notification to the recipient number. It
// returns an error if the message could not be sent or if the context is
// done.
func (sms *SMS) SendNotification(ctx context.Context, notification *notifications.Notification) error {
	params := &api.CreateMessageParams{}
	params.SetTo(notification.ToNumber)
	params.SetFrom(sms.config.FromNumber)
	params.SetBody(notification.Body)
	errCh := make(chan error, 1)
	go func() {
		_, err := sms.client.Api.CreateMessage(params)
		errCh <- err
		close(errCh)
	}()
	// wait for the message to be sent or the context to be done
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
