// Package managers handles the sending of verification emails using the Mailgun service
// and the Hermes package for email formatting.
package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"

	"whisperbox/internal/config"
)

// MailMgr is an interface that outlines the contract for email management.
type MailMgr interface {
	SendVerificationMail(email, username, code string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for formatting emails.
type MailManager struct {
	Hermes      *hermes.Hermes
	Mailgun     *mailgun.MailgunImpl
	from        string
	environment string
}

// SendVerificationMail sends the six-digit verification code to a freshly
// registered user. Outside production the send is skipped so local accounts
// can be verified straight from the logs.
func (mm *MailManager) SendVerificationMail(email, username, code string) error {
	if mm.environment != "production" {
		log.Infof("Skipping verification mail in %s mode, code for %s is %s", mm.environment, username, code)
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: username,
			Intros: []string{
				"Welcome to WhisperBox! We're very excited to have you on board.",
				"Your anonymous inbox is almost ready.",
			},
			Outros: []string{
				"If you did not sign up for WhisperBox, you can safely ignore this email.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To verify your account, enter the following code on the verification page:",
					InviteCode:   code,
				},
			},
		},
	}

	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(2*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.from, "Verify your WhisperBox account", "", email)
	message.SetHtml(emailBody)
	if _, _, err = mm.Mailgun.Send(ctx, message); err != nil {
		log.Warning("Error sending verification mail: " + err.Error())
		return fmt.Errorf("sending verification mail: %w", err)
	}
	log.Debug("Verification mail sent to ", email)

	return nil
}

// NewMailManager initializes a new MailManager instance with configured Mailgun and Hermes settings.
func NewMailManager(cfg *config.Config) MailMgr {
	log.Info("Initializing mail manager")

	if cfg.Environment != "production" {
		log.Info("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	return &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      "WhisperBox",
				Link:      "https://whisperbox.app/",
				Copyright: "© WhisperBox",
			},
		},
		Mailgun:     mailgunInstance,
		from:        fmt.Sprintf("WhisperBox <no-reply@%s>", cfg.MailgunDomain),
		environment: cfg.Environment,
	}
}
