// Package mail sends finished HTML email over SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"os"
)

// Config holds configuration for sending emails via SMTP.
type Config struct {
	SMTPHost  string
	SMTPPort  string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Send sends an HTML email.
func Send(config Config, toEmail, subject, htmlBody string) error {
	message := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		config.FromName, config.FromEmail,
		toEmail,
		subject,
		htmlBody,
	)

	auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPHost)

	return smtp.SendMail(
		config.SMTPHost+":"+config.SMTPPort,
		auth,
		config.FromEmail,
		[]string{toEmail},
		[]byte(message),
	)
}

// ConfigFromEnv returns a Config built from SMTP_* environment variables,
// defaulting to Gmail's submission endpoint.
func ConfigFromEnv() Config {
	cfg := Config{
		SMTPHost:  envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  envOr("SMTP_PORT", "587"),
		Username:  os.Getenv("SMTP_USERNAME"),
		Password:  os.Getenv("SMTP_PASSWORD"),
		FromEmail: os.Getenv("SMTP_FROM"),
		FromName:  envOr("SMTP_FROM_NAME", "EmailForge"),
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
