package config

import (
	"github.com/zeromicro/go-zero/core/service"

	"github.com/emailforge/emailforge/pkg/validate"
)

// Config holds the daemon configuration.
type Config struct {
	service.ServiceConf

	Database DatabaseConfig  `json:",optional"`
	Queue    QueueConfig     `json:",optional"`
	Delivery DeliveryConfig  `json:",optional"`
	SMTP     SMTPConfig      `json:",optional"`
	Policy   validate.Policy `json:",optional"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `json:",default=./.data/emailforge.db"`
}

// QueueConfig holds outbound queue settings.
type QueueConfig struct {
	Name    string `json:",default=outbound"`
	Workers int    `json:",default=4"`
}

// DeliveryConfig holds email delivery settings.
type DeliveryConfig struct {
	MaxRetries   int    `json:",default=3"`
	RetryBackoff string `json:",default=5m"`
	MaxBackoff   string `json:",default=4h"`
	RateLimit    int    `json:",default=60"`
	MinQuality   int    `json:",default=70"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host      string `json:",default=smtp.gmail.com"`
	Port      string `json:",default=587"`
	Username  string `json:",optional"`
	Password  string `json:",optional"`
	FromEmail string `json:",optional"`
	FromName  string `json:",default=EmailForge"`
}
