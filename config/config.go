/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT           = "2003"
	DEFAULT_COOLDOWN_HOURS = 48
	DEFAULT_BATCH_LIMIT    = 20
	DEFAULT_COMPOSER_MODEL = "gemini-2.5-flash"
	DEFAULT_SMTP_PORT      = 587
	DEFAULT_WEBHOOK_QUEUE  = "reachout_webhook_queue"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"REACHOUT_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"REACHOUT_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"REACHOUT_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"REACHOUT_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"REACHOUT_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"REACHOUT_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"REACHOUT_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"REACHOUT_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"REACHOUT_REDIS_SKIP_TLS_VERIFY"`
}

// OutreachConfig controls the campaign engine.
type OutreachConfig struct {
	CooldownHours       int    `json:"cooldown_hours" envconfig:"REACHOUT_COOLDOWN_HOURS"`
	BatchLimit          int    `json:"batch_limit" envconfig:"REACHOUT_BATCH_LIMIT"`
	ConfirmationBaseURL string `json:"confirmation_base_url" envconfig:"REACHOUT_CONFIRMATION_BASE_URL"`
	// ApprovalTimeoutSec of zero waits for the operator indefinitely.
	ApprovalTimeoutSec int    `json:"approval_timeout_sec" envconfig:"REACHOUT_APPROVAL_TIMEOUT_SEC"`
	ProspectsFile      string `json:"prospects_file" envconfig:"REACHOUT_PROSPECTS_FILE"`
	LockTTLSec         int    `json:"lock_ttl_sec" envconfig:"REACHOUT_LOCK_TTL_SEC"`
}

type ComposerConfig struct {
	ApiKey     string `json:"api_key" envconfig:"REACHOUT_COMPOSER_API_KEY"`
	Model      string `json:"model" envconfig:"REACHOUT_COMPOSER_MODEL"`
	Endpoint   string `json:"endpoint" envconfig:"REACHOUT_COMPOSER_ENDPOINT"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"REACHOUT_COMPOSER_TIMEOUT_SEC"`
}

type SMTPConfig struct {
	Host     string `json:"host" envconfig:"REACHOUT_SMTP_HOST"`
	Port     int    `json:"port" envconfig:"REACHOUT_SMTP_PORT"`
	Username string `json:"username" envconfig:"REACHOUT_SMTP_USERNAME"`
	Password string `json:"password" envconfig:"REACHOUT_SMTP_PASSWORD"`
	From     string `json:"from" envconfig:"REACHOUT_SMTP_FROM"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"REACHOUT_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"REACHOUT_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"REACHOUT_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type QueueConfig struct {
	WebhookQueue string `json:"webhook_queue" envconfig:"REACHOUT_WEBHOOK_QUEUE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type WebhookConfig struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Webhook WebhookConfig `json:"webhook"`
}

type TracingConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"REACHOUT_TRACING_ENABLED"`
	Endpoint string `json:"endpoint" envconfig:"REACHOUT_TRACING_ENDPOINT"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"REACHOUT_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Outreach     OutreachConfig   `json:"outreach"`
	Composer     ComposerConfig   `json:"composer"`
	SMTP         SMTPConfig       `json:"smtp"`
	Queue        QueueConfig      `json:"queue"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Tracing      TracingConfig    `json:"tracing"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("reachout", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called reachout.json with your config ❌")
	}
	return c, nil
}

// Cooldown is the minimum time between two attempts to the same recipient.
func (o OutreachConfig) Cooldown() time.Duration {
	if o.CooldownHours <= 0 {
		return DEFAULT_COOLDOWN_HOURS * time.Hour
	}
	return time.Duration(o.CooldownHours) * time.Hour
}

// ApprovalTimeout returns zero when the operator may take as long as they like.
func (o OutreachConfig) ApprovalTimeout() time.Duration {
	if o.ApprovalTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(o.ApprovalTimeoutSec) * time.Second
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Reachout"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Outreach.ConfirmationBaseURL = strings.TrimRight(strings.TrimSpace(cnf.Outreach.ConfirmationBaseURL), "/")

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Outreach.ConfirmationBaseURL == "" {
		cnf.Outreach.ConfirmationBaseURL = "http://localhost:" + cnf.Server.Port
		log.Printf("Warning: Confirmation base url not specified. Using %s", cnf.Outreach.ConfirmationBaseURL)
	}

	if cnf.Outreach.CooldownHours <= 0 {
		cnf.Outreach.CooldownHours = DEFAULT_COOLDOWN_HOURS
	}

	if cnf.Outreach.BatchLimit <= 0 {
		cnf.Outreach.BatchLimit = DEFAULT_BATCH_LIMIT
	}

	if cnf.Outreach.LockTTLSec <= 0 {
		cnf.Outreach.LockTTLSec = 30
	}

	if cnf.Composer.Model == "" {
		cnf.Composer.Model = DEFAULT_COMPOSER_MODEL
	}

	if cnf.Composer.TimeoutSec <= 0 {
		cnf.Composer.TimeoutSec = 60
	}

	if cnf.SMTP.Port == 0 {
		cnf.SMTP.Port = DEFAULT_SMTP_PORT
	}

	if cnf.SMTP.From == "" {
		cnf.SMTP.From = cnf.SMTP.Username
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DEFAULT_WEBHOOK_QUEUE
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
