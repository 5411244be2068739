package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: ""},
		Redis:      RedisConfig{Dns: "localhost:6379"},
	}
	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}

	cnf = Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost:5432"},
		Redis:      RedisConfig{Dns: ""},
	}
	err = cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "redis DNS is required" {
		t.Errorf("Expected redis DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "Test Project",
		DataSource:  DataSourceConfig{Dns: "some-dns"},
		Redis:       RedisConfig{Dns: "localhost:6379"},
		SMTP:        SMTPConfig{Username: "sales@example.com"},
	}
	err = cnf.validateAndAddDefaults()
	require.NoError(t, err)

	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, DEFAULT_COOLDOWN_HOURS, cnf.Outreach.CooldownHours)
	assert.Equal(t, DEFAULT_BATCH_LIMIT, cnf.Outreach.BatchLimit)
	assert.Equal(t, DEFAULT_COMPOSER_MODEL, cnf.Composer.Model)
	assert.Equal(t, DEFAULT_SMTP_PORT, cnf.SMTP.Port)
	assert.Equal(t, "sales@example.com", cnf.SMTP.From)
	assert.Equal(t, DEFAULT_WEBHOOK_QUEUE, cnf.Queue.WebhookQueue)
	assert.Equal(t, "http://localhost:"+DEFAULT_PORT, cnf.Outreach.ConfirmationBaseURL)
	assert.Nil(t, cnf.RateLimit.RequestsPerSecond)
}

func TestValidateAndAddDefaults_TrimsConfirmationBaseURL(t *testing.T) {
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: "some-dns"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		Outreach:   OutreachConfig{ConfirmationBaseURL: " https://reachout.example.com/ "},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, "https://reachout.example.com", cnf.Outreach.ConfirmationBaseURL)
}

func TestValidateAndAddDefaults_RateLimit(t *testing.T) {
	rps := 5.0
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: "some-dns"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		RateLimit:  RateLimitConfig{RequestsPerSecond: &rps},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	require.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 10, *cnf.RateLimit.Burst)
	assert.Equal(t, 10800, *cnf.RateLimit.CleanupIntervalSec)
}

func TestOutreachConfig_Durations(t *testing.T) {
	assert.Equal(t, 48*time.Hour, OutreachConfig{}.Cooldown())
	assert.Equal(t, 24*time.Hour, OutreachConfig{CooldownHours: 24}.Cooldown())
	assert.Equal(t, time.Duration(0), OutreachConfig{}.ApprovalTimeout())
	assert.Equal(t, 90*time.Second, OutreachConfig{ApprovalTimeoutSec: 90}.ApprovalTimeout())
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "reachout.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource:  DataSourceConfig{Dns: "temp-dns"},
		Redis:       RedisConfig{Dns: "temp-redis"},
		Outreach:    OutreachConfig{BatchLimit: 5},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("REACHOUT_PROJECT_NAME", "Env Project")
	defer os.Unsetenv("REACHOUT_PROJECT_NAME")

	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile failed: %v", err)
	}

	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	assert.Equal(t, "Env Project", loadedConfig.ProjectName)
	assert.Equal(t, "temp-dns", loadedConfig.DataSource.Dns)
	assert.Equal(t, 5, loadedConfig.Outreach.BatchLimit)
}

func TestInitConfig(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "reachout.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	sampleConfig := Configuration{
		ProjectName: "InitConfig Test",
		DataSource:  DataSourceConfig{Dns: "init-config-dns"},
		Redis:       RedisConfig{Dns: "localhost:6379"},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close()

	if err := InitConfig(tmpFile.Name()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	assert.Equal(t, "InitConfig Test", loadedConfig.ProjectName)
	assert.Equal(t, "init-config-dns", loadedConfig.DataSource.Dns)
}
