package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		BaseURL:      "https://dev.azure.com/contoso/",
		PAT:          "secret",
		Project:      "Shop",
		Team:         "Checkout",
		Precision:    DefaultPrecision,
		Workers:      DefaultWorkers,
		ParentDepth:  DefaultParentDepth,
		CacheBackend: string(schema.SQLiteBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", modify: func(*ConfigRawInput) {}},
		{name: "missing base url", modify: func(in *ConfigRawInput) { in.BaseURL = "" }, expectError: "base-url is required"},
		{name: "base url without scheme", modify: func(in *ConfigRawInput) { in.BaseURL = "dev.azure.com/contoso" }, expectError: "invalid base-url"},
		{name: "missing pat", modify: func(in *ConfigRawInput) { in.PAT = " " }, expectError: "pat is required"},
		{name: "missing team", modify: func(in *ConfigRawInput) { in.Team = "" }, expectError: "project and team"},
		{name: "bad timeout", modify: func(in *ConfigRawInput) { in.Timeout = "soon" }, expectError: "invalid timeout"},
		{name: "bad output", modify: func(in *ConfigRawInput) { in.Output = "pdf" }, expectError: "invalid output format"},
		{name: "bad precision", modify: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: "precision"},
		{name: "zero workers", modify: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: "workers"},
		{name: "deep parents", modify: func(in *ConfigRawInput) { in.ParentDepth = 11 }, expectError: "parent-depth"},
		{name: "bad color", modify: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "--color"},
		{name: "bad log level", modify: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: "log-level"},
		{name: "bad log format", modify: func(in *ConfigRawInput) { in.LogFormat = "xml" }, expectError: "log-format"},
		{name: "bad cache backend", modify: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: "invalid cache backend"},
		{name: "bad cache ttl", modify: func(in *ConfigRawInput) { in.CacheTTL = "-1h" }, expectError: "cache-ttl"},
		{name: "bad history backend", modify: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: "invalid history backend"},
		{name: "mysql without connection", modify: func(in *ConfigRawInput) { in.HistoryBackend = "mysql" }, expectError: "connection string is required"},
		{name: "bad attribution", modify: func(in *ConfigRawInput) { in.Attribution = "whoever" }, expectError: "invalid attribution"},
		{name: "negative take", modify: func(in *ConfigRawInput) { in.Take = -1 }, expectError: "take"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.modify(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, "https://dev.azure.com/contoso", cfg.BaseURL)
	assert.Equal(t, schema.ScopeContext{Project: "Shop", Team: "Checkout"}, cfg.Scope)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, schema.TableOut, cfg.Output)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Empty(t, cfg.HistoryBackend)
	assert.Equal(t, []string{"Task", "Bug"}, cfg.WorkItemTypes)
	assert.Equal(t, schema.ChangedByAssignedTo, cfg.Attribution)
	assert.Equal(t, DefaultTake, cfg.Take)
}

func TestProcessAndValidate_CommandInputs(t *testing.T) {
	input := validInput()
	input.WorkItemTypes = "Task&Bug&User Story"
	input.Attribution = "Changed-By"
	input.GroupByTags = "Committed, Spike,,"
	input.TagFilters = "!Spike"
	input.Tags = "frontend,backend"
	input.Take = 4
	input.Timeout = "5s"
	input.CacheTTL = "15m"
	input.Color = "no"
	input.Output = "JSON"
	input.PriorityOrder = "Priority - Escalation - R&D, Priority - Release 5,"
	input.SkipStatistics = true

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []string{"Task", "Bug", "User Story"}, cfg.WorkItemTypes)
	assert.Equal(t, schema.ChangedBy, cfg.Attribution)
	assert.Equal(t, []string{"Committed", "Spike"}, cfg.GroupByTags)
	assert.Equal(t, []string{"!Spike"}, cfg.TagFilters)
	assert.Equal(t, []string{"frontend", "backend"}, cfg.Tags)
	assert.Equal(t, 4, cfg.Take)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, []string{"Priority - Escalation - R&D", "Priority - Release 5"}, cfg.PriorityOrder)
	assert.True(t, cfg.SkipStatistics)
}

func TestValidateStoreInputs_SameSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	input := &ConfigRawInput{
		CacheBackend:     "sqlite",
		CacheDBConnect:   path,
		HistoryBackend:   "sqlite",
		HistoryDBConnect: path,
	}
	err := ValidateStoreInputs(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different SQLite database files")

	input.HistoryDBConnect = filepath.Join(t.TempDir(), "history.db")
	assert.NoError(t, ValidateStoreInputs(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite ignores connection", schema.SQLiteBackend, "", false},
		{"none ignores connection", schema.NoneBackend, "", false},
		{"valid mysql", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/popilot", false},
		{"mysql without tcp", schema.MySQLBackend, "user:pass@localhost/popilot", true},
		{"valid postgres", schema.PostgreSQLBackend, "host=localhost dbname=popilot", false},
		{"postgres without dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{GroupByTags: []string{"a"}, Tags: []string{"x"}, PriorityOrder: []string{"p"}}
	clone := cfg.Clone()
	clone.GroupByTags[0] = "b"
	clone.Tags = append(clone.Tags, "y")
	clone.PriorityOrder[0] = "q"
	assert.Equal(t, []string{"a"}, cfg.GroupByTags)
	assert.Equal(t, []string{"x"}, cfg.Tags)
	assert.Equal(t, []string{"p"}, cfg.PriorityOrder)
}

func TestRevalidateCapacities(t *testing.T) {
	cfg := &Config{WorkItemTypes: []string{"Task"}, Attribution: schema.ChangedByAssignedTo}

	require.NoError(t, RevalidateCapacities(cfg, "", ""))
	assert.Equal(t, []string{"Task"}, cfg.WorkItemTypes)
	assert.Equal(t, schema.ChangedByAssignedTo, cfg.Attribution)

	require.NoError(t, RevalidateCapacities(cfg, "Task, Bug", "Assigned-To"))
	assert.Equal(t, []string{"Task", "Bug"}, cfg.WorkItemTypes)
	assert.Equal(t, schema.AssignedTo, cfg.Attribution)

	err := RevalidateCapacities(cfg, "", "whoever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid attribution")
}

func TestRevalidateVelocity(t *testing.T) {
	cfg := &Config{Take: DefaultTake}
	require.NoError(t, RevalidateVelocity(cfg, 0))
	assert.Equal(t, DefaultTake, cfg.Take)
	require.NoError(t, RevalidateVelocity(cfg, 3))
	assert.Equal(t, 3, cfg.Take)
	assert.Error(t, RevalidateVelocity(cfg, -1))
}
