package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog"
)

// Default values for configuration.
const (
	DefaultPrecision     = 1
	DefaultWorkers       = 4
	DefaultParentDepth   = 3
	MaxParentDepth       = 10
	DefaultTake          = 10
	DefaultTimeout       = 30 * time.Second
	DefaultCacheTTL      = time.Hour
	DefaultWorkItemTypes = "Task,Bug"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
)

// DateFormat is the date representation used in reports.
var DateFormat = time.DateOnly

// Config holds the runtime configuration for a command.
// This struct remains the "final, validated" config.
type Config struct {
	BaseURL                   string
	PAT                       string // Please use env var as this is plaintext
	Scope                     schema.ScopeContext
	NonRoadmapWorkParentTitle string
	Timeout                   time.Duration

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	Workers     int
	ParentDepth int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel  zerolog.Level
	LogFormat string

	WorkItemTypes []string
	Attribution   schema.AttributionRule
	GroupByTags   []string
	TagFilters    []string
	Take          int
	Sprint        string
	Tags          []string
	DryRun        bool
	TargetVersion int

	PriorityOrder  []string
	SkipStatistics bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	BaseURL                   string `mapstructure:"base-url"`
	PAT                       string `mapstructure:"pat"`
	Project                   string `mapstructure:"project"`
	Team                      string `mapstructure:"team"`
	NonRoadmapWorkParentTitle string `mapstructure:"non-roadmap-work-parent-title"`
	Timeout                   string `mapstructure:"timeout"`
	Output                    string `mapstructure:"output"`
	OutputFile                string `mapstructure:"output-file"`
	Precision                 int    `mapstructure:"precision"`
	Width                     int    `mapstructure:"width"`
	Color                     string `mapstructure:"color"`
	Workers                   int    `mapstructure:"workers"`
	ParentDepth               int    `mapstructure:"parent-depth"`
	CacheBackend              string `mapstructure:"cache-backend"`
	CacheDBConnect            string `mapstructure:"cache-db-connect"`
	CacheTTL                  string `mapstructure:"cache-ttl"`
	HistoryBackend            string `mapstructure:"history-backend"`
	HistoryDBConnect          string `mapstructure:"history-db-connect"`
	LogLevel                  string `mapstructure:"log-level"`
	LogFormat                 string `mapstructure:"log-format"`

	// --- Fields from capacitiesCmd.Flags() ---
	WorkItemTypes string `mapstructure:"work-item-types"`
	Attribution   string `mapstructure:"attribution"`
	Sprint        string `mapstructure:"sprint"`

	// --- Fields from sprintEffortCmd.Flags() ---
	GroupByTags string `mapstructure:"group-by-tags"`
	TagFilters  string `mapstructure:"tag-filters"`

	// --- Fields from velocityCmd.Flags() ---
	Take int `mapstructure:"take"`

	// --- Fields from inheritTagsCmd.Flags() ---
	Tags   string `mapstructure:"tags"`
	DryRun bool   `mapstructure:"dry-run"`

	// --- Fields from prioritiesCmd.Flags() ---
	PriorityOrder  string `mapstructure:"priority-order"`
	SkipStatistics bool   `mapstructure:"skip-statistics"`

	// --- Fields from historyMigrateCmd.Flags() ---
	TargetVersion int `mapstructure:"target-version"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.WorkItemTypes = cloneStrings(c.WorkItemTypes)
	clone.GroupByTags = cloneStrings(c.GroupByTags)
	clone.TagFilters = cloneStrings(c.TagFilters)
	clone.Tags = cloneStrings(c.Tags)
	clone.PriorityOrder = cloneStrings(c.PriorityOrder)
	return &clone
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateConnection(cfg, input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processCommandInputs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateConnection checks the server, credentials and scope.
func validateConnection(cfg *Config, input *ConfigRawInput) error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(input.BaseURL), "/")
	if cfg.BaseURL == "" {
		return fmt.Errorf("base-url is required (e.g. https://dev.azure.com/my-org)")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base-url '%s'. must be an http or https url", input.BaseURL)
	}

	cfg.PAT = strings.TrimSpace(input.PAT)
	if cfg.PAT == "" {
		return fmt.Errorf("pat is required, set POPILOT_PAT to a personal access token")
	}

	cfg.Scope = schema.ScopeContext{
		Project: strings.TrimSpace(input.Project),
		Team:    strings.TrimSpace(input.Team),
	}
	if cfg.Scope.Project == "" || cfg.Scope.Team == "" {
		return fmt.Errorf("project and team are required")
	}
	cfg.NonRoadmapWorkParentTitle = strings.TrimSpace(input.NonRoadmapWorkParentTitle)

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout '%s'. must be a positive duration like 30s", input.Timeout)
		}
		cfg.Timeout = d
	}
	return nil
}

// validateSimpleInputs processes and validates output, fetching and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors := true
	if input.Color != "" {
		var err error
		if colors, err = ParseBoolString(input.Color); err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
	}
	cfg.UseColors = colors

	// --- 1. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TableOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be table, csv, json, yaml, markdown, xml, html", input.Output)
	}
	if input.Precision < 0 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 0 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	// --- 2. Fetching Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.ParentDepth < 0 || input.ParentDepth > MaxParentDepth {
		return fmt.Errorf("parent-depth must be between 0 and %d (received %d)", MaxParentDepth, input.ParentDepth)
	}
	cfg.ParentDepth = input.ParentDepth

	// --- 3. Logging Validation ---
	level := input.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log-level '%s': %w", input.LogLevel, err)
	}
	cfg.LogLevel = parsed

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log-format '%s'. must be console or json", input.LogFormat)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateStoreInputs validates only the cache and history settings.
// Store maintenance commands use it instead of ProcessAndValidate.
func ValidateStoreInputs(cfg *Config, input *ConfigRawInput) error {
	return validateBackendConfigs(cfg, input)
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		d, err := time.ParseDuration(input.CacheTTL)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid cache-ttl '%s'. must be a positive duration like 1h", input.CacheTTL)
		}
		cfg.CacheTTL = d
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Validate that cache and history use different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// processCommandInputs handles the per-command flags.
func processCommandInputs(cfg *Config, input *ConfigRawInput) error {
	types := input.WorkItemTypes
	if types == "" {
		types = DefaultWorkItemTypes
	}
	cfg.WorkItemTypes = SplitList(types)

	cfg.Attribution = schema.AttributionRule(strings.ToLower(input.Attribution))
	if cfg.Attribution == "" {
		cfg.Attribution = schema.ChangedByAssignedTo
	}
	if _, ok := schema.ValidAttributionRules[cfg.Attribution]; !ok {
		return fmt.Errorf("invalid attribution '%s'. must be changed-by, assigned-to, changed-by-assigned-to", input.Attribution)
	}

	cfg.GroupByTags = SplitList(input.GroupByTags)
	cfg.TagFilters = SplitList(input.TagFilters)
	cfg.Tags = SplitList(input.Tags)
	cfg.Sprint = strings.TrimSpace(input.Sprint)
	cfg.DryRun = input.DryRun
	cfg.TargetVersion = input.TargetVersion
	cfg.PriorityOrder = splitNames(input.PriorityOrder)
	cfg.SkipStatistics = input.SkipStatistics

	cfg.Take = input.Take
	if cfg.Take == 0 {
		cfg.Take = DefaultTake
	}
	if cfg.Take < 0 {
		return fmt.Errorf("take must be greater than 0 (received %d)", input.Take)
	}
	return nil
}

// splitNames splits a comma-separated list of query names, which may contain '&'.
func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RevalidateCapacities applies capacity parameters that arrive outside of the CLI flags.
// Empty values keep what cfg already has.
func RevalidateCapacities(cfg *Config, workItemTypes, attribution string) error {
	if workItemTypes != "" {
		cfg.WorkItemTypes = SplitList(workItemTypes)
	}
	if attribution == "" {
		return nil
	}
	rule := schema.AttributionRule(strings.ToLower(attribution))
	if _, ok := schema.ValidAttributionRules[rule]; !ok {
		return fmt.Errorf("invalid attribution '%s'. must be changed-by, assigned-to, changed-by-assigned-to", attribution)
	}
	cfg.Attribution = rule
	return nil
}

// RevalidateVelocity applies the number of past sprints for a velocity run.
// Zero keeps what cfg already has.
func RevalidateVelocity(cfg *Config, take int) error {
	if take < 0 {
		return fmt.Errorf("take must be greater than 0 (received %d)", take)
	}
	if take > 0 {
		cfg.Take = take
	}
	return nil
}
