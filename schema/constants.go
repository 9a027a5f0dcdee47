package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// TimeFrame classifies an iteration relative to today.
	TimeFrame string

	// AttributionRule decides which team member a work delta belongs to.
	AttributionRule string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string
)

// All output modes supported.
const (
	TableOut    OutputMode = "table" // default
	CSVOut      OutputMode = "csv"
	JSONOut     OutputMode = "json"
	YAMLOut     OutputMode = "yaml"
	MarkdownOut OutputMode = "markdown"
	XMLOut      OutputMode = "xml"
	HTMLOut     OutputMode = "html"
)

// All iteration time frames.
const (
	PastFrame    TimeFrame = "past"
	CurrentFrame TimeFrame = "current"
	FutureFrame  TimeFrame = "future"
)

// All attribution rules supported.
const (
	ChangedBy           AttributionRule = "changed-by"
	AssignedTo          AttributionRule = "assigned-to"
	ChangedByAssignedTo AttributionRule = "changed-by-assigned-to" // default
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Work item types with special meaning in reports.
const (
	TypeEpic      = "Epic"
	TypeFeature   = "Feature"
	TypeUserStory = "User Story"
	TypeBug       = "Bug"
	TypeTask      = "Task"
)

// Work item states and reasons with special meaning in reports.
const (
	StateClosed    = "Closed"
	StateRemoved   = "Removed"
	ReasonObsolete = "Obsolete"
	ReasonCut      = "Cut"
)

// Tags with special meaning in iteration statistics.
const (
	CommittedTag = "committed"
	SpilloverTag = "spillover"
)

// Sprint goal markers at the end of an iteration path.
const (
	GoalReachedMarker    = "👍"
	GoalNotReachedMarker = "👎"
)

// NoGroup is the effort group of items that match none of the group tags.
const NoGroup = "<no group>"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TableOut:    {},
	CSVOut:      {},
	JSONOut:     {},
	YAMLOut:     {},
	MarkdownOut: {},
	XMLOut:      {},
	HTMLOut:     {},
}

// ValidAttributionRules lists all valid attribution rules.
var ValidAttributionRules = map[AttributionRule]struct{}{
	ChangedBy:           {},
	AssignedTo:          {},
	ChangedByAssignedTo: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
