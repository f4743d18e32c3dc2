package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields propagated through the call chain via context.

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the scraping job ID
	FieldJobID = "job_id"

	// FieldTarget is the search target (city or country) being processed
	FieldTarget = "target"

	// FieldSorter is the search-API sort order being paginated
	FieldSorter = "sorter"

	// FieldURL is the detail-page URL being scraped
	FieldURL = "url"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Metric fields attached at the log-entry level for aggregation.

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldPage is the pagination page number
	FieldPage = "page"

	// FieldOffset is the pagination offset
	FieldOffset = "offset"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
