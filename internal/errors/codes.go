package errors

// Error codes for InsightQL. Codes are stable identifiers safe to match on;
// messages are not.
const (
	// ErrCodeNotFound indicates a requested document id is absent from the store.
	ErrCodeNotFound = "ERR_101_DOC_NOT_FOUND"

	// ErrCodeStorage indicates a storage-layer fault (open, read, write, schema).
	ErrCodeStorage = "ERR_102_STORAGE"

	// ErrCodeStoreClosed indicates an operation on a closed store.
	ErrCodeStoreClosed = "ERR_103_STORE_CLOSED"

	// ErrCodeStoreLocked indicates another process holds the store write lock.
	ErrCodeStoreLocked = "ERR_104_STORE_LOCKED"

	// ErrCodeIngestItem indicates a single source file failed to load.
	// Ingestion continues with the remaining items.
	ErrCodeIngestItem = "ERR_201_INGEST_ITEM"

	// ErrCodeConfigInvalid indicates invalid configuration.
	ErrCodeConfigInvalid = "ERR_301_CONFIG_INVALID"

	// ErrCodeInvalidInput indicates invalid caller input.
	ErrCodeInvalidInput = "ERR_302_INVALID_INPUT"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "ERR_900_INTERNAL"
)

// Category classifies errors for logging and handling.
type Category string

const (
	CategoryStorage  Category = "Storage"
	CategoryIngest   Category = "Ingest"
	CategoryConfig   Category = "Config"
	CategoryInput    Category = "Input"
	CategoryInternal Category = "Internal"
)

// Severity indicates how an error should be handled.
type Severity string

const (
	// SeverityWarning errors are recoverable; the operation continues.
	SeverityWarning Severity = "warning"
	// SeverityError errors fail the current operation.
	SeverityError Severity = "error"
	// SeverityFatal errors should abort the current batch or process.
	SeverityFatal Severity = "fatal"
)

// categoryFromCode derives the category from an error code.
func categoryFromCode(code string) Category {
	switch code {
	case ErrCodeNotFound, ErrCodeStorage, ErrCodeStoreClosed, ErrCodeStoreLocked:
		return CategoryStorage
	case ErrCodeIngestItem:
		return CategoryIngest
	case ErrCodeConfigInvalid:
		return CategoryConfig
	case ErrCodeInvalidInput:
		return CategoryInput
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from an error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIngestItem:
		// A single bad file never aborts the batch.
		return SeverityWarning
	case ErrCodeStorage, ErrCodeStoreLocked:
		return SeverityFatal
	default:
		return SeverityError
	}
}
