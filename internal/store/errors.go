package store

import "errors"

// Sentinel errors returned by repository methods. Callers match them with
// [errors.Is].
var (
	// ErrRecordNotFound is returned by lookups of an entity id that has no
	// local row.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrUnknownEntity is returned when an entity has no schema and so no
	// table to write to.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidMutation is returned by Enqueue for an entry that could never
	// be pushed (empty entity or record id, unknown operation or priority).
	ErrInvalidMutation = errors.New("invalid mutation")

	// ErrCorruptQueueEntry is returned when a stored queue row cannot be
	// decoded back into a mutation.
	ErrCorruptQueueEntry = errors.New("corrupt mutation queue entry")
)

// Low-level database operation errors, wrapped around the driver error.
var (
	// ErrBuildingSQLQuery is returned when squirrel cannot render a query.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing fails. The
	// transaction is rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when an INSERT, UPDATE or DELETE
	// fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	ErrScanningRow  = errors.New("failed to scan row")
	ErrScanningRows = errors.New("failed to scan rows")
)
