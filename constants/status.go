package constants

// JobStatus is the outcome recorded for a queued extraction job.
type JobStatus string

// Stable values, used as log attribute values.
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusExtracted JobStatus = "EXTRACTED" // entities built, not persisted
	JobStatusSaved     JobStatus = "SAVED"     // entities persisted
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// JobKind identifies where a job's document comes from.
type JobKind string

const (
	JobKindMessage JobKind = "message" // mailbox message id
	JobKindFile    JobKind = "file"    // path to a decoded html file
)
