package models

import "time"

// SyncOutcomeStatus is the terminal state of a non-failing sync pass.
type SyncOutcomeStatus string

const (
	SyncOffline SyncOutcomeStatus = "offline"
	SyncSuccess SyncOutcomeStatus = "success"
)

// Resolution names the side whose value survived a conflict.
type Resolution string

const (
	ResolutionServer Resolution = "server"
	ResolutionLocal  Resolution = "local"
)

// Conflict describes one server change that collided with pending local
// mutations for the same record. It is derived during a pass and never
// persisted.
type Conflict struct {
	Entity          Entity     `json:"entity"`
	RecordID        string     `json:"recordId"`
	ServerTimestamp time.Time  `json:"serverTimestamp"`
	LocalTimestamp  *time.Time `json:"localTimestamp"`
	Resolution      Resolution `json:"resolution"`
}

// SyncOutcome is the result of one sync pass.
type SyncOutcome struct {
	Status       SyncOutcomeStatus `json:"status"`
	Pushed       int               `json:"pushed"`
	Pulled       int               `json:"pulled"`
	Conflicts    int               `json:"conflicts"`
	LastSyncTime *time.Time        `json:"lastSyncTime"`
	ConflictLog  []Conflict        `json:"conflictLog,omitempty"`
}

// TriggerReason tells the scheduler why a pass was requested.
type TriggerReason string

const (
	TriggerAppOpen    TriggerReason = "app-open"
	TriggerNetwork    TriggerReason = "network"
	TriggerManual     TriggerReason = "manual"
	TriggerBackground TriggerReason = "background"
)

// Foreground reports whether r is a user- or lifecycle-driven reason that is
// allowed to bypass backoff.
func (r TriggerReason) Foreground() bool {
	switch r {
	case TriggerAppOpen, TriggerNetwork, TriggerManual:
		return true
	}
	return false
}

// TriggerStatus is what a scheduler caller observes.
type TriggerStatus string

const (
	TriggerSkipped TriggerStatus = "skipped"
	TriggerSuccess TriggerStatus = "success"
	TriggerOffline TriggerStatus = "offline"
	TriggerError   TriggerStatus = "error"
)

// TriggerResult is returned by the scheduler entry points.
type TriggerResult struct {
	Status  TriggerStatus `json:"status"`
	Reason  TriggerReason `json:"reason"`
	Outcome *SyncOutcome  `json:"outcome,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// BackoffState is the scheduler's unattended retry position. Step is -1 when
// no backoff is in effect.
type BackoffState struct {
	Step          int       `json:"step"`
	NextAttemptAt time.Time `json:"nextAttemptAt"`
}

// SyncStatus is a point-in-time view of the sync machinery for the host UI.
type SyncStatus struct {
	Running        bool          `json:"running"`
	Online         bool          `json:"online"`
	HasSession     bool          `json:"hasSession"`
	LastReason     TriggerReason `json:"lastReason,omitempty"`
	LastOutcome    *SyncOutcome  `json:"lastOutcome,omitempty"`
	LastError      string        `json:"lastError,omitempty"`
	LastStartedAt  *time.Time    `json:"lastStartedAt,omitempty"`
	LastFinishedAt *time.Time    `json:"lastFinishedAt,omitempty"`
	QueueLength    int           `json:"queueLength"`
	Backoff        BackoffState  `json:"backoff"`
}
