package dto

// MailboxSyncResult holds the per-mailbox counters of one sync run.
type MailboxSyncResult struct {
	Mailbox         string   `json:"mailbox"`
	Processed       int      `json:"processed"`
	Matched         int      `json:"matched"`
	Inserted        int      `json:"inserted"`
	Skipped         int      `json:"skipped"`
	SkippedSubjects []string `json:"skippedSubjects,omitempty"`
}

// SyncFailure records a mailbox whose authentication, fetch or upsert step
// failed. Failures never abort the run.
type SyncFailure struct {
	Mailbox string `json:"mailbox"`
	Error   string `json:"error"`
}

// SyncResult is the aggregate contract returned to any scheduler or CLI
// wrapper around the sync service.
type SyncResult struct {
	RunID     string              `json:"runId"`
	Mailboxes []MailboxSyncResult `json:"mailboxes"`
	Processed int                 `json:"processed"`
	Matched   int                 `json:"matched"`
	Inserted  int                 `json:"inserted"`
	Skipped   int                 `json:"skipped"`
	Failures  []SyncFailure       `json:"failures"`
}
