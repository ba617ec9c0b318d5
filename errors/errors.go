package mailsync_errors

import "errors"

var (
	ErrNoMailboxesConfigured = errors.New("no mailboxes resolved from config or directory")
	ErrMissingAccessToken    = errors.New("identity response contained no access token")
	ErrGraphNotConfigured    = errors.New("graph credentials not configured")
)
