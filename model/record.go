package model

import "time"

// ContextAll is the virtual context that matches every record. A record
// whose source line carries no @tag belongs to it literally.
const ContextAll = "all"

// DateLayout is the fixed-width ISO form used for due and completion
// dates. Lexicographic order on it equals chronological order.
const DateLayout = "2006-01-02"

// MaxLineLen caps a single source line; longer lines are truncated
// before decoding.
const MaxLineLen = 512

// Record is one task line.
//
// Priority holds the bare letter ("A".."Z", empty when unset); the "(A)"
// wrapping exists only on the wire. Priority is defined only while the
// record is uncompleted: completing a prioritized record moves the letter
// into Text as a trailing " pri:X" token, and uncompleting extracts it
// back. Exactly one representation is active at a time.
type Record struct {
	Completed      bool
	CompletionDate string
	Date           string
	Priority       string
	Context        string
	Text           string
}

// Today formats t in DateLayout.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
