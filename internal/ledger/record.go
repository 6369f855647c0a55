package ledger

import "time"

// Layouts for the calendar day and time-of-day columns. Both are computed
// from local wall-clock time so the once-per-day rule follows the site's day
// boundary, not UTC.
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04:05"
)

// DayOf returns the local calendar day for t.
func DayOf(t time.Time) string {
	return t.Local().Format(DayLayout)
}

// Record is one attendance entry. User fields are a snapshot captured at
// recording time so the row stays stable if the directory entry is later
// edited. At most one Record exists per (UserID, Day).
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	Branch     string    `json:"branch"`
	ImagePath  string    `json:"image_path,omitempty"`
	Day        string    `json:"date"`
	TimeOfDay  string    `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
}

// OutcomeKind classifies the result of one RecordIfAbsent call.
type OutcomeKind int

const (
	// OutcomeSuccess means a new record was appended.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeDuplicate means a record already existed for (identity, day).
	OutcomeDuplicate
	// OutcomeNotFound means the identity is not in the user directory.
	OutcomeNotFound
	// OutcomeWriteFailed means the backing store rejected the append.
	OutcomeWriteFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeWriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

// Outcome carries the classified result of one ledger operation. Record is
// set for Success (the new row) and Duplicate (the existing row); Err only
// for WriteFailed.
type Outcome struct {
	Kind   OutcomeKind
	Record *Record
	Err    error
}
