package vulnerability

import "fmt"

// MissingColumnError reports a required asset field that is absent, either from a
// CSV header (Row == 0) or from a specific asset (Row is 1-based).
type MissingColumnError struct {
	Column string
	Row    int
}

func (e *MissingColumnError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("missing column %q in asset %d", e.Column, e.Row)
	}
	return fmt.Sprintf("missing column %q", e.Column)
}
