package state

import (
	"fmt"
	"strings"
	"time"
)

// Status is the background work summary shown in the status bar.
type Status struct {
	Indexed     int
	Queued      int
	LastRebuild time.Time
	Unsaved     int
}

// Status samples the index and the autosave worker. Either may be missing.
func (s *State) Status() Status {
	var st Status
	if s == nil {
		return st
	}
	if s.Index != nil {
		stats := s.Index.Stats()
		st.Indexed, st.Queued, st.LastRebuild = stats.Documents, stats.Pending, stats.LastRebuild
	}
	if s.Autosave != nil {
		st.Unsaved = s.Autosave.Unsaved()
	}
	return st
}

func (st Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d indexed", st.Indexed)
	if st.Queued > 0 {
		fmt.Fprintf(&b, ", %d queued", st.Queued)
	}
	if !st.LastRebuild.IsZero() {
		b.WriteString(" (rebuilt " + st.LastRebuild.Local().Format("15:04") + ")")
	}
	if st.Unsaved > 0 {
		fmt.Fprintf(&b, " | %d unsaved", st.Unsaved)
	}
	return b.String()
}
