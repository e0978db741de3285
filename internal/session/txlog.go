package session

import (
	"fmt"
	"strings"
	"time"
)

// txLogCap bounds the in-memory transaction history.
const txLogCap = 50

type txEntry struct {
	At     time.Time
	Reason string
	Names  []string
}

// txLog records the reason and roster snapshot of recent transactions
// so an index-out-of-range or duplicate-name failure can be explained
// after the fact. Oldest entries are evicted first.
type txLog struct {
	entries []txEntry
}

func (l *txLog) add(reason string, names []string) {
	if len(l.entries) == txLogCap {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:txLogCap-1]
	}
	l.entries = append(l.entries, txEntry{At: time.Now(), Reason: reason, Names: names})
}

// dump renders the history for a diagnostic report.
func (l *txLog) dump() string {
	var sb strings.Builder
	sb.WriteString("roster transaction history (oldest first):\n")
	for _, e := range l.entries {
		fmt.Fprintf(&sb, "  %s %s: %s\n",
			e.At.Format(time.RFC3339Nano), e.Reason, strings.Join(e.Names, ", "))
	}
	return sb.String()
}
