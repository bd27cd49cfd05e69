package record

import "sync/atomic"

// DefaultMaxAttachmentBytes is the default size budget for attachment
// payloads. Configurable process-wide; changing it while executions are
// running is undefined behavior, so set it at startup.
const DefaultMaxAttachmentBytes = 1024

var maxAttachmentBytes atomic.Int64

func init() {
	maxAttachmentBytes.Store(DefaultMaxAttachmentBytes)
}

// SetMaxAttachmentBytes sets the process-wide attachment size budget.
// Values below 1 restore the default.
func SetMaxAttachmentBytes(n int) {
	if n < 1 {
		n = DefaultMaxAttachmentBytes
	}
	maxAttachmentBytes.Store(int64(n))
}

// MaxAttachmentBytes returns the current attachment size budget.
func MaxAttachmentBytes() int {
	return int(maxAttachmentBytes.Load())
}

// truncateText cuts s to the byte budget. The unit is bytes, not runes: a
// multi-byte rune straddling the boundary is cut mid-sequence, keeping the
// truncated body at exactly the budget.
func truncateText(s string) (string, bool) {
	max := MaxAttachmentBytes()
	if len(s) <= max {
		return s, false
	}
	return s[:max], true
}

// truncateBytes cuts b to the byte budget before any encoding work.
func truncateBytes(b []byte) ([]byte, bool) {
	max := MaxAttachmentBytes()
	if len(b) <= max {
		return b, false
	}
	return b[:max], true
}
