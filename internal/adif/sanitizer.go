package adif

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Callsign cleanup for logged CALL fields.
//
// Loggers and hand-edited files leave quoting and escaping debris in CALL
// ("F4LNO", EA5\\DL2OBT). A doubled backslash becomes the portable
// separator '/', quotes, lone backslashes and blanks are dropped, letters
// are upper-cased. Compound calls such as G0UPL/P keep their '/'.

const maxCallLen = 20

func isCallByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '/'
}

// CleanCall returns the normalized form of call.
func CleanCall(call string) string {
	i := 0
	for i < len(call) && isCallByte(call[i]) {
		i++
	}
	if i == len(call) {
		return call
	}

	var b strings.Builder
	b.Grow(len(call))
	b.WriteString(call[:i])
	for ; i < len(call); i++ {
		c := call[i]
		switch {
		case c == '\\' && i+1 < len(call) && call[i+1] == '\\':
			b.WriteByte('/')
			i++
		case c == '"', c == '\'', c == '\\', c == ' ', c == '\t':
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// PlausibleCall is a sanity check, not callsign validation: 1 to 20 bytes
// with at least one letter or digit.
func PlausibleCall(call string) bool {
	if call == "" || len(call) > maxCallLen {
		return false
	}
	return strings.IndexFunc(call, func(r rune) bool {
		return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	}) >= 0
}

// CallCleaner applies CleanCall and counts repairs. Safe for concurrent use.
type CallCleaner struct {
	log     *zap.SugaredLogger
	seen    atomic.Int64
	changed atomic.Int64
}

// NewCallCleaner creates a cleaner. Repairs are logged at debug level.
func NewCallCleaner(log *zap.SugaredLogger) *CallCleaner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CallCleaner{log: log}
}

// Clean normalizes call. Case folding alone is not counted as a repair.
func (c *CallCleaner) Clean(call string) string {
	c.seen.Add(1)
	out := CleanCall(call)
	if out != call && out != strings.ToUpper(call) {
		c.changed.Add(1)
		c.log.Debugw("cleaned callsign", "original", call, "cleaned", out)
	}
	return out
}

// Counts returns how many calls were seen and how many needed repair.
func (c *CallCleaner) Counts() (seen, changed int64) {
	return c.seen.Load(), c.changed.Load()
}
