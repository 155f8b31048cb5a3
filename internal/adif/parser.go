package adif

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// Parsing Constants
// =============================================================================

const (
	// Error throttling: don't spam logs with parse errors
	MaxErrorsToLog = 10

	// Largest declared value length accepted in a tag
	MaxValueLen = 1 << 20

	// Largest record (bytes between two <EOR>)
	MaxRecordSize = 8 << 20
)

var (
	tagEOR = []byte("<EOR>")
	tagEOH = []byte("<EOH>")
)

// ErrEmpty is returned by ReadAll when the input holds no record.
var ErrEmpty = errors.New("adif: no records")

// ParseStats tracks record extraction.
type ParseStats struct {
	TotalChunks      uint64 // segments between <EOR> markers
	Records          uint64 // records with at least one field
	SkippedEmpty     uint64 // blank or tag-less segments
	MalformedTags    uint64 // tags with a bad length
	TruncatedValues  uint64 // values cut short by the record end
	Oversized        uint64 // segments over MaxRecordSize, skipped whole
	HeaderFieldsSeen uint64
	BytesRead        uint64
}

// =============================================================================
// Record Splitting
// =============================================================================

// indexFold finds the first case-insensitive occurrence of tag in data.
func indexFold(data, tag []byte) int {
	for from := 0; from < len(data); {
		i := bytes.IndexByte(data[from:], '<')
		if i < 0 {
			return -1
		}
		i += from
		if i+len(tag) > len(data) {
			return -1
		}
		if bytes.EqualFold(data[i:i+len(tag)], tag) {
			return i
		}
		from = i + 1
	}
	return -1
}

// split is the bufio.SplitFunc yielding the bytes before each <EOR>.
// A segment that outgrows the scan buffer is dropped up to its <EOR>
// instead of failing the scan.
func (r *Reader) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	i := indexFold(data, tagEOR)
	if r.skipping {
		switch {
		case i >= 0:
			advance = i + len(tagEOR)
			r.skipping = false
		case atEOF:
			advance = len(data)
			r.skipping = false
		default:
			// keep a tail that could hold the start of a split <EOR>
			advance = max(0, len(data)-len(tagEOR)+1)
		}
		r.stats.BytesRead += uint64(advance)
		return advance, nil, nil
	}

	if i >= 0 {
		return i + len(tagEOR), data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	if len(data) >= r.maxRecord {
		r.skipping = true
		r.first = false
		r.stats.TotalChunks++
		r.stats.Oversized++
		r.logError("Record over %d bytes skipped (record %d)", r.maxRecord, r.stats.TotalChunks)
		advance = max(0, len(data)-len(tagEOR)+1)
		r.stats.BytesRead += uint64(advance)
		return advance, nil, nil
	}
	return 0, nil, nil
}

// =============================================================================
// Reader
// =============================================================================

// Reader streams records from an ADIF source.
type Reader struct {
	sc         *bufio.Scanner
	log        *zap.SugaredLogger
	stats      ParseStats
	errorCount int
	first      bool
	skipping   bool
	maxRecord  int
}

// NewReader wraps r. A nil logger discards parse warnings.
func NewReader(r io.Reader, log *zap.SugaredLogger) *Reader {
	return newReader(r, log, MaxRecordSize)
}

func newReader(src io.Reader, log *zap.SugaredLogger, maxRecord int) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Reader{log: log, first: true, maxRecord: maxRecord}
	r.sc = bufio.NewScanner(src)
	r.sc.Buffer(make([]byte, min(256*1024, maxRecord)), maxRecord)
	r.sc.Split(r.split)
	return r
}

// Next returns the next non-empty record, or io.EOF.
func (r *Reader) Next() (Fields, error) {
	for r.sc.Scan() {
		chunk := r.sc.Bytes()
		r.stats.TotalChunks++
		r.stats.BytesRead += uint64(len(chunk)) + uint64(len(tagEOR))

		if r.first {
			r.first = false
			if i := indexFold(chunk, tagEOH); i >= 0 {
				header := r.parse(chunk[:i])
				r.stats.HeaderFieldsSeen += uint64(len(header))
				chunk = chunk[i+len(tagEOH):]
			}
		}

		fields := r.parse(chunk)
		if len(fields) == 0 {
			r.stats.SkippedEmpty++
			continue
		}
		r.stats.Records++
		return fields, nil
	}

	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("adif scan: %w", err)
	}
	if r.errorCount > MaxErrorsToLog {
		r.log.Warnf("... and %d more parse errors (suppressed)", r.errorCount-MaxErrorsToLog)
		r.errorCount = MaxErrorsToLog
	}
	return nil, io.EOF
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() ParseStats {
	return r.stats
}

func (r *Reader) logError(format string, args ...interface{}) {
	r.errorCount++
	if r.errorCount <= MaxErrorsToLog {
		r.log.Warnf(format, args...)
	}
}

// parse scans <NAME:LEN[:TYPE]>value tags in one record segment.
// Values are clamped to the segment; the first occurrence of a name wins.
func (r *Reader) parse(rec []byte) Fields {
	fields := make(Fields)

	pos := 0
	for pos < len(rec) {
		open := bytes.IndexByte(rec[pos:], '<')
		if open < 0 {
			break
		}
		open += pos
		closeIdx := bytes.IndexByte(rec[open+1:], '>')
		if closeIdx < 0 {
			break
		}
		closeIdx += open + 1

		spec := string(rec[open+1 : closeIdx])
		pos = closeIdx + 1

		parts := strings.Split(spec, ":")
		name := strings.ToUpper(strings.TrimSpace(parts[0]))
		if len(parts) < 2 || name == "" {
			// bare markers such as <EOH> or <APP_...> without a length
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || n < 0 || n > MaxValueLen {
			r.stats.MalformedTags++
			r.logError("Malformed tag <%s> (record %d)", spec, r.stats.TotalChunks)
			continue
		}

		end := pos + n
		if end > len(rec) {
			end = len(rec)
			r.stats.TruncatedValues++
			r.logError("Value of %s truncated to %d bytes (record %d)", name, end-pos, r.stats.TotalChunks)
		}
		value := strings.TrimSpace(string(rec[pos:end]))
		pos = end

		if _, seen := fields[name]; !seen && value != "" {
			fields[name] = value
		}
	}

	return fields
}

// =============================================================================
// Convenience
// =============================================================================

// ReadAll drains r into memory. ErrEmpty when nothing was found.
func ReadAll(src io.Reader, log *zap.SugaredLogger) ([]Fields, ParseStats, error) {
	r := NewReader(src, log)
	var out []Fields
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, r.Stats(), err
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, r.Stats(), ErrEmpty
	}
	return out, r.Stats(), nil
}

// ParseBytes extracts every record from an in-memory log.
func ParseBytes(data []byte) []Fields {
	out, _, _ := ReadAll(bytes.NewReader(data), nil)
	return out
}
