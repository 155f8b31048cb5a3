// Package cty resolves callsigns to DXCC entities using a cty.dat
// prefix database (https://www.country-files.com/cty-dat-format/).
package cty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

// ErrFormat is returned when a country header line is malformed.
var ErrFormat = errors.New("cty: malformed country header")

// headerFields is the column count of a country header line:
// name, CQ zone, ITU zone, continent, lat, lon (+W), UTC offset, primary prefix
const headerFields = 8

// Optional info trailing a prefix token ("K(4)[7]", "=W1AW<...>") starts
// with one of these.
const suffixOpeners = "([<{~"

// Entry is one DXCC entity as described by its header line.
type Entry struct {
	Name          string
	CQZone        int
	ITUZone       int
	Continent     string
	Point         geo.Point // east-positive
	UTCOffset     float64   // hours, east-positive
	PrimaryPrefix string
}

// Table holds the prefix and exact-call maps. Read-only after Parse.
type Table struct {
	prefix map[string]*Entry
	exact  map[string]*Entry
	byName map[string]*Entry
	names  []string
	maxLen int
}

// Load parses the cty.dat file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// LoadOptional loads path, returning nil when the path is empty, the file
// is missing or it cannot be parsed. A nil *Table resolves nothing.
func LoadOptional(path string, log *zap.SugaredLogger) *Table {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if path == "" {
		log.Infof("No cty.dat configured, country lookup disabled")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warnf("cty.dat not found at %s, country lookup disabled", path)
		return nil
	}

	t, err := Load(path)
	if err != nil {
		log.Warnf("cty.dat ignored: %v", err)
		return nil
	}

	log.Infof("Loaded cty.dat: %d entities, %d prefixes, %d exact calls",
		len(t.names), len(t.prefix), len(t.exact))
	return t
}

// Parse reads a cty.dat stream. Invalid UTF-8 bytes are dropped.
// Any malformed header rejects the whole input with ErrFormat.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{
		prefix: make(map[string]*Entry),
		exact:  make(map[string]*Entry),
		byName: make(map[string]*Entry),
	}

	lenient := transform.NewReader(r, transform.Chain(
		unicode.UTF8.NewDecoder(),
		runes.Remove(runes.Predicate(func(c rune) bool { return c == utf8.RuneError })),
	))

	scanner := bufio.NewScanner(lenient)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var current *Entry
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if current == nil {
			e, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = e
			t.addEntity(e)
			continue
		}

		end := false
		if strings.HasSuffix(line, ";") {
			line = strings.TrimSuffix(line, ";")
			end = true
		}
		line = strings.TrimRight(line, ",")

		for _, tok := range strings.Split(line, ",") {
			t.addToken(tok, current)
		}

		if end {
			current = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return t, nil
}

func parseHeader(line string) (*Entry, error) {
	if !strings.HasSuffix(line, ":") {
		return nil, fmt.Errorf("%w: missing trailing ':' in %q", ErrFormat, line)
	}

	parts := strings.Split(strings.TrimRight(line, ":"), ":")
	if len(parts) != headerFields {
		return nil, fmt.Errorf("%w: %d fields in %q, want %d", ErrFormat, len(parts), line, headerFields)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// unparseable numbers read as zero; only the layout is fatal
	var errs []error
	cq := headerInt(parts[1], &errs)
	itu := headerInt(parts[2], &errs)
	lat := headerFloat(parts[4], &errs)
	lonW := headerFloat(parts[5], &errs)
	off := headerFloat(parts[6], &errs)
	if len(errs) > 0 {
		zap.S().Debugw("cty: non-numeric header fields", "entity", parts[0], "error", errors.Join(errs...))
	}

	// cty.dat stores longitude and UTC offset west-positive
	return &Entry{
		Name:          parts[0],
		CQZone:        cq,
		ITUZone:       itu,
		Continent:     parts[3],
		Point:         geo.Point{Lat: lat, Lon: -lonW},
		UTCOffset:     -off,
		PrimaryPrefix: parts[7],
	}, nil
}

func headerInt(s string, errs *[]error) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, err)
		return 0
	}
	return n
}

func headerFloat(s string, errs *[]error) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*errs = append(*errs, err)
		return 0
	}
	return f
}

func (t *Table) addEntity(e *Entry) {
	key := strings.ToUpper(e.Name)
	if _, dup := t.byName[key]; dup {
		return
	}
	t.byName[key] = e
	t.names = append(t.names, e.Name)
}

func (t *Table) addToken(tok string, e *Entry) {
	if i := strings.IndexAny(tok, suffixOpeners); i >= 0 {
		tok = tok[:i]
	}
	tok = strings.ToUpper(strings.TrimSpace(tok))

	if strings.HasPrefix(tok, "=") {
		call := strings.TrimLeft(tok, "=")
		if call == "" {
			return
		}
		if _, dup := t.exact[call]; !dup {
			t.exact[call] = e
		}
		return
	}

	if tok == "" {
		return
	}
	if len(tok) > t.maxLen {
		t.maxLen = len(tok)
	}
	if _, dup := t.prefix[tok]; !dup {
		t.prefix[tok] = e
	}
}

// Resolve looks up a callsign: exact calls first, then the longest
// matching prefix. Safe for concurrent use; a nil Table finds nothing.
func (t *Table) Resolve(call string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	call = strings.ToUpper(strings.TrimSpace(call))
	if call == "" {
		return Entry{}, false
	}

	if e, ok := t.exact[call]; ok {
		return *e, true
	}

	n := t.maxLen
	if len(call) < n {
		n = len(call)
	}
	for ; n > 0; n-- {
		if e, ok := t.prefix[call[:n]]; ok {
			return *e, true
		}
	}

	return Entry{}, false
}

// ByName finds an entity by its header name, case-insensitively.
func (t *Table) ByName(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Countries returns every entity name in sorted order.
func (t *Table) Countries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	sort.Strings(out)
	return out
}

// MaxPrefixLen is the length of the longest plain prefix.
func (t *Table) MaxPrefixLen() int {
	if t == nil {
		return 0
	}
	return t.maxLen
}

// Len returns the number of prefix and exact-call keys.
func (t *Table) Len() (prefixes, exact int) {
	if t == nil {
		return 0, 0
	}
	return len(t.prefix), len(t.exact)
}
