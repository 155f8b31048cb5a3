package common

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Stats holds atomic counters for one tool run
type Stats struct {
	RecordsRead     uint64 // ADIF records parsed
	RecordsEnriched uint64 // contacts produced by the engine
	RecordsSkipped  uint64 // empty or unusable records
	BytesRead       uint64
	BatchLatency    uint64 // last batch flush in nanoseconds

	start time.Time

	// reporter state
	mu        sync.Mutex
	running   atomic.Bool
	stopCh    chan struct{}
	out       io.Writer
	lastRecs  uint64
	lastBytes uint64
	lastTime  time.Time

	// moving average of records per second
	rateWindow []float64
	rateIndex  int
}

// rateWindowSize samples at 500ms is a 5 second average
const rateWindowSize = 10

// NewStats creates a Stats instance; the run clock starts now.
func NewStats() *Stats {
	return &Stats{
		start:      time.Now(),
		out:        os.Stdout,
		rateWindow: make([]float64, rateWindowSize),
	}
}

func (s *Stats) AddRead(n uint64)     { atomic.AddUint64(&s.RecordsRead, n) }
func (s *Stats) AddEnriched(n uint64) { atomic.AddUint64(&s.RecordsEnriched, n) }
func (s *Stats) AddSkipped(n uint64)  { atomic.AddUint64(&s.RecordsSkipped, n) }
func (s *Stats) AddBytes(n uint64)    { atomic.AddUint64(&s.BytesRead, n) }

// SetBatchLatency records the duration of the last batch.
func (s *Stats) SetBatchLatency(d time.Duration) {
	atomic.StoreUint64(&s.BatchLatency, uint64(d.Nanoseconds()))
}

func (s *Stats) Read() uint64     { return atomic.LoadUint64(&s.RecordsRead) }
func (s *Stats) Enriched() uint64 { return atomic.LoadUint64(&s.RecordsEnriched) }
func (s *Stats) Skipped() uint64  { return atomic.LoadUint64(&s.RecordsSkipped) }
func (s *Stats) Bytes() uint64    { return atomic.LoadUint64(&s.BytesRead) }

// Elapsed is the time since NewStats or Reset.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// SetOutput redirects progress lines; nil silences them.
func (s *Stats) SetOutput(w io.Writer) {
	s.mu.Lock()
	s.out = w
	s.mu.Unlock()
}

// StartReporter prints a progress line every 500ms until StopReporter.
func (s *Stats) StartReporter() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	s.stopCh = make(chan struct{})
	s.lastTime = time.Now()
	s.lastRecs = s.Read()
	s.lastBytes = s.Bytes()
	stop := s.stopCh
	s.mu.Unlock()

	go s.reporterLoop(stop)
}

// StopReporter stops the background reporter.
func (s *Stats) StopReporter() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	close(s.stopCh)
	s.mu.Unlock()
}

func (s *Stats) reporterLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.printStatus(now)
		}
	}
}

// printStatus writes one progress line using deltas since the last tick.
func (s *Stats) printStatus(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		return
	}
	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		return
	}

	recs, bytes := s.Read(), s.Bytes()
	mibPerSec := (float64(bytes-s.lastBytes) / (1024 * 1024)) / elapsed
	rate := float64(recs-s.lastRecs) / elapsed

	s.rateWindow[s.rateIndex] = rate
	s.rateIndex = (s.rateIndex + 1) % rateWindowSize

	var sum float64
	var n int
	for _, r := range s.rateWindow {
		if r > 0 {
			sum += r
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}

	latencyMs := float64(atomic.LoadUint64(&s.BatchLatency)) / 1_000_000

	fmt.Fprintf(s.out, "[Progress] Throughput: %.2f MiB/s | Records: %.0f rec/s (avg: %.0f) | Batch: %.2f ms | Total: %d records\n",
		mibPerSec, rate, avg, latencyMs, recs)

	s.lastRecs = recs
	s.lastBytes = bytes
	s.lastTime = now
}

// LogSummary writes the Final Statistics block.
func (s *Stats) LogSummary(log *zap.SugaredLogger) {
	elapsed := s.Elapsed()
	log.Info("")
	Banner(log, "Final Statistics")
	log.Infof("Records read:     %d", s.Read())
	log.Infof("Contacts:         %d", s.Enriched())
	log.Infof("Skipped:          %d", s.Skipped())
	log.Infof("Bytes read:       %.2f MiB", float64(s.Bytes())/(1024*1024))
	log.Infof("Elapsed:          %v", elapsed.Round(time.Millisecond))
	if secs := elapsed.Seconds(); secs > 0 {
		log.Infof("Throughput:       %.0f rec/s", float64(s.Read())/secs)
	}
}

// Reset zeroes all counters and restarts the run clock.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.RecordsRead, 0)
	atomic.StoreUint64(&s.RecordsEnriched, 0)
	atomic.StoreUint64(&s.RecordsSkipped, 0)
	atomic.StoreUint64(&s.BytesRead, 0)
	atomic.StoreUint64(&s.BatchLatency, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = time.Now()
	s.lastRecs = 0
	s.lastBytes = 0
	s.lastTime = s.start
	for i := range s.rateWindow {
		s.rateWindow[i] = 0
	}
	s.rateIndex = 0
}
