package analysis

import (
	"runtime"
	"sync"

	"github.com/KI7MT/ki7mt-adif-lab/internal/adif"
)

// =============================================================================
// Processor - parallel enrichment
// =============================================================================

// sequentialThreshold is the record count below which goroutines are not worth it.
const sequentialThreshold = 1000

// Processor enriches record slices with an Engine, chunking large inputs
// across workers. Output order always matches input order.
type Processor struct {
	engine     *Engine
	numWorkers int
}

// NewProcessor creates a processor. numWorkers <= 0 uses NumCPU.
func NewProcessor(engine *Engine, numWorkers int) *Processor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Processor{engine: engine, numWorkers: numWorkers}
}

// Workers returns the worker count.
func (p *Processor) Workers() int {
	return p.numWorkers
}

// Process enriches every record.
func (p *Processor) Process(records []adif.Fields) []Contact {
	out := make([]Contact, len(records))
	if len(records) == 0 {
		return out
	}

	if len(records) < sequentialThreshold || p.numWorkers <= 1 {
		p.processChunk(records, out, 0, len(records))
		return out
	}

	chunkSize := (len(records) + p.numWorkers - 1) / p.numWorkers

	var wg sync.WaitGroup
	for workerID := 0; workerID < p.numWorkers; workerID++ {
		start := workerID * chunkSize
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		if start >= len(records) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			p.processChunk(records, out, start, end)
		}(start, end)
	}
	wg.Wait()

	return out
}

func (p *Processor) processChunk(records []adif.Fields, out []Contact, start, end int) {
	for i := start; i < end; i++ {
		out[i] = p.engine.Enrich(records[i])
	}
}
