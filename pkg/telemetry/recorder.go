package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/researchkb/researchkb/pkg/types"
)

// SearchRecord captures one executed search for offline relevance
// analysis.
type SearchRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Query         string    `parquet:"query"`
	ExpandedQuery string    `parquet:"expanded_query"`
	Results       int       `parquet:"results"`
	TopChunkID    string    `parquet:"top_chunk_id"`
	TopScore      float64   `parquet:"top_score"`
	Degraded      string    `parquet:"degraded"` // comma separated signal names
	EmbeddingMs   float64   `parquet:"embedding_ms"`
	SearchMs      float64   `parquet:"search_ms"`
	ExecutionMs   float64   `parquet:"execution_ms"`
}

// Recorder buffers search records and writes them to Parquet files in
// batches. Recording never fails the request; write errors surface on
// Flush.
type Recorder struct {
	outputDir string
	mu        sync.Mutex
	buffer    []SearchRecord
	batchSize int
}

// NewRecorder creates a search telemetry recorder writing under
// outputDir.
func NewRecorder(outputDir string) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Recorder{
		outputDir: outputDir,
		batchSize: 256,
		buffer:    make([]SearchRecord, 0, 256),
	}, nil
}

// Record buffers one search response.
func (r *Recorder) Record(resp *types.SearchResponse) {
	record := SearchRecord{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Query:         resp.Query,
		ExpandedQuery: resp.ExpandedQuery,
		Results:       len(resp.Results),
		Degraded:      strings.Join(resp.Degraded, ","),
		EmbeddingMs:   resp.EmbeddingMs,
		SearchMs:      resp.SearchMs,
		ExecutionMs:   resp.ExecutionMs,
	}
	if len(resp.Results) > 0 {
		record.TopChunkID = resp.Results[0].Chunk.ID
		record.TopScore = resp.Results[0].CombinedScore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, record)
	if len(r.buffer) >= r.batchSize {
		r.flush()
	}
}

// Flush writes any buffered records to a new Parquet file.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

func (r *Recorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("searches_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write search telemetry file: %v\n", err)
		return err
	}

	r.buffer = r.buffer[:0]
	return nil
}
