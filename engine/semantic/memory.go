package semantic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// Snapshot is an immutable in-memory index over a fixed set of records.
// Because the record set never changes after construction, concurrent
// searches need no locking; replacing the data set means building a new
// Snapshot and swapping the pointer.
type Snapshot struct {
	records []domain.Record
	norms   []float32 // precomputed |r| per record
}

// NewSnapshot builds a Snapshot over a copy of the given records.
func NewSnapshot(records []domain.Record) *Snapshot {
	s := &Snapshot{
		records: make([]domain.Record, len(records)),
		norms:   make([]float32, len(records)),
	}
	copy(s.records, records)
	for i, r := range s.records {
		s.norms[i] = norm(r.Vector)
	}
	return s
}

// LoadSnapshot reads a JSONL file of records (one Record per line) into a
// Snapshot. Blank lines are skipped.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("semantic: open snapshot %s: %w", path, err)
	}
	defer f.Close()

	var records []domain.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r domain.Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("semantic: snapshot %s line %d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("semantic: read snapshot %s: %w", path, err)
	}
	return NewSnapshot(records), nil
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.records) }

// Search scores every record against the query vector and returns the top
// limit hits, sorted by score descending with ties broken by ID ascending.
func (s *Snapshot) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || len(s.records) == 0 {
		return nil, nil
	}

	qn := norm(vector)
	scored := make([]domain.ScoredRecord, len(s.records))
	for i, r := range s.records {
		scored[i] = domain.ScoredRecord{Record: r, Score: Cosine(vector, qn, r.Vector, s.norms[i])}
	}

	return rankCut(scored, limit), nil
}

// Cosine computes (q·r)/(|q||r|) given precomputed norms. A zero-magnitude
// vector on either side scores 0, keeping the ordering total instead of
// producing NaN. Mismatched dimensions score over the shorter prefix.
func Cosine(q []float32, qnorm float32, r []float32, rnorm float32) float32 {
	if qnorm == 0 || rnorm == 0 {
		return 0
	}
	n := len(q)
	if len(r) < n {
		n = len(r)
	}
	var dot float32
	for i := 0; i < n; i++ {
		dot += q[i] * r[i]
	}
	return dot / (qnorm * rnorm)
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}
