package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"stitch/internal/compare"
)

// fixedColumns lead every shard and the merged result file. Comparison
// variable scores follow in the scorer's stable order.
var fixedColumns = []string{
	"indv_id_a",
	"indv_id_b",
	"idx_a",
	"idx_b",
	"pass_name",
	"match_strict",
	"match_moderate",
	"match_relaxed",
	"match_review",
	"weight",
}

// Row is one weighted match result ready to be written.
type Row struct {
	Scored compare.Scored
	Weight float64
}

// ShardWriter writes scored batches as numbered shard files under a run
// directory. Not safe for concurrent use; the assembler owns it.
type ShardWriter struct {
	dir      string
	vars     []string
	compress bool
	next     int
	paths    []string
}

// NewShardWriter creates a writer for the run. vars is the stable union of
// comparison variables, which fixes the output schema.
func NewShardWriter(dir string, vars []string, compress bool) *ShardWriter {
	return &ShardWriter{dir: dir, vars: append([]string(nil), vars...), compress: compress}
}

// Columns returns the full output schema.
func (w *ShardWriter) Columns() []string {
	out := make([]string, 0, len(fixedColumns)+len(w.vars))
	out = append(out, fixedColumns...)
	out = append(out, w.vars...)
	return out
}

// Paths returns the shard files written so far, in write order.
func (w *ShardWriter) Paths() []string {
	return append([]string(nil), w.paths...)
}

// WriteShard sorts the rows by descending weight and writes them as the next
// shard. Empty batches write nothing.
func (w *ShardWriter) WriteShard(rows []Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight > rows[j].Weight })

	name := fmt.Sprintf("match_shard_%04d.csv", w.next)
	if w.compress {
		name += ".gz"
	}
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create shard %s: %w", name, err)
	}
	defer file.Close()

	var sink io.Writer = file
	var gz *gzip.Writer
	if w.compress {
		gz = gzip.NewWriter(file)
		sink = gz
	}

	cw := csv.NewWriter(sink)
	if err := cw.Write(w.Columns()); err != nil {
		return "", fmt.Errorf("write shard header: %w", err)
	}
	record := make([]string, len(fixedColumns)+len(w.vars))
	for _, row := range rows {
		w.fillRecord(record, row)
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("write shard row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush shard %s: %w", name, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("close shard compressor: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close shard %s: %w", name, err)
	}

	w.next++
	w.paths = append(w.paths, path)
	return path, nil
}

func (w *ShardWriter) fillRecord(record []string, row Row) {
	s := row.Scored
	record[0] = s.Pair.IDA
	record[1] = s.Pair.IDB
	record[2] = strconv.Itoa(s.Pair.IdxA)
	record[3] = strconv.Itoa(s.Pair.IdxB)
	record[4] = s.PassName
	record[5] = formatBool(s.Strict)
	record[6] = formatBool(s.Moderate)
	record[7] = formatBool(s.Relaxed)
	record[8] = formatBool(s.Review)
	record[9] = strconv.FormatFloat(row.Weight, 'f', -1, 64)
	for i, v := range w.vars {
		score, ok := s.Scores[v]
		if !ok {
			record[len(fixedColumns)+i] = ""
			continue
		}
		record[len(fixedColumns)+i] = strconv.FormatFloat(score, 'f', -1, 64)
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
