package output

import (
	"container/heap"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const weightColumn = 9

// Merge combines weight-sorted shards into one descending-weight result file
// named match_results_<runID>.csv under dir, then removes the shards. It
// returns the result path and the number of rows written. With no shards it
// still writes a header-only file.
func Merge(dir, runID string, columns []string, shardPaths []string, compress bool) (string, int64, error) {
	name := fmt.Sprintf("match_results_%s.csv", runID)
	if compress {
		name += ".gz"
	}
	dest := filepath.Join(dir, name)

	file, err := os.Create(dest)
	if err != nil {
		return "", 0, fmt.Errorf("create result file: %w", err)
	}
	defer file.Close()

	var sink io.Writer = file
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(file)
		sink = gz
	}
	cw := csv.NewWriter(sink)
	if err := cw.Write(columns); err != nil {
		return "", 0, fmt.Errorf("write result header: %w", err)
	}

	readers := make([]*shardReader, 0, len(shardPaths))
	defer func() {
		for _, r := range readers {
			r.close()
		}
	}()

	h := &mergeHeap{}
	for _, path := range shardPaths {
		r, err := openShard(path)
		if err != nil {
			return "", 0, err
		}
		readers = append(readers, r)
		record, weight, err := r.next()
		if err != nil {
			return "", 0, err
		}
		if record != nil {
			heap.Push(h, mergeItem{record: record, weight: weight, source: r})
		}
	}

	var rows int64
	for h.Len() > 0 {
		item := heap.Pop(h).(mergeItem)
		if err := cw.Write(item.record); err != nil {
			return "", 0, fmt.Errorf("write result row: %w", err)
		}
		rows++
		record, weight, err := item.source.next()
		if err != nil {
			return "", 0, err
		}
		if record != nil {
			heap.Push(h, mergeItem{record: record, weight: weight, source: item.source})
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", 0, fmt.Errorf("flush result file: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", 0, fmt.Errorf("close result compressor: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return "", 0, fmt.Errorf("close result file: %w", err)
	}

	for _, path := range shardPaths {
		if err := os.Remove(path); err != nil {
			return "", 0, fmt.Errorf("remove shard %s: %w", filepath.Base(path), err)
		}
	}
	return dest, rows, nil
}

type shardReader struct {
	path   string
	file   *os.File
	gz     *gzip.Reader
	reader *csv.Reader
}

func openShard(path string) (*shardReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shard %s: %w", filepath.Base(path), err)
	}
	r := &shardReader{path: path, file: file}
	var raw io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open shard %s: %w", filepath.Base(path), err)
		}
		r.gz = gz
		raw = gz
	}
	r.reader = csv.NewReader(raw)
	// Skip the per-shard header.
	if _, err := r.reader.Read(); err != nil && !errors.Is(err, io.EOF) {
		r.close()
		return nil, fmt.Errorf("read shard header %s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func (r *shardReader) next() ([]string, float64, error) {
	record, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read shard %s: %w", filepath.Base(r.path), err)
	}
	if len(record) <= weightColumn {
		return nil, 0, fmt.Errorf("shard %s: short row with %d columns", filepath.Base(r.path), len(record))
	}
	weight, err := strconv.ParseFloat(record[weightColumn], 64)
	if err != nil {
		return nil, 0, fmt.Errorf("shard %s: parse weight %q: %w", filepath.Base(r.path), record[weightColumn], err)
	}
	return record, weight, nil
}

func (r *shardReader) close() {
	if r.gz != nil {
		r.gz.Close()
	}
	r.file.Close()
}

type mergeItem struct {
	record []string
	weight float64
	source *shardReader
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int           { return len(h) }
func (h mergeHeap) Less(i, j int) bool { return h[i].weight > h[j].weight }
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
