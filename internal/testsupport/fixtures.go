package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// DefaultFieldMap maps the logical fields the fixture datasets carry onto
// their concrete CSV columns.
func DefaultFieldMap() map[string]string {
	return map[string]string{
		"ssn":   "soc",
		"fname": "first",
		"lname": "last",
		"zip":   "postal",
	}
}

// WriteCSV writes rows (header first) to path's directory and returns the
// full path.
func WriteCSV(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteDatasetA writes the side-A fixture. Its ssn column is [1,1,2,3,4]
// so single-pass ssn blocking against dataset B yields a known pairing.
func WriteDatasetA(t testing.TB, dir string) string {
	t.Helper()
	return WriteCSV(t, dir, "dataset_a.csv", [][]string{
		{"person_id", "soc", "first", "last", "postal"},
		{"a0", "1", "martha", "smith", "02134"},
		{"a1", "1", "marta", "smith", "02134"},
		{"a2", "2", "john", "doe", "02134"},
		{"a3", "3", "jane", "roe", "10001"},
		{"a4", "4", "zelda", "fitz", "10001"},
	})
}

// WriteDatasetB writes the side-B fixture with ssn column [1,2,2,3,5].
func WriteDatasetB(t testing.TB, dir string) string {
	t.Helper()
	return WriteCSV(t, dir, "dataset_b.csv", [][]string{
		{"person_id", "soc", "first", "last", "postal"},
		{"b0", "1", "marhta", "smith", "02134"},
		{"b1", "2", "jon", "doe", "02134"},
		{"b2", "2", "johnny", "doe", "02134"},
		{"b3", "3", "jane", "roe", "10001"},
		{"b4", "5", "link", "hyrule", "10001"},
	})
}
