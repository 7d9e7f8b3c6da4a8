package recordset

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Record is one row of an input dataset. Ordinal is the record's position in
// the set, unique and stable for the run. ID is the caller-supplied
// identifier, which is not required to be unique.
type Record struct {
	Ordinal int
	ID      string
	fields  map[string]string
}

// Field returns the raw value stored under a logical field name.
func (r Record) Field(name string) string {
	return r.fields[name]
}

// Set is an ordered collection of records from one side of a match.
type Set struct {
	name    string
	fields  []string
	present map[string]struct{}
	records []Record
}

// New creates an empty set carrying the given logical field names.
func New(name string, fields []string) *Set {
	present := make(map[string]struct{}, len(fields))
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := present[f]; ok {
			continue
		}
		present[f] = struct{}{}
		kept = append(kept, f)
	}
	return &Set{name: name, fields: kept, present: present}
}

// Name returns the dataset's configured name.
func (s *Set) Name() string { return s.name }

// Fields returns the logical field names present on this side.
func (s *Set) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// HasField reports whether a logical field exists on this side.
func (s *Set) HasField(name string) bool {
	_, ok := s.present[name]
	return ok
}

// Append adds a record, assigning the next ordinal index.
func (s *Set) Append(id string, values map[string]string) {
	fields := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		fields[f] = values[f]
	}
	s.records = append(s.records, Record{
		Ordinal: len(s.records),
		ID:      id,
		fields:  fields,
	})
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.records) }

// Record returns the record at ordinal i.
func (s *Set) Record(i int) Record { return s.records[i] }

// Key returns the normalized blocking key for a field of record i. Records
// with an empty key never participate in blocking for that field.
func (s *Set) Key(i int, field string) string {
	return NormalizeKey(s.records[i].fields[field])
}

// Validate checks that every record carries an identifier position and that
// ordinals are consistent. Used after loading.
func (s *Set) Validate() error {
	for i, rec := range s.records {
		if rec.Ordinal != i {
			return fmt.Errorf("record set %s: ordinal %d at position %d", s.name, rec.Ordinal, i)
		}
	}
	return nil
}

var foldCaser = cases.Fold()

// NormalizeKey canonicalizes a blocking key value: Unicode NFKC
// normalization, case folding, and whitespace trimming. Both backends block
// on the normalized form so their pairings agree.
func NormalizeKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return foldCaser.String(norm.NFKC.String(value))
}
