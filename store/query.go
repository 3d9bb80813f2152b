package store

import (
	"cmp"
	"iter"
	"slices"
)

// GetAll returns every record of a table, ordered by partition key then row
// key. A missing table yields nothing.
func (s *Store) GetAll(tableName string) iter.Seq[Record] {
	return s.snapshot(tableName, func(Record) bool { return true })
}

// GetPartition returns the records of one partition, ordered by row key.
func (s *Store) GetPartition(tableName, partitionKey string) iter.Seq[Record] {
	return s.snapshot(tableName, func(r Record) bool {
		return r.PartitionKey == partitionKey
	})
}

// GetRange returns the records of one partition with startRowKey <= row key
// < endRowKey, in ascending ordinal row-key order. An empty endRowKey leaves
// the range unbounded above.
func (s *Store) GetRange(tableName, partitionKey, startRowKey, endRowKey string) iter.Seq[Record] {
	return s.snapshot(tableName, func(r Record) bool {
		if r.PartitionKey != partitionKey || r.RowKey < startRowKey {
			return false
		}
		return endRowKey == "" || r.RowKey < endRowKey
	})
}

// GetRows returns the records of one partition whose row key is in rowKeys.
func (s *Store) GetRows(tableName, partitionKey string, rowKeys ...string) iter.Seq[Record] {
	set := make(map[string]struct{}, len(rowKeys))
	for _, rk := range rowKeys {
		set[rk] = struct{}{}
	}
	return s.snapshot(tableName, func(r Record) bool {
		if r.PartitionKey != partitionKey {
			return false
		}
		_, ok := set[r.RowKey]
		return ok
	})
}

// snapshot collects matching records under the lock at call time. The
// returned sequence can be iterated any number of times and never observes
// later writes. Stored payloads are never modified in place, so the snapshot
// shares them and copies only on yield.
func (s *Store) snapshot(tableName string, match func(Record) bool) iter.Seq[Record] {
	s.mu.Lock()
	var records []Record
	if t, ok := s.tables[tableName]; ok {
		records = t.collect(match)
	}
	s.mu.Unlock()

	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.PartitionKey, b.PartitionKey),
			cmp.Compare(a.RowKey, b.RowKey),
		)
	})

	return func(yield func(Record) bool) {
		for _, r := range records {
			if !yield(r.clone()) {
				return
			}
		}
	}
}
