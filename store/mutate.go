package store

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Insert adds records to a table, creating the table if it does not exist.
//
// The batch is rejected with ErrConflict if any key is already stored or is
// repeated within the batch; nothing is written in that case. On success each
// record gets a fresh ETag, which is also written back into records.
func (s *Store) Insert(tableName string, records []Record) error {
	return s.write(func(log *changeLog) error {
		return s.insertLocked("insert", tableName, records, log)
	})
}

func (s *Store) insertLocked(op, tableName string, records []Record, log *changeLog) error {
	t, ok := s.tables[tableName]
	if !ok {
		t = s.createTableLocked(tableName)
	}

	// Validate the whole batch before writing anything.
	for _, r := range records {
		if _, exists := t.get(r.Key()); exists {
			return s.conflict(op, tableName, r.Key(), "key already exists")
		}
	}
	if k, dup := duplicateKey(recordKeys(records)); dup {
		return s.conflict(op, tableName, k, "duplicate key in batch")
	}

	for i := range records {
		stored := records[i].clone()
		stored.ETag = s.etags.next()
		t.put(stored)
		records[i].ETag = stored.ETag
		s.logChange(log, tableName, events.DynamoDBOperationTypeInsert, nil, &stored)
	}
	return nil
}

// Update replaces existing records.
//
// It returns ErrTableNotFound if the table does not exist. The batch is
// rejected with ErrConflict if any key is not stored, if any key is repeated
// within the batch, or, unless force is set, if any record's ETag differs from
// the stored one. On success each record gets a fresh ETag, which is also
// written back into records.
func (s *Store) Update(tableName string, records []Record, force bool) error {
	return s.write(func(log *changeLog) error {
		t, ok := s.tables[tableName]
		if !ok {
			return fmt.Errorf("update %q: %w", tableName, ErrTableNotFound)
		}

		for _, r := range records {
			existing, found := t.get(r.Key())
			if !found {
				return s.conflict("update", tableName, r.Key(), "key not found")
			}
			if !force && existing.ETag != r.ETag {
				return s.conflict("update", tableName, r.Key(), "etag mismatch")
			}
		}
		if k, dup := duplicateKey(recordKeys(records)); dup {
			return s.conflict("update", tableName, k, "duplicate key in batch")
		}

		for i := range records {
			old, _ := t.get(records[i].Key())
			stored := records[i].clone()
			stored.ETag = s.etags.next()
			t.put(stored)
			records[i].ETag = stored.ETag
			s.logChange(log, tableName, events.DynamoDBOperationTypeModify, &old, &stored)
		}
		return nil
	})
}

// Upsert writes records regardless of whether their keys are stored.
//
// It runs as two steps: stored records sharing a key with the batch are
// deleted unconditionally, then the batch is inserted. The steps are not
// jointly atomic. If the insert fails, which only happens when the batch
// repeats a key, the deletions stay applied.
func (s *Store) Upsert(tableName string, records []Record) error {
	return s.write(func(log *changeLog) error {
		var partitions []string
		rowKeys := make(map[string][]string)
		for _, r := range records {
			if _, seen := rowKeys[r.PartitionKey]; !seen {
				partitions = append(partitions, r.PartitionKey)
			}
			rowKeys[r.PartitionKey] = append(rowKeys[r.PartitionKey], r.RowKey)
		}
		for _, pk := range partitions {
			s.deleteRowsLocked(tableName, pk, rowKeys[pk], log)
		}

		return s.insertLocked("upsert", tableName, records, log)
	})
}

// Delete removes every record of the partition whose row key is in rowKeys.
// ETags are not checked. Deleting from a missing table is a no-op.
func (s *Store) Delete(tableName, partitionKey string, rowKeys ...string) {
	_ = s.write(func(log *changeLog) error {
		s.deleteRowsLocked(tableName, partitionKey, rowKeys, log)
		return nil
	})
}

func (s *Store) deleteRowsLocked(tableName, partitionKey string, rowKeys []string, log *changeLog) {
	t, ok := s.tables[tableName]
	if !ok {
		return
	}
	for _, rk := range rowKeys {
		if old, removed := t.remove(Key{PartitionKey: partitionKey, RowKey: rk}); removed {
			s.logChange(log, tableName, events.DynamoDBOperationTypeRemove, &old, nil)
		}
	}
}

// DeleteEntities removes the stored records that share a key with records.
//
// Records with no stored match are ignored. Unless force is set, the batch is
// rejected with ErrConflict if a matched record's ETag differs from the stored
// one; nothing is removed in that case. Deleting from a missing table is a no-op.
func (s *Store) DeleteEntities(tableName string, records []Record, force bool) error {
	return s.write(func(log *changeLog) error {
		t, ok := s.tables[tableName]
		if !ok {
			return nil
		}

		if !force {
			for _, r := range records {
				if existing, found := t.get(r.Key()); found && existing.ETag != r.ETag {
					return s.conflict("delete", tableName, r.Key(), "etag mismatch")
				}
			}
		}

		for _, r := range records {
			if old, removed := t.remove(r.Key()); removed {
				s.logChange(log, tableName, events.DynamoDBOperationTypeRemove, &old, nil)
			}
		}
		return nil
	})
}
