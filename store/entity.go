package store

// Key identifies a record within a table.
type Key struct {
	PartitionKey string
	RowKey       string
}

// Record is a stored row: its key, the ETag of its latest write, and an
// opaque payload produced by a codec.
type Record struct {
	PartitionKey string
	RowKey       string
	ETag         ETag
	Payload      []byte
}

// Key returns the record's identity within its table.
func (r Record) Key() Key {
	return Key{PartitionKey: r.PartitionKey, RowKey: r.RowKey}
}

// Entity is a typed record as exposed by Client.
type Entity[T any] struct {
	PartitionKey string
	RowKey       string
	ETag         ETag
	Value        T
}

// Key returns the entity's identity within its table.
func (e Entity[T]) Key() Key {
	return Key{PartitionKey: e.PartitionKey, RowKey: e.RowKey}
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	cloned := make([]byte, len(value))
	copy(cloned, value)
	return cloned
}

func (r Record) clone() Record {
	r.Payload = cloneBytes(r.Payload)
	return r
}
