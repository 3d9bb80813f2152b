package store

import (
	"fmt"
	"iter"

	"github.com/jacentio/tablemock/codec"
)

// Client provides typed access to a Store, encoding values with a codec.
type Client[T any] struct {
	store *Store
	codec codec.Codec[T]
}

// NewClient binds a codec to s. A nil codec selects codec.Attribute.
func NewClient[T any](s *Store, c codec.Codec[T]) *Client[T] {
	if c == nil {
		c = codec.Attribute[T]()
	}
	return &Client[T]{store: s, codec: c}
}

// Store returns the underlying store.
func (c *Client[T]) Store() *Store {
	return c.store
}

// GetAll returns every entity of a table. See Store.GetAll.
func (c *Client[T]) GetAll(tableName string) iter.Seq2[Entity[T], error] {
	return c.decode(c.store.GetAll(tableName))
}

// GetPartition returns the entities of one partition. See Store.GetPartition.
func (c *Client[T]) GetPartition(tableName, partitionKey string) iter.Seq2[Entity[T], error] {
	return c.decode(c.store.GetPartition(tableName, partitionKey))
}

// GetRange returns a row-key range of one partition. See Store.GetRange.
func (c *Client[T]) GetRange(tableName, partitionKey, startRowKey, endRowKey string) iter.Seq2[Entity[T], error] {
	return c.decode(c.store.GetRange(tableName, partitionKey, startRowKey, endRowKey))
}

// GetRows returns the entities of one partition with the given row keys. See Store.GetRows.
func (c *Client[T]) GetRows(tableName, partitionKey string, rowKeys ...string) iter.Seq2[Entity[T], error] {
	return c.decode(c.store.GetRows(tableName, partitionKey, rowKeys...))
}

// Insert encodes and inserts entities. See Store.Insert.
// Assigned ETags are written back into entities.
func (c *Client[T]) Insert(tableName string, entities []Entity[T]) error {
	records, err := c.encode(entities)
	if err != nil {
		return err
	}
	err = c.store.Insert(tableName, records)
	copyETags(entities, records)
	return err
}

// Update encodes and replaces entities. See Store.Update.
// Assigned ETags are written back into entities.
func (c *Client[T]) Update(tableName string, entities []Entity[T], force bool) error {
	records, err := c.encode(entities)
	if err != nil {
		return err
	}
	err = c.store.Update(tableName, records, force)
	copyETags(entities, records)
	return err
}

// Upsert encodes and writes entities. See Store.Upsert.
// Assigned ETags are written back into entities.
func (c *Client[T]) Upsert(tableName string, entities []Entity[T]) error {
	records, err := c.encode(entities)
	if err != nil {
		return err
	}
	err = c.store.Upsert(tableName, records)
	copyETags(entities, records)
	return err
}

// Delete removes rows of one partition by row key. See Store.Delete.
func (c *Client[T]) Delete(tableName, partitionKey string, rowKeys ...string) {
	c.store.Delete(tableName, partitionKey, rowKeys...)
}

// DeleteEntities removes the stored rows matching entities. See Store.DeleteEntities.
// Values are not encoded; only keys and ETags are used.
func (c *Client[T]) DeleteEntities(tableName string, entities []Entity[T], force bool) error {
	records := make([]Record, len(entities))
	for i, e := range entities {
		records[i] = Record{PartitionKey: e.PartitionKey, RowKey: e.RowKey, ETag: e.ETag}
	}
	return c.store.DeleteEntities(tableName, records, force)
}

// encode converts the whole batch before anything reaches the store.
func (c *Client[T]) encode(entities []Entity[T]) ([]Record, error) {
	records := make([]Record, len(entities))
	for i, e := range entities {
		payload, err := c.codec.Encode(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", e.PartitionKey, e.RowKey, err)
		}
		records[i] = Record{
			PartitionKey: e.PartitionKey,
			RowKey:       e.RowKey,
			ETag:         e.ETag,
			Payload:      payload,
		}
	}
	return records, nil
}

func (c *Client[T]) decode(records iter.Seq[Record]) iter.Seq2[Entity[T], error] {
	return func(yield func(Entity[T], error) bool) {
		for r := range records {
			value, err := c.codec.Decode(r.Payload)
			if err != nil {
				err = fmt.Errorf("decode %s/%s: %w", r.PartitionKey, r.RowKey, err)
			}
			entity := Entity[T]{
				PartitionKey: r.PartitionKey,
				RowKey:       r.RowKey,
				ETag:         r.ETag,
				Value:        value,
			}
			if !yield(entity, err) {
				return
			}
		}
	}
}

func copyETags[T any](entities []Entity[T], records []Record) {
	for i := range entities {
		entities[i].ETag = records[i].ETag
	}
}

// Collect drains a typed sequence, stopping at the first decode error.
func Collect[T any](seq iter.Seq2[Entity[T], error]) ([]Entity[T], error) {
	var out []Entity[T]
	for e, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
