// Package store provides an in-memory table store with optimistic concurrency.
//
// It emulates a NoSQL table-storage service closely enough to stand in for one
// in tests: records are addressed by partition key and row key, every write
// issues a fresh [ETag], and batches are validated in full before anything is
// applied.
//
// # Tables
//
// Tables are managed with [Store.CreateTable], [Store.DeleteTable] and
// [Store.ListTables]. [Store.Insert] and [Store.Upsert] create a missing
// table on the fly.
//
// # Writes
//
//   - [Store.Insert] fails if a key is already stored or repeated in the batch
//   - [Store.Update] fails on missing keys, repeated keys or stale ETags (unless forced)
//   - [Store.Upsert] deletes matching rows, then inserts the batch
//   - [Store.Delete] removes rows by key, without ETag checks
//   - [Store.DeleteEntities] removes rows, checking ETags unless forced
//
// # Reads
//
// [Store.GetAll], [Store.GetPartition], [Store.GetRange] and [Store.GetRows]
// return lazy sequences over a snapshot taken when the method is called.
// Reads never fail; a missing table is simply empty.
//
// # Typed access
//
// [Client] wraps a Store with a codec.Codec and works in terms of [Entity]
// values:
//
//	s := store.New(store.DefaultConfig())
//	orders := store.NewClient(s, codec.JSON[Order]())
//	err := orders.Insert("orders", []store.Entity[Order]{
//	    {PartitionKey: "p1", RowKey: "r1", Value: Order{Total: 10}},
//	})
//
// # Change stream
//
// Setting [Config.OnChange] publishes every applied record mutation as a
// DynamoDB Streams style events.DynamoDBEvent. See the stream package for a
// decoding handler.
//
// # Errors
//
//   - [ErrConflict] - key conflict, repeated key, missing key on update, stale ETag
//   - [ErrTableNotFound] - Update on a missing table
package store
