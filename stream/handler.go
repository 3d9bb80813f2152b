// Package stream decodes and dispatches the change records published by a
// store.Store through Config.OnChange.
//
// Records follow the DynamoDB Streams shape, so the same handlers can be fed
// from the in-memory store in tests and from a Lambda event source elsewhere.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/tablemock/store"
)

// Change is one decoded change record.
type Change struct {
	EventID   string
	Table     string
	Operation events.DynamoDBOperationType
	Sequence  string
	Key       store.Key

	// Old is the record before the change; nil for inserts or when the stream
	// view type omits old images.
	Old *store.Record

	// New is the record after the change; nil for removals or when the stream
	// view type omits new images.
	New *store.Record
}

// ChangeFunc handles one decoded change.
type ChangeFunc func(ctx context.Context, change Change) error

// Handler dispatches stream records to per-operation callbacks.
// Register callbacks before the handler receives events.
type Handler struct {
	logger   *slog.Logger
	onInsert ChangeFunc
	onModify ChangeFunc
	onRemove ChangeFunc
}

// NewHandler creates a new stream handler.
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// OnInsert sets the callback for INSERT records.
func (h *Handler) OnInsert(fn ChangeFunc) *Handler {
	h.onInsert = fn
	return h
}

// OnModify sets the callback for MODIFY records.
func (h *Handler) OnModify(fn ChangeFunc) *Handler {
	h.onModify = fn
	return h
}

// OnRemove sets the callback for REMOVE records.
func (h *Handler) OnRemove(fn ChangeFunc) *Handler {
	h.onRemove = fn
	return h
}

// HandleEvent processes every record of event in order and stops at the first
// failure. It has the signature of a Lambda DynamoDB handler and of
// store.ChangeFunc.
func (h *Handler) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// processRecord decodes a single record and calls the matching callback.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	var fn ChangeFunc
	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert:
		fn = h.onInsert
	case events.DynamoDBOperationTypeModify:
		fn = h.onModify
	case events.DynamoDBOperationTypeRemove:
		fn = h.onRemove
	default:
		h.logger.Warn("skipping unknown event", "eventID", record.EventID, "eventName", record.EventName)
		return nil
	}
	if fn == nil {
		return nil
	}

	change, err := Decode(record)
	if err != nil {
		return err
	}
	return fn(ctx, change)
}

// Decode converts a stream record into a Change.
func Decode(record events.DynamoDBEventRecord) (Change, error) {
	change := Change{
		EventID:   record.EventID,
		Table:     TableFromARN(record.EventSourceArn),
		Operation: events.DynamoDBOperationType(record.EventName),
		Sequence:  record.Change.SequenceNumber,
		Key:       ConvertStreamKey(record.Change.Keys),
	}

	var err error
	if change.Old, err = decodeImage(record.Change.OldImage); err != nil {
		return Change{}, fmt.Errorf("event %s old image: %w", record.EventID, err)
	}
	if change.New, err = decodeImage(record.Change.NewImage); err != nil {
		return Change{}, fmt.Errorf("event %s new image: %w", record.EventID, err)
	}
	return change, nil
}

// TableFromARN extracts the table name from a stream source ARN such as
// arn:aws:dynamodb:local:000000000000:table/orders/stream/memory.
// It returns "" when the ARN has no table segment.
func TableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// ConvertStreamKey converts stream record keys to a store.Key.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.Key {
	return store.Key{
		PartitionKey: getStringAttr(streamKey, store.AttrPartitionKey),
		RowKey:       getStringAttr(streamKey, store.AttrRowKey),
	}
}

func decodeImage(image map[string]events.DynamoDBAttributeValue) (*store.Record, error) {
	if len(image) == 0 {
		return nil, nil
	}
	etag, err := store.ParseETag(getStringAttr(image, store.AttrETag))
	if err != nil {
		return nil, err
	}
	return &store.Record{
		PartitionKey: getStringAttr(image, store.AttrPartitionKey),
		RowKey:       getStringAttr(image, store.AttrRowKey),
		ETag:         etag,
		Payload:      getBinaryAttr(image, store.AttrPayload),
	}, nil
}

// getStringAttr extracts a string attribute from a stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getBinaryAttr extracts a binary attribute from a stream image.
func getBinaryAttr(image map[string]events.DynamoDBAttributeValue, key string) []byte {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeBinary {
		return v.Binary()
	}
	return nil
}
