package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// Attribute names used in change record keys and images.
const (
	AttrPartitionKey = "PartitionKey"
	AttrRowKey       = "RowKey"
	AttrETag         = "ETag"
	AttrPayload      = "Payload"
)

// changeLog accumulates the change records of one store call.
type changeLog struct {
	records []events.DynamoDBEventRecord
}

// StreamARN returns the stream source ARN reported for a table's changes.
func StreamARN(region, tableName string) string {
	return fmt.Sprintf("arn:aws:dynamodb:%s:000000000000:table/%s/stream/memory", region, tableName)
}

// logChange appends one change record to log. Callers must hold the store lock.
func (s *Store) logChange(log *changeLog, tableName string, op events.DynamoDBOperationType, old, current *Record) {
	if s.config.OnChange == nil {
		return
	}

	var k Key
	if current != nil {
		k = current.Key()
	} else {
		k = old.Key()
	}

	s.streamSeq++
	change := events.DynamoDBStreamRecord{
		ApproximateCreationDateTime: events.SecondsEpochTime{Time: time.Now()},
		Keys:                        keyImage(k),
		SequenceNumber:              fmt.Sprintf("%021d", s.streamSeq),
		SizeBytes:                   int64(len(k.PartitionKey) + len(k.RowKey)),
		StreamViewType:              string(s.config.StreamViewType),
	}

	view := s.config.StreamViewType
	if current != nil && (view == events.DynamoDBStreamViewTypeNewImage || view == events.DynamoDBStreamViewTypeNewAndOldImages) {
		change.NewImage = recordImage(*current)
		change.SizeBytes += int64(len(current.Payload))
	}
	if old != nil && (view == events.DynamoDBStreamViewTypeOldImage || view == events.DynamoDBStreamViewTypeNewAndOldImages) {
		change.OldImage = recordImage(*old)
		change.SizeBytes += int64(len(old.Payload))
	}

	log.records = append(log.records, events.DynamoDBEventRecord{
		AWSRegion:      s.config.Region,
		EventID:        uuid.NewString(),
		EventName:      string(op),
		EventSource:    "aws:dynamodb",
		EventVersion:   "1.1",
		EventSourceArn: StreamARN(s.config.Region, tableName),
		Change:         change,
	})
}

// publish delivers the changes of one call. Delivery failures are logged and
// never undo the mutation.
func (s *Store) publish(log *changeLog) {
	if s.config.OnChange == nil || len(log.records) == 0 {
		return
	}
	event := events.DynamoDBEvent{Records: log.records}
	if err := s.config.OnChange(context.Background(), event); err != nil {
		s.logger.Warn("failed to deliver changes",
			"records", len(log.records),
			"error", err,
		)
	}
}

func keyImage(k Key) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		AttrPartitionKey: events.NewStringAttribute(k.PartitionKey),
		AttrRowKey:       events.NewStringAttribute(k.RowKey),
	}
}

func recordImage(r Record) map[string]events.DynamoDBAttributeValue {
	image := keyImage(r.Key())
	image[AttrETag] = events.NewStringAttribute(r.ETag.String())
	image[AttrPayload] = events.NewBinaryAttribute(cloneBytes(r.Payload))
	return image
}
