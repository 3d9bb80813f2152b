package store

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
)

// ChangeFunc receives the change records produced by one store call.
// Its signature matches a Lambda DynamoDB stream handler.
type ChangeFunc func(ctx context.Context, event events.DynamoDBEvent) error

// Config holds configuration for the Store.
type Config struct {
	// Logger receives debug and warning output.
	// Default: slog.Default()
	Logger *slog.Logger

	// OnChange, when set, is called after every call that applied at least one
	// record mutation. It runs outside the store lock and may call back into the store.
	// Default: nil (no change capture)
	OnChange ChangeFunc

	// StreamViewType selects which images are attached to change records:
	// KEYS_ONLY, NEW_IMAGE, OLD_IMAGE or NEW_AND_OLD_IMAGES.
	// Default: NEW_AND_OLD_IMAGES
	StreamViewType events.DynamoDBStreamViewType

	// Region is reported in change records and their source ARN.
	// Default: "local"
	Region string
}

// DefaultConfig returns the configuration used by New when no options are needed.
func DefaultConfig() Config {
	return Config{
		Logger:         slog.Default(),
		StreamViewType: events.DynamoDBStreamViewTypeNewAndOldImages,
		Region:         "local",
	}
}

// validate fills defaults for unset or unknown values.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	switch c.StreamViewType {
	case events.DynamoDBStreamViewTypeKeysOnly,
		events.DynamoDBStreamViewTypeNewImage,
		events.DynamoDBStreamViewTypeOldImage,
		events.DynamoDBStreamViewTypeNewAndOldImages:
	default:
		c.StreamViewType = events.DynamoDBStreamViewTypeNewAndOldImages
	}
	if c.Region == "" {
		c.Region = "local"
	}
}
