package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/tablemock/internal/attr"
)

type attributeCodec[T any] struct{}

// Attribute returns a codec that marshals values with the DynamoDB attribute
// value rules (including `dynamodbav` struct tags) and stores them as
// DynamoDB JSON, e.g. {"M":{"name":{"S":"x"}}}.
func Attribute[T any]() Codec[T] {
	return attributeCodec[T]{}
}

func (attributeCodec[T]) Encode(v T) ([]byte, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal attribute value: %w", err)
	}
	streamAV, err := attr.ToStream(av)
	if err != nil {
		return nil, err
	}
	return json.Marshal(streamAV)
}

func (attributeCodec[T]) Decode(data []byte) (T, error) {
	var v T
	var streamAV events.DynamoDBAttributeValue
	if err := json.Unmarshal(data, &streamAV); err != nil {
		return v, fmt.Errorf("unmarshal dynamodb json: %w", err)
	}
	av, err := attr.FromStream(streamAV)
	if err != nil {
		return v, err
	}
	if err := attributevalue.Unmarshal(av, &v); err != nil {
		return v, fmt.Errorf("unmarshal attribute value: %w", err)
	}
	return v, nil
}
