package store

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"studyspots/internal/model"
)

// batchLimit is DynamoDB's maximum number of writes per BatchWriteItem.
const batchLimit = 25

// Dynamo keeps locations and reviews in two tables, both keyed by "id".
type Dynamo struct {
	client         *dynamodb.Client
	locationsTable string
	reviewsTable   string
}

func NewDynamo(client *dynamodb.Client, locationsTable, reviewsTable string) *Dynamo {
	return &Dynamo{
		client:         client,
		locationsTable: locationsTable,
		reviewsTable:   reviewsTable,
	}
}

func (d *Dynamo) ListLocations(ctx context.Context) ([]model.Location, error) {
	out := make([]model.Location, 0, 64)
	err := d.scan(ctx, d.locationsTable, func(item map[string]dynamodbtypes.AttributeValue) {
		var loc model.Location
		if err := attributevalue.UnmarshalMap(item, &loc); err != nil {
			log.Printf("skip undecodable location: %v", err)
			return
		}
		out = append(out, loc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan locations: %w", err)
	}
	return out, nil
}

func (d *Dynamo) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	assignID(&loc)
	item, err := attributevalue.MarshalMap(loc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal location: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.locationsTable),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save location: %w", err)
	}
	return strconv.FormatInt(loc.ID, 10), nil
}

func (d *Dynamo) ListReviews(ctx context.Context) ([]model.Review, error) {
	out := make([]model.Review, 0, 128)
	err := d.scan(ctx, d.reviewsTable, func(item map[string]dynamodbtypes.AttributeValue) {
		var r model.Review
		if err := attributevalue.UnmarshalMap(item, &r); err != nil {
			log.Printf("skip undecodable review: %v", err)
			return
		}
		out = append(out, r)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reviews: %w", err)
	}
	return out, nil
}

// InsertReviews writes in chunks of 25. BatchWriteItem overwrites on the
// same key, so every accepted item is counted.
func (d *Dynamo) InsertReviews(ctx context.Context, reviews []model.Review) (int, error) {
	n := 0
	for start := 0; start < len(reviews); start += batchLimit {
		end := min(start+batchLimit, len(reviews))

		reqs := make([]dynamodbtypes.WriteRequest, 0, end-start)
		for _, r := range reviews[start:end] {
			if r.ID == "" {
				r.ID = newReviewID()
			}
			item, err := attributevalue.MarshalMap(r)
			if err != nil {
				return n, fmt.Errorf("failed to marshal review: %w", err)
			}
			reqs = append(reqs, dynamodbtypes.WriteRequest{
				PutRequest: &dynamodbtypes.PutRequest{Item: item},
			})
		}

		pending := map[string][]dynamodbtypes.WriteRequest{d.reviewsTable: reqs}
		for len(pending) > 0 {
			out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return n, fmt.Errorf("failed to save reviews: %w", err)
			}
			pending = out.UnprocessedItems
		}
		n += len(reqs)
	}
	return n, nil
}

func (d *Dynamo) Close() {}

func (d *Dynamo) scan(ctx context.Context, table string, fn func(map[string]dynamodbtypes.AttributeValue)) error {
	var lastEvaluatedKey map[string]dynamodbtypes.AttributeValue
	for {
		input := &dynamodb.ScanInput{TableName: aws.String(table)}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}
		result, err := d.client.Scan(ctx, input)
		if err != nil {
			return err
		}
		for _, item := range result.Items {
			fn(item)
		}
		lastEvaluatedKey = result.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			return nil
		}
	}
}
