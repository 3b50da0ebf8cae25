package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/hupe1980/pieceset/blobstore"
)

// DDBCommitStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic, versioned commits. This enables safe concurrent writers.
//
// Every Put writes an immutable S3 object "<name>@<version>-<uuid>" and then claims
// the version in DynamoDB with a conditional write. A writer that loses the
// race gets ErrConcurrentModification instead of silently overwriting the
// winner; it should reload and retry.
//
// Table schema:
//   - Partition key: blob_id (string) - baseURI + "/" + name
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name pieceset-commits \
//	  --attribute-definitions AttributeName=blob_id,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=blob_id,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

const versionSep = "@"

// NewDDBCommitStore creates a new S3+DynamoDB commit store.
// The baseURI should be "s3://bucket/prefix" format, used as partition key prefix.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *DDBCommitStore) blobID(name string) string {
	return s.baseURI + "/" + name
}

// objectName is unique per write so a losing writer never clobbers the
// object a winning writer committed for the same version.
func objectName(name string, version uint64) string {
	return fmt.Sprintf("%s%s%020d-%s", name, versionSep, version, uuid.NewString())
}

// Open opens the latest committed version of a blob.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	version, object, err := s.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return s.s3Store.Open(ctx, object)
}

// Version returns the latest committed version of name, or 0 if none.
func (s *DDBCommitStore) Version(ctx context.Context, name string) (uint64, error) {
	version, _, err := s.latest(ctx, name)
	return version, err
}

// Put writes data as the next version of name.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	current, _, err := s.latest(ctx, name)
	if err != nil {
		return err
	}
	return s.commit(ctx, name, current+1, data)
}

// PutIfVersion writes data as version expected+1, failing with
// ErrConcurrentModification if another writer committed since expected.
func (s *DDBCommitStore) PutIfVersion(ctx context.Context, name string, expected uint64, data []byte) error {
	return s.commit(ctx, name, expected+1, data)
}

func (s *DDBCommitStore) commit(ctx context.Context, name string, version uint64, data []byte) error {
	object := objectName(name, version)
	if err := s.s3Store.Put(ctx, object, data); err != nil {
		return err
	}

	// Conditional put: only succeed if this version doesn't exist yet
	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"blob_id":    &types.AttributeValueMemberS{Value: s.blobID(name)},
			"version":    &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"object_key": &types.AttributeValueMemberS{Value: object},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		// The object is unreachable without a commit item.
		_ = s.s3Store.Delete(context.WithoutCancel(ctx), object)

		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return nil
}

// Delete removes every committed version of name.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	items, err := s.query(ctx, name, 0)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.s3Store.Delete(ctx, it.object); err != nil {
			return err
		}
		_, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"blob_id": &types.AttributeValueMemberS{Value: s.blobID(name)},
				"version": &types.AttributeValueMemberN{Value: strconv.FormatUint(it.version, 10)},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete version %d from DynamoDB: %w", it.version, err)
		}
	}
	return nil
}

// List returns the logical names (without version suffix) of blobs with at
// least one committed version. Objects left behind by interrupted writes are
// skipped.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	objects, err := s.s3Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(objects))
	names := []string{}
	for _, obj := range objects {
		i := strings.LastIndex(obj, versionSep)
		if i < 0 {
			continue
		}
		name := obj[:i]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		version, _, err := s.latest(ctx, name)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type commitItem struct {
	version uint64
	object  string
}

// latest queries DynamoDB for the latest committed version.
func (s *DDBCommitStore) latest(ctx context.Context, name string) (uint64, string, error) {
	items, err := s.query(ctx, name, 1)
	if err != nil {
		return 0, "", err
	}
	if len(items) == 0 {
		return 0, "", nil
	}
	return items[0].version, items[0].object, nil
}

// query returns committed versions newest first. limit 0 means all.
func (s *DDBCommitStore) query(ctx context.Context, name string, limit int32) ([]commitItem, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("blob_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: s.blobID(name)},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	var items []commitItem
	for {
		resp, err := s.ddbClient.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		for _, item := range resp.Items {
			ci, err := parseCommitItem(item)
			if err != nil {
				return nil, err
			}
			items = append(items, ci)
		}
		if limit > 0 || len(resp.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func parseCommitItem(item map[string]types.AttributeValue) (commitItem, error) {
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return commitItem{}, errors.New("invalid version attribute in DynamoDB")
	}
	objectAttr, ok := item["object_key"].(*types.AttributeValueMemberS)
	if !ok {
		return commitItem{}, errors.New("invalid object_key attribute in DynamoDB")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return commitItem{}, fmt.Errorf("failed to parse version: %w", err)
	}
	return commitItem{version: version, object: objectAttr.Value}, nil
}
