// Package s3 provides S3 implementations of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.NewFromDefaultConfig(ctx, "my-bucket", "checkpoints/")
//	cp := checkpoint.New(store)
//
// For several writers sharing checkpoints, wrap the store with a DynamoDB
// commit table:
//
//	committed := s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), "pieceset-commits", "s3://my-bucket/checkpoints")
//
// # Features
//
//   - Range reads for partial fetches
//   - Managed (multipart when large) uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Versioned compare-and-swap commits via DynamoDB
package s3
