// Package blobstore provides storage abstraction for persisted piece sets.
//
// BlobStore is the interface for reading and writing named blobs
// (checkpoints). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and ephemeral sessions
//   - LocalStore: local filesystem with atomic rename on write
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB conditional writes for safe concurrent writers
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
