// Package resource limits the memory, concurrency and IO bandwidth used by
// checkpoint persistence and peer-wire transfers.
//
//   - Memory: bytes of checkpoint data held in flight (weighted semaphore)
//   - Workers: concurrent background loads and saves (semaphore)
//   - IO: bytes per second through AcquireIO and the rate-limited
//     reader/writer wrappers (token bucket)
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	    IOLimitBytesPerSec:   8 << 20,
//	})
//	store := checkpoint.New(blobs, checkpoint.WithResourceController(rc))
//
// All methods are safe for concurrent use, and a nil *Controller imposes no
// limits.
package resource
