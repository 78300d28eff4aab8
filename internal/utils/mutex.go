package utils

import "sync"

var mu sync.Mutex

// ExecuteWithMutex serializes fn with every other call, e.g. shared map writes and progress
// output from pool workers.
func ExecuteWithMutex(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	fn()
}
