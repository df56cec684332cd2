// Package delete handles bounded-concurrency deletion of objects.
//
// Every identifier runs in its own goroutine; a counting semaphore caps how
// many delete requests are in flight. Individual failures are recorded as
// outcomes and never stop the rest of the batch.
package delete
