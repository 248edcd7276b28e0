// Package job runs background work. Submitted jobs are persisted before
// they are queued, executed by a fixed pool of workers with bounded
// retries and per-attempt timeouts, and re-queued after a crash by a
// periodic sweep. Delivery is at-least-once.
package job
