// Package notify turns task update events into per-user notifications.
//
// The pipeline has two queued stages. FanOutListener reacts to a
// task.updated event by submitting a single FanOutJob. The FanOutJob
// resolves the recipients and submits one DispatchJob per user, and each
// DispatchJob persists a single notification row. Retries, timeouts and
// crash recovery are handled by the job runner, not by the jobs.
package notify
