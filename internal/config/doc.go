// Package config loads the taskboard settings from an optional config.yaml
// and TASKBOARD_ environment variables, then validates them. Each concern
// (server, database, auth, cache, jobs) gets its own struct.
package config
