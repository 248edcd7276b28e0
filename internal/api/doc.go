// Package api exposes the taskboard services over a JSON REST API. Handlers
// decode and validate requests, call a service, and write the success or
// error envelope. NewRouter assembles the full route table.
package api
