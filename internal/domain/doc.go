// Package domain holds the taskboard entities (tasks, projects, comments,
// users and notifications) together with their input validation, list
// filters and pagination types. It has no storage or transport imports.
package domain
