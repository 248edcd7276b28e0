// Package store declares the persistence interfaces for every taskboard
// entity, the sentinel errors they return, and the transaction helper.
// Implementations live in platform/database.
package store
