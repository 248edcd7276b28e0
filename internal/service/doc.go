// Package service contains the application use cases. Services validate
// input against the domain rules, run mutations inside store transactions,
// keep the read cache consistent and publish domain events after commit.
//
// Services depend on the store interfaces in internal/store and never on a
// concrete database. Expected conditions come back as the sentinel errors of
// internal/domain and internal/store so the API layer can map them with
// errors.Is; everything else is wrapped in *ServiceError.
package service
