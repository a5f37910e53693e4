// Package models contains GORM-specific persistence models for tables that
// have no domain aggregate of their own. Marketplace aggregates carry their
// own mappings; the outbox row is pure infrastructure and lives here so the
// event plumbing stays out of the domain layer.
package models
