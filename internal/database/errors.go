// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

package database

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrDuplicate is returned when a row with the same natural key exists.
	ErrDuplicate = errors.New("record already exists")

	// ErrUnknownRegion is returned when a write references a missing region.
	ErrUnknownRegion = errors.New("region does not exist")
)

// closeQuietly closes a resource during error cleanup, ignoring the error.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isConnectionError reports whether err means the pool could not reach the
// database, as opposed to a statement failing.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "Could not set lock")
}

// isConstraintError reports whether err is a DuckDB constraint violation.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") ||
		strings.Contains(msg, "violates") ||
		strings.Contains(msg, "Duplicate key")
}
