// Package services defines the business logic for waitlist moderation,
// hydraulic calculations, and the audit trail. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Waitlist-related errors.
var (
	// ErrEntryNotFound indicates that the requested waitlist entry does not
	// exist (it may already have been approved or rejected).
	ErrEntryNotFound = errors.New("waitlist entry not found")

	// ErrEmptyPayload is returned when an intake or edit request carries no
	// product payload.
	ErrEmptyPayload = errors.New("payload is empty")

	// ErrEmptySlug is returned when an intake request carries no product slug.
	ErrEmptySlug = errors.New("product slug is empty")

	// ErrManualReviewRequired is returned when an approval is attempted on an
	// entry whose validation verdict demands a human decision and the caller
	// did not force the approval.
	ErrManualReviewRequired = errors.New("entry requires manual review")

	// ErrEntryInvalid is returned by bulk approval when skipInvalid is set
	// and the entry's stored verdict failed validation.
	ErrEntryInvalid = errors.New("entry failed validation")

	// ErrProductNotFound indicates that the product an update entry points at
	// no longer exists.
	ErrProductNotFound = errors.New("product not found")
)

// Calculation-related errors.
var (
	// ErrCalculationNotFound indicates that the requested saved calculation
	// does not exist or was deleted.
	ErrCalculationNotFound = errors.New("calculation not found")

	// ErrInvalidMethod is returned when a calculation request names a sizing
	// method other than m1 or m2.
	ErrInvalidMethod = errors.New("method must be m1 or m2")

	// ErrEmptyName is returned when a calculation is saved without a name.
	ErrEmptyName = errors.New("calculation name is empty")
)

// Audit-related errors.
var (
	// ErrAuditNotFound indicates that the requested audit log entry does not
	// exist.
	ErrAuditNotFound = errors.New("audit entry not found")
)
