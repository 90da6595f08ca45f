package domain

// Audit action vocabulary. Every moderation decision writes exactly one of
// these; the summary variants record the aggregate outcome of a bulk run.
const (
	AuditApproveNew         = "approve_new"
	AuditApproveUpdate      = "approve_update"
	AuditRejectNew          = "reject_new"
	AuditRejectUpdate       = "reject_update"
	AuditBulkApprove        = "bulk_approve"
	AuditBulkReject         = "bulk_reject"
	AuditBulkApproveSummary = "bulk_approve_summary"
	AuditBulkRejectSummary  = "bulk_reject_summary"
	AuditUpdatePayload      = "update_payload"
)

// Audit target types.
const (
	AuditTargetProduct       = "product"
	AuditTargetWaitlist      = "waitlist_update"
	AuditTargetBulkOperation = "waitlist_bulk_operation"
)

// Product status values used by the moderation pipeline. Approval always
// forces a product to StatusActive.
const (
	StatusActive          = "active"
	StatusPassive         = "passive"
	StatusWaitingApproval = "waiting_approval"
)
