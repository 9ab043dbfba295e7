package domain

import "errors"

// Sentinel errors of the enrollment and content core. The delivery layer
// maps these to HTTP status classes with errors.Is.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrNotEnrolled        = errors.New("not enrolled in this course")

	ErrInvalidPromoCode   = errors.New("invalid or exhausted promo code")
	ErrReceiptRequired    = errors.New("bank transfer requires a receipt upload")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrTransactionNotFound = errors.New("no enrollment matches this transaction")
	ErrInvalidSignature    = errors.New("invalid webhook signature")

	ErrNotPendingBankTransfer = errors.New("enrollment is not a pending bank transfer")

	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrGradeOutOfRange    = errors.New("grade exceeds assignment max grade")
)
