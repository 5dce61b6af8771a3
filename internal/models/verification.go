package models

// VerificationStatus is the server's view of an email verification in progress.
// The remaining-seconds counters are recomputed by the server on every request.
type VerificationStatus struct {
	Email                        string     `json:"email"`
	IsVerified                   bool       `json:"is_verified"`
	CodeExpiresAt                *Timestamp `json:"code_expires_at"`
	AccountDeletionAt            *Timestamp `json:"account_deletion_at"`
	TimeRemainingSeconds         *int       `json:"time_remaining_seconds"`
	DeletionTimeRemainingSeconds *int       `json:"deletion_time_remaining_seconds"`
}

// VerifyEmailRequest submits a verification code
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// EmailRequest carries a bare email address
type EmailRequest struct {
	Email string `json:"email"`
}
