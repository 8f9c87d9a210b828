package unfreeze

import "context"

// Sender delivers a verification code to a subject over one channel
// (sms, email). Implementations resolve the destination themselves.
type Sender interface {
	Send(ctx context.Context, subjectID, code string) error
}

// ContactDirectory resolves a subject's contact details for code dispatch.
type ContactDirectory interface {
	Phone(ctx context.Context, subjectID string) (string, error)
	Email(ctx context.Context, subjectID string) (string, error)
}
