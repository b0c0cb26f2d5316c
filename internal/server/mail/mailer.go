// Package mail delivers activation codes through the outbound mail
// collaborator. The production implementation talks to an HTTP mail
// gateway; tests use a recording fake.
package mail

import "context"

// Mailer sends an activation code to an email address. Implementations
// own their retry budget; a returned error means the budget is exhausted.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}
