package app

import "context"

// PaymentProcessor is the external payment collaborator. The core only needs
// a success signal; a nil error means the charge went through.
type PaymentProcessor interface {
	Charge(ctx context.Context, userID string, amount float64) error
}

// SimulatedProcessor approves every charge. Real payment processing is an
// external concern; this stands in for its success callback.
type SimulatedProcessor struct{}

// Charge always succeeds.
func (SimulatedProcessor) Charge(context.Context, string, float64) error {
	return nil
}
