package adapter

import (
	"context"

	"foodflow-pickup/internal/domain/model"
)

// Credential is the caller's access token for the FoodFlow backend. It is
// passed explicitly with every call.
type Credential struct {
	Token string
}

// PickupCompleter is the external complete-pickup operation. code is six
// ASCII digits. Failures should be *domain.VerificationFailedError.
type PickupCompleter interface {
	CompletePickup(ctx context.Context, cred Credential, donationID, code string) error
}

// TolerancePolicyProvider supplies the tolerance policy in force.
type TolerancePolicyProvider interface {
	GetTolerancePolicy(ctx context.Context) (*model.TolerancePolicy, error)
}
