package model

// Donation is the slice of a donation record the confirmation flow needs.
type Donation struct {
	ID                  string      `json:"id"`
	ConfirmedPickupSlot *PickupSlot `json:"confirmed_pickup_slot,omitempty"`
}

func (d *Donation) IsZero() bool { return d == nil || d.ID == "" }
