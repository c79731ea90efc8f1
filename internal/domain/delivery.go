package domain

import "time"

// DeliveryState tracks fulfillment of a period's payout.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryEnRoute   DeliveryState = "en_route"
	DeliveryDelivered DeliveryState = "delivered"
)

// Delivery is the payout for one period, addressed to the holder of that period's position.
// swagger:model Delivery
type Delivery struct {
	ID          string        `json:"id"`
	GroupID     string        `json:"group_id"`
	RecipientID string        `json:"recipient_id"`
	Period      int           `json:"period"`
	ProductRef  string        `json:"product_ref,omitempty"`
	State       DeliveryState `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewDelivery returns a pending delivery. ID is typically set by the repository on save.
func NewDelivery(groupID, recipientID string, period int, productRef string, now time.Time) *Delivery {
	return &Delivery{
		GroupID:     groupID,
		RecipientID: recipientID,
		Period:      period,
		ProductRef:  productRef,
		State:       DeliveryPending,
		CreatedAt:   now,
	}
}

// Clone returns a copy of d.
func (d *Delivery) Clone() *Delivery {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

