package agents

import (
	"fmt"
	"time"
)

type FulfillmentMethod string

const (
	FulfillDelivery FulfillmentMethod = "delivery"
	FulfillPickup   FulfillmentMethod = "pickup"
	FulfillInStore  FulfillmentMethod = "in_store"
)

const (
	deliveryLeadDays = 3
	pickupHold       = 48 * time.Hour
)

type FulfillmentPlan struct {
	Kind              FulfillmentMethod `json:"kind"`
	Method            string            `json:"method"`
	OrderID           string            `json:"order_id"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty"`
	TrackingID        string            `json:"tracking_id,omitempty"`
	Address           string            `json:"address,omitempty"`
	StoreID           string            `json:"store_id,omitempty"`
	ReservationID     string            `json:"reservation_id,omitempty"`
	ValidUntil        *time.Time        `json:"valid_until,omitempty"`
	Message           string            `json:"message"`
}

type Fulfillment struct {
	ids IDSource
	now Clock
}

func NewFulfillment(ids IDSource, clock Clock) *Fulfillment {
	if ids == nil {
		ids = &SequenceIDs{}
	}
	return &Fulfillment{ids: ids, now: orClock(clock)}
}

func (a *Fulfillment) Name() string { return NameFulfillment }

func (a *Fulfillment) Arrange(orderID string, method FulfillmentMethod, address, storeID string) FulfillmentPlan {
	now := a.now()
	switch method {
	case FulfillDelivery:
		eta := now.AddDate(0, 0, deliveryLeadDays)
		return FulfillmentPlan{
			Kind:              FulfillDelivery,
			Method:            "Home Delivery",
			OrderID:           orderID,
			EstimatedDelivery: &eta,
			TrackingID:        a.ids.Next("TRACK"),
			Address:           address,
			Message:           fmt.Sprintf("Your order will be delivered by %s", eta.Format(dateLayout)),
		}
	case FulfillPickup:
		until := now.Add(pickupHold)
		return FulfillmentPlan{
			Kind:          FulfillPickup,
			Method:        "Store Pickup",
			OrderID:       orderID,
			StoreID:       storeID,
			ReservationID: a.ids.Next("RES"),
			ValidUntil:    &until,
			Message:       "Your order is reserved. Please collect within 48 hours.",
		}
	default:
		return FulfillmentPlan{
			Kind:    FulfillInStore,
			Method:  "In-Store Purchase",
			OrderID: orderID,
			Message: "Thank you for shopping with us!",
		}
	}
}
