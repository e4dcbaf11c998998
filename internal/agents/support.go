package agents

import (
	"fmt"
	"time"
)

type TrackingUpdate struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

type TrackingStatus struct {
	OrderID           string           `json:"order_id"`
	Status            string           `json:"status"`
	Location          string           `json:"location"`
	EstimatedDelivery time.Time        `json:"estimated_delivery"`
	Updates           []TrackingUpdate `json:"updates"`
}

type ReturnTicket struct {
	Eligible        bool      `json:"eligible"`
	ReturnID        string    `json:"return_id"`
	OrderID         string    `json:"order_id"`
	Reason          string    `json:"reason"`
	PickupScheduled time.Time `json:"pickup_scheduled"`
	RefundAmount    int       `json:"refund_amount"`
	RefundMethod    string    `json:"refund_method"`
	Message         string    `json:"message"`
}

type FeedbackReceipt struct {
	FeedbackID string `json:"feedback_id"`
	Message    string `json:"message"`
}

type Support struct {
	ids IDSource
	now Clock
}

func NewSupport(ids IDSource, clock Clock) *Support {
	if ids == nil {
		ids = &SequenceIDs{}
	}
	return &Support{ids: ids, now: orClock(clock)}
}

func (a *Support) Name() string { return NameSupport }

func (a *Support) Track(orderID string) TrackingStatus {
	return TrackingStatus{
		OrderID:           orderID,
		Status:            "In Transit",
		Location:          "Mumbai Distribution Center",
		EstimatedDelivery: a.now().Add(48 * time.Hour),
		Updates: []TrackingUpdate{
			{Time: "2 hours ago", Status: "Dispatched from warehouse"},
			{Time: "5 hours ago", Status: "Order packed"},
		},
	}
}

func (a *Support) Return(orderID, reason string, refundAmount int) ReturnTicket {
	pickup := a.now().Add(24 * time.Hour)
	return ReturnTicket{
		Eligible:        true,
		ReturnID:        a.ids.Next("RET"),
		OrderID:         orderID,
		Reason:          reason,
		PickupScheduled: pickup,
		RefundAmount:    refundAmount,
		RefundMethod:    "Original payment method",
		Message:         fmt.Sprintf("Return initiated for %s (%s). Pickup scheduled for %s.", orderID, reason, pickup.Format(dateLayout)),
	}
}

func (a *Support) Feedback() FeedbackReceipt {
	return FeedbackReceipt{
		FeedbackID: a.ids.Next("FB"),
		Message:    "Thank you for your feedback! We value your opinion.",
	}
}
