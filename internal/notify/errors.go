package notify

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a network-level failure talking to the provider:
	// no HTTP response was obtained at all.
	ErrTransport = errors.New("notify: provider unreachable")

	// ErrInvalidConfig is returned by DecodeConfig and Config.Validate when a
	// notification config is malformed or incomplete.
	ErrInvalidConfig = errors.New("notify: invalid notification config")
)

// DeliveryState is the lifecycle of a single notification attempt.
//
//	NotAttempted -> Sending -> {Delivered | TransportFailed | Rejected}
//
// There are no back transitions and no retries.
type DeliveryState string

const (
	StateNotAttempted    DeliveryState = "not_attempted"
	StateSending         DeliveryState = "sending"
	StateDelivered       DeliveryState = "delivered"
	StateTransportFailed DeliveryState = "transport_failed"
	StateRejected        DeliveryState = "rejected"
)

// Failure reasons attached to non-delivered outcomes.
const (
	ReasonTransport          = "transport"
	ReasonRejected           = "rejected"
	ReasonResponseUnreadable = "response-unreadable"
)

// DeliveryError describes a send that did not end in StateDelivered.
type DeliveryError struct {
	State  DeliveryState
	Reason string
	// Status is the provider HTTP status, 0 for transport failures.
	Status int
	// Detail is the provider's description of the rejection, best effort.
	Detail string
	Err    error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Status != 0 && e.Detail != "":
		return fmt.Sprintf("notify: %s (status %d): %s", e.Reason, e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("notify: %s (status %d)", e.Reason, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("notify: %s: %v", e.Reason, e.Err)
	default:
		return "notify: " + e.Reason
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }
