// Package services defines the business logic for topics and the messages
// posted to them. This file centralizes service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Topic-related errors.
var (
	// ErrTopicNotFound indicates that no topic exists for the given id.
	// Malformed ids are reported the same way.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrInvalidTopicName is returned when a topic name is blank or exceeds
	// the maximum length after normalization.
	ErrInvalidTopicName = errors.New("invalid topic name")

	// ErrInvalidNotificationConfig is returned when a supplied notification
	// config cannot be used. No topic is created.
	ErrInvalidNotificationConfig = errors.New("invalid notification config")

	// ErrCredentialRejected means the config was incomplete or the provider
	// answered the liveness check with a non-success status.
	ErrCredentialRejected = fmt.Errorf("%w: credential rejected", ErrInvalidNotificationConfig)

	// ErrCredentialUnreachable means the liveness check could not reach the
	// provider at all.
	ErrCredentialUnreachable = fmt.Errorf("%w: provider unreachable", ErrInvalidNotificationConfig)
)

// Message-related errors.
var (
	// ErrInvalidContacts is returned when a message carries no contacts
	// document. JSON null is a valid document.
	ErrInvalidContacts = errors.New("contacts are required")
)
