package module

import (
	"time"
)

// EpochMetrics tracks the progress of the epoch driver.
type EpochMetrics interface {
	// EpochAdvanced reports the engine's epoch after a step.
	EpochAdvanced(epoch uint64)

	// BatchesAgreed counts batches output by the engine in a single step.
	BatchesAgreed(count int)

	// ProposalSubmitted records the number of items in a proposal handed to the engine.
	ProposalSubmitted(items int)

	// TimerPeriod records the current proposal timer period.
	TimerPeriod(period time.Duration)

	// FaultsReported counts faults the engine observed in a single step.
	FaultsReported(count int)

	// BatchProcessed records how long applying a group of batches took.
	BatchProcessed(duration time.Duration)

	// SubmissionHandled counts client submissions by outcome ("accepted" or a reject reason).
	SubmissionHandled(outcome string)
}

// GatewayMetrics tracks the client facing REST gateway.
type GatewayMetrics interface {
	// RequestServed records an HTTP request by route and status code.
	RequestServed(route string, code int, duration time.Duration)

	// ResponsesDelivered counts signature responses handed to clients.
	ResponsesDelivered(count int)

	// IntakeQueueLength records the number of submissions waiting for the driver.
	IntakeQueueLength(length int)
}

// TransportMetrics tracks the peer to peer transport.
type TransportMetrics interface {
	// MessageSent records an outbound message to a peer.
	MessageSent(sizeBytes int)

	// MessageReceived records an inbound message from a peer.
	MessageReceived(sizeBytes int)

	// MessageDropped counts inbound frames which could not be attributed to a peer.
	MessageDropped(reason string)
}
