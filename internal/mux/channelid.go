package mux

import "github.com/google/uuid"

// NewChannelID generates a fresh, opaque channel id for a sub-channel. Per
// spec §3, channel ids must be treated as opaque strings by every consumer.
func NewChannelID() string {
	return uuid.New().String()
}

// RootChannelID and ConsumerChannelID are the two well-known channel ids
// (spec §3). The provider's root object is always reachable on
// RootChannelID, and the consumer addresses RootChannelID as its target;
// pkg/remobj's Provide and Consume do not use ConsumerChannelID.
const (
	RootChannelID     = "root-provider"
	ConsumerChannelID = "root-consumer"
)
