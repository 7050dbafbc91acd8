package model

import "time"

// ChannelBounds is a half-open integer range [Min, Max) for one telemetry channel.
type ChannelBounds struct {
	Min int
	Max int
}

// Contains reports whether v falls inside the range.
func (b ChannelBounds) Contains(v int) bool {
	return v >= b.Min && v < b.Max
}

// Width returns the number of distinct values in the range.
func (b ChannelBounds) Width() int {
	return b.Max - b.Min
}

// Channel bounds for synthetic resource usage, in percent.
var (
	CPUBounds     = ChannelBounds{Min: 30, Max: 60}
	MemoryBounds  = ChannelBounds{Min: 20, Max: 60}
	NetworkBounds = ChannelBounds{Min: 10, Max: 60}
)

// TelemetrySample is one synthetic snapshot of simulated resource usage.
// All values are whole percentages.
type TelemetrySample struct {
	CPU       int
	Memory    int
	Network   int
	SampledAt time.Time
}

// InitialTelemetry is shown before the first tick fires.
var InitialTelemetry = TelemetrySample{CPU: 42, Memory: 35, Network: 28}

// InBounds reports whether every channel is inside its declared range.
func (s TelemetrySample) InBounds() bool {
	return CPUBounds.Contains(s.CPU) &&
		MemoryBounds.Contains(s.Memory) &&
		NetworkBounds.Contains(s.Network)
}
