package metrics

// Package metrics defines the interfaces used to observe simulation runs.
// Sinks like PromSink and InfluxSink record depot events, finished
// iterations and analysis estimates, and can be combined with NewMultiSink.
// The factory helpers return a MultiSink automatically when multiple sinks
// are configured.
