// Package infra holds the adapters that move simulation output out of the
// process: Prometheus and InfluxDB sinks, the MQTT publisher, Sentry and
// the zerolog logger. They implement interfaces declared under core.
package infra
