// Package infra holds the concrete adapters behind the core interfaces:
// the zerolog logger, the Prometheus and InfluxDB metric sinks, and the
// paho MQTT telemetry stream. Nothing under infra is imported by core
// packages; the dependency always points inward.
package infra
