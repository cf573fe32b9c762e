// Package infra contains technical adapters such as the zerolog logger and
// the Prometheus metrics sink. These packages depend only on the interfaces
// and events defined in the core packages.
package infra
