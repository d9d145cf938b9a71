// Package server implements the HTTP boundary of meetlink: the two
// meeting-creation endpoints and the history read model, session
// resolution from the caller's upstream credential, health probes for
// Kubernetes, and the dedicated Prometheus metrics server.
package server
