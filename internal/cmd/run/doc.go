// Package runcmd wires configuration into a running pipeline: it builds the
// configured backend's source and sink, provisions embedded topics, starts
// the partition loops, and blocks until shutdown.
package runcmd
