// Package client contains Cobra CLI commands that operate on the embedded
// store directly: seeding synthetic sessions and tailing topics.
package client
