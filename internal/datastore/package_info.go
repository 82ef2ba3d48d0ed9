// Package datastore defines the Store contract that holds flags and segments
// between evaluations, and an in-memory implementation of it. Persistent
// backends, such as redisstore, implement the same contract from outside
// this package.
package datastore
