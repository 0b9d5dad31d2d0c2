// Package spawntest provides reusable scaffolding for testing code built on
// spawn sessions: an event recorder that captures every session notification,
// a logger that records what was logged at which level, and helpers for
// writing throwaway script fixtures.
package spawntest
