package domain

import "errors"

// ErrBotNotFound is returned by operations addressing an unknown bot id.
var ErrBotNotFound = errors.New("bot not found")

// SnapshotRepository persists the complete simulation state. Load returns
// (nil, nil) when no snapshot has been saved yet.
type SnapshotRepository interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
}

// RandSource supplies uniform samples in [0,1). Injected everywhere randomness
// is consumed so tests can run deterministically. *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}
