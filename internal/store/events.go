package store

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Store lifecycle signals.
var (
	// LoadCompleted is emitted after the collection was read.
	// Fields: BackendKey, LocationKey, RecordsKey, DurationMsKey.
	LoadCompleted = capitan.NewSignal("store.load.completed", "User collection loaded")

	// SaveCompleted is emitted after the collection was replaced.
	// Fields: BackendKey, LocationKey, RecordsKey, DurationMsKey.
	SaveCompleted = capitan.NewSignal("store.save.completed", "User collection saved")

	// Failed is emitted when a load or save fails.
	// Fields: BackendKey, LocationKey, OperationKey, DurationMsKey, ErrorKey.
	Failed = capitan.NewSignal("store.failed", "User collection load or save failed")
)

// Event field keys for store operations.
var (
	BackendKey    = capitan.NewStringKey("backend")
	LocationKey   = capitan.NewStringKey("location")
	OperationKey  = capitan.NewStringKey("operation")
	RecordsKey    = capitan.NewIntKey("records")
	DurationMsKey = capitan.NewInt64Key("duration_ms")
	ErrorKey      = capitan.NewStringKey("error")
)

func emitCompleted(ctx context.Context, op, backend, location string, records int, start time.Time) {
	signal := LoadCompleted
	if op == "save" {
		signal = SaveCompleted
	}
	capitan.Info(ctx, signal,
		BackendKey.Field(backend),
		LocationKey.Field(location),
		RecordsKey.Field(records),
		DurationMsKey.Field(time.Since(start).Milliseconds()),
	)
}

func emitFailed(ctx context.Context, op, backend, location string, start time.Time, err error) {
	capitan.Error(ctx, Failed,
		BackendKey.Field(backend),
		LocationKey.Field(location),
		OperationKey.Field(op),
		DurationMsKey.Field(time.Since(start).Milliseconds()),
		ErrorKey.Field(err.Error()),
	)
}
