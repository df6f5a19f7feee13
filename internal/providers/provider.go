package providers

import (
	"context"

	"bjugstad/fleetsync/internal/models/entities"
)

// MachineProvider is implemented by every OEM telemetry adapter. FetchAll
// walks the provider's full fleet listing (all pages) and returns rows
// already normalized to the common machine shape, pre-merge. Items without
// a usable identifier are dropped silently; any transport, auth or decode
// failure aborts the whole fetch.
type MachineProvider interface {
	Name() string
	FetchAll(ctx context.Context) ([]entities.MachineRow, error)
}
