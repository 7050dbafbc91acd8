package driven

import (
	"context"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

// Locator defines the driven port for the device location capability.
type Locator interface {
	// Available reports whether the host offers location at all. It must not
	// block or perform I/O.
	Available() bool

	// Locate performs one location request. Failures are returned as
	// *model.AcquisitionError; implementations must honor ctx cancellation.
	Locate(ctx context.Context) (model.Position, error)
}
