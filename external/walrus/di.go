package walrus

import (
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (blob.Publisher, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPPublisher(HTTPPublisherConfig{
			Endpoints:      c.Storage,
			Epochs:         c.StorageEpochs,
			AttemptTimeout: c.StorageAttemptTimeout,
			RetryPasses:    c.StorageRetryPasses,
			RetryBackoff:   c.StorageRetryBackoff,
		}), nil
	})
}
