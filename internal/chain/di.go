package chain

import (
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Certifier, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewMoveCertifier(c.Chain, c.ChainModule, c.ChainFunction), nil
	})
}
