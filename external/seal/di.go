package seal

import (
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/seal"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (seal.Sealer, error) {
		c := do.MustInvoke[*config.Config](i)
		if len(c.EncryptionAgeRecipients) == 0 {
			return NewDelaySealer(c.EncryptionDelay), nil
		}
		return NewAgeSealer(c.EncryptionAgeRecipients, c.EncryptionDelay)
	})
}
