package discord

import (
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Announcer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAnnouncer(c.DiscordToken, c.DiscordChannelID)
	})
}
