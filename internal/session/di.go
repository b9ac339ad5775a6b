package session

import (
	"github.com/foxseedlab/plantbuddy/internal/analysis"
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/chain"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/repository"
	"github.com/foxseedlab/plantbuddy/internal/seal"
	"github.com/foxseedlab/plantbuddy/internal/wallet"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		az := do.MustInvoke[analysis.Analyzer](i)
		sl := do.MustInvoke[seal.Sealer](i)
		pub := do.MustInvoke[blob.Publisher](i)
		cert := do.MustInvoke[chain.Certifier](i)
		repo := do.MustInvoke[repository.Repository](i)
		wallets := do.MustInvoke[*wallet.Registry](i)
		nt := do.MustInvoke[ListingNotifier](i)
		return NewOrchestrator(cfg, az, sl, pub, cert, repo, wallets, nt), nil
	})
}
