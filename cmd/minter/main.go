package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	analysisimpl "github.com/foxseedlab/plantbuddy/external/analysis"
	configloader "github.com/foxseedlab/plantbuddy/external/config"
	"github.com/foxseedlab/plantbuddy/external/discord"
	repositoryimpl "github.com/foxseedlab/plantbuddy/external/repository"
	sealimpl "github.com/foxseedlab/plantbuddy/external/seal"
	"github.com/foxseedlab/plantbuddy/external/signer"
	"github.com/foxseedlab/plantbuddy/external/walrus"
	webhookimpl "github.com/foxseedlab/plantbuddy/external/webhook"
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/chain"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/notify"
	"github.com/foxseedlab/plantbuddy/internal/repository"
	"github.com/foxseedlab/plantbuddy/internal/session"
	"github.com/foxseedlab/plantbuddy/internal/wallet"
	"github.com/samber/do/v2"
)

const signerConnectTimeout = 15 * time.Second

type options struct {
	envFile   string
	session   string
	network   string
	creator   string
	address   string
	outDir    string
	recertify string
	fetch     string
	list      int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("minter", pflag.ContinueOnError)
	flagSet.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&opts.session, "session", "", "recorded session file (YAML or JSON) to upload")
	flagSet.StringVar(&opts.network, "network", "", "target network (MAINNET or TESTNET); defaults to the configured network")
	flagSet.StringVar(&opts.creator, "creator", "", "creator id written into the transcript header")
	flagSet.StringVar(&opts.address, "address", "", "watch-only wallet address used when no signer service is configured")
	flagSet.StringVar(&opts.outDir, "out", ".", "directory the transcript download is written to")
	flagSet.StringVar(&opts.recertify, "recertify", "", "record id of a stored blob to certify again")
	flagSet.StringVar(&opts.fetch, "fetch", "", "blob id to download from the aggregator and print")
	flagSet.IntVar(&opts.list, "list", 0, "print the newest N stored records and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := configloader.Load(opts.envFile)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "network", cfg.DefaultNetwork)

	injector := setupDI(cfg)
	defer injector.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.list > 0:
		return listRecords(ctx, injector, opts.list)
	case opts.fetch != "":
		return fetchBlob(ctx, injector, cfg, opts)
	}

	if err := connectWallet(ctx, injector, cfg, opts.address); err != nil {
		return err
	}
	orchestrator, err := do.Invoke[*session.Orchestrator](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve orchestrator: %w", err)
	}
	if opts.recertify == "" && opts.session == "" {
		return errors.New("--session is required unless --list, --fetch or --recertify is given")
	}
	steps := watchSteps(orchestrator)
	defer steps.stop()

	if opts.recertify != "" {
		res, err := orchestrator.Recertify(ctx, opts.recertify, nil)
		steps.stop()
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}
	return upload(ctx, orchestrator, opts, steps)
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, wallet.NewRegistry())
	repositoryimpl.RegisterDI(injector)
	walrus.RegisterDI(injector)
	analysisimpl.RegisterDI(injector)
	sealimpl.RegisterDI(injector)
	signer.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	chain.RegisterDI(injector)
	do.Provide(injector, provideNotifier)
	session.RegisterDI(injector)

	return injector
}

func provideNotifier(i do.Injector) (session.ListingNotifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	var fanout notify.Fanout
	if cfg.NotifyWebhookURL != "" {
		fanout = append(fanout, do.MustInvoke[*webhookimpl.HTTPNotifier](i))
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		announcer, err := do.Invoke[*discord.Announcer](i)
		if err != nil {
			return nil, fmt.Errorf("failed to create discord announcer: %w", err)
		}
		fanout = append(fanout, announcer)
	}
	slog.Info("listing notifiers configured", "count", len(fanout))
	return fanout, nil
}

// connectWallet makes a wallet active before uploading. A signer service wins
// over a watch-only address.
func connectWallet(ctx context.Context, injector do.Injector, cfg *config.Config, address string) error {
	registry := do.MustInvoke[*wallet.Registry](injector)
	if cfg.SignerURL != "" {
		bridge := do.MustInvoke[*signer.Bridge](injector)
		connectCtx, cancel := context.WithTimeout(ctx, signerConnectTimeout)
		defer cancel()
		if err := bridge.Connect(connectCtx); err != nil {
			slog.Warn("signer service unavailable", "error", err, "url", cfg.SignerURL)
		} else {
			registry.Register(bridge)
			if _, err := registry.Connect(bridge.Name()); err != nil {
				return fmt.Errorf("failed to activate signer wallet: %w", err)
			}
			slog.Info("signer wallet connected", "wallet", bridge.Name(), "address", bridge.Address())
			return nil
		}
	}
	if address == "" {
		return nil
	}
	w := watchOnlyWallet{address: address}
	registry.Register(w)
	if _, err := registry.Connect(w.Name()); err != nil {
		return fmt.Errorf("failed to activate watch-only wallet: %w", err)
	}
	slog.Info("watch-only wallet connected", "address", address)
	return nil
}

// watchOnlyWallet has an address but cannot sign, so uploads are stored
// without certification.
type watchOnlyWallet struct {
	address string
}

func (w watchOnlyWallet) Name() string    { return "watch-only" }
func (w watchOnlyWallet) Address() string { return w.address }

func upload(ctx context.Context, orchestrator *session.Orchestrator, opts options, steps *stepPrinter) error {
	file, err := loadSessionFile(opts.session)
	if err != nil {
		return err
	}
	network := config.Network(opts.network)
	if network == "" {
		network = config.Network(file.Network)
	}
	creator := opts.creator
	if creator == "" {
		creator = file.Creator
	}

	res, err := orchestrator.StartUpload(ctx, session.UploadRequest{
		SessionID: file.SessionID,
		Events:    file.Events,
		Network:   network,
		CreatorID: creator,
	})
	steps.stop()
	if err != nil {
		return err
	}
	printResult(res)

	path := filepath.Join(opts.outDir, res.TranscriptFilename)
	if err := os.WriteFile(path, []byte(res.Transcript), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	fmt.Printf("transcript:  %s\n", path)
	return nil
}

// stepPrinter writes step transitions in the background. stop returns once
// every buffered transition has been written.
type stepPrinter struct {
	unsubscribe func()
	done        chan struct{}
	once        sync.Once
}

func watchSteps(orchestrator *session.Orchestrator) *stepPrinter {
	events, unsubscribe := orchestrator.Subscribe()
	return printSteps(os.Stderr, events, unsubscribe)
}

func printSteps(w io.Writer, events <-chan session.StepEvent, unsubscribe func()) *stepPrinter {
	p := &stepPrinter{unsubscribe: unsubscribe, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for ev := range events {
			fmt.Fprintf(w, "[%s] %s\n", ev.At.Format(time.TimeOnly), ev.Step)
		}
	}()
	return p
}

func (p *stepPrinter) stop() {
	p.once.Do(p.unsubscribe)
	<-p.done
}

func printResult(res *session.UploadResult) {
	rec := res.Record
	fmt.Printf("status:      %s\n", rec.Status)
	fmt.Printf("record:      %s\n", rec.RecordID)
	fmt.Printf("blob:        %s\n", rec.WalrusBlobID)
	fmt.Printf("url:         %s\n", rec.RetrievalURL)
	fmt.Printf("title:       %s\n", rec.Title)
	fmt.Printf("size:        %s\n", rec.SizeLabel)
	fmt.Printf("price:       %d\n", rec.PriceSuggestion)
	if rec.TxDigest != "" {
		fmt.Printf("digest:      %s\n", rec.TxDigest)
	}
	if res.Message != "" {
		fmt.Printf("message:     %s\n", res.Message)
	}
}

func listRecords(ctx context.Context, injector do.Injector, limit int) error {
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve repository: %w", err)
	}
	records, err := repo.ListRecords(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tSTATUS\tNETWORK\tTITLE\tSIZE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.RecordID, r.Status, r.Network, r.Title, r.SizeLabel, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func fetchBlob(ctx context.Context, injector do.Injector, cfg *config.Config, opts options) error {
	network := cfg.DefaultNetwork
	if opts.network != "" {
		n, err := config.ParseNetwork(opts.network)
		if err != nil {
			return err
		}
		network = n
	}
	publisher, err := do.Invoke[blob.Publisher](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve publisher: %w", err)
	}
	payload, err := publisher.Fetch(ctx, network, opts.fetch)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(payload)
	return err
}
