package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foxseedlab/plantbuddy/internal/analysis"
	"github.com/foxseedlab/plantbuddy/internal/blob"
	"github.com/foxseedlab/plantbuddy/internal/chain"
	"github.com/foxseedlab/plantbuddy/internal/config"
	"github.com/foxseedlab/plantbuddy/internal/notify"
	"github.com/foxseedlab/plantbuddy/internal/repository"
	"github.com/foxseedlab/plantbuddy/internal/seal"
	"github.com/foxseedlab/plantbuddy/internal/wallet"
)

const (
	notifyTimeout     = 15 * time.Second
	persistTimeout    = 10 * time.Second
	subscriberBacklog = 16
)

type ListingNotifier interface {
	NotifyListing(ctx context.Context, notice notify.ListingNotice) error
}

// UploadRequest describes one recorded session. An empty SessionID is
// generated, an empty Network falls back to the configured default, and a nil
// Signer falls back to the active wallet.
type UploadRequest struct {
	SessionID string
	Events    []InteractionEvent
	Network   config.Network
	CreatorID string
	Signer    wallet.Wallet
}

type UploadResult struct {
	Record             repository.DataBlobRecord
	Transcript         string
	TranscriptFilename string
	Certification      chain.Outcome
	Analysis           analysis.Analysis
	AnalysisFallback   bool
	Message            string
}

type Orchestrator struct {
	cfg       *config.Config
	analyzer  analysis.Analyzer
	sealer    seal.Sealer
	publisher blob.Publisher
	certifier chain.Certifier
	repo      repository.Repository
	wallets   *wallet.Registry
	notifier  ListingNotifier
	now       func() time.Time

	mu         sync.Mutex
	sessionID  string
	step       Step
	updatedAt  time.Time
	record     *repository.DataBlobRecord
	transcript string
	lastErr    error

	steps stepBroadcaster
}

func NewOrchestrator(cfg *config.Config, analyzer analysis.Analyzer, sealer seal.Sealer, publisher blob.Publisher, certifier chain.Certifier, repo repository.Repository, wallets *wallet.Registry, notifier ListingNotifier) *Orchestrator {
	if wallets == nil {
		wallets = wallet.NewRegistry()
	}
	return &Orchestrator{
		cfg:       cfg,
		analyzer:  analyzer,
		sealer:    sealer,
		publisher: publisher,
		certifier: certifier,
		repo:      repo,
		wallets:   wallets,
		notifier:  notifier,
		now:       time.Now,
		step:      StepIdle,
	}
}

func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{
		SessionID:  o.sessionID,
		Step:       o.step,
		UpdatedAt:  o.updatedAt,
		Transcript: o.transcript,
		LastError:  o.lastErr,
	}
	if o.record != nil {
		rec := *o.record
		snap.Record = &rec
	}
	return snap
}

// Subscribe streams step transitions. Events are dropped for a subscriber
// that falls behind; call the returned func to unsubscribe.
func (o *Orchestrator) Subscribe() (<-chan StepEvent, func()) {
	return o.steps.subscribe(subscriberBacklog)
}

// StartUpload runs the whole pipeline for one recorded session. It returns an
// *Error only when nothing was stored. Once the blob is stored every outcome
// is a result, certified or not.
func (o *Orchestrator) StartUpload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Events) == 0 {
		return nil, newError(ErrEmptySession, nil)
	}
	signer, err := o.resolveSigner(req.Signer)
	if err != nil {
		return nil, err
	}
	network := req.Network
	if network == "" {
		network = o.cfg.DefaultNetwork
	}
	network, err = config.ParseNetwork(string(network))
	if err != nil {
		return nil, err
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if !o.begin(sessionID, StepAnalyzing) {
		slog.Warn("upload rejected, another upload is in flight", "session_id", sessionID)
		return nil, newError(ErrUploadInProgress, nil)
	}
	slog.Info("upload started", "session_id", sessionID, "network", network, "events", len(req.Events))

	res, err := o.run(ctx, sessionID, network, req, signer)
	if err != nil {
		o.fail(err)
		slog.Error("upload aborted", "session_id", sessionID, "error", err)
		return nil, err
	}
	o.succeed(res)
	slog.Info("upload finished",
		"session_id", sessionID,
		"record_id", res.Record.RecordID,
		"status", res.Record.Status,
		"certification", res.Certification.Status,
	)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, sessionID string, network config.Network, req UploadRequest, signer wallet.Wallet) (*UploadResult, error) {
	capturedAt := o.now()
	transcript := Compile(req.Events, network, req.CreatorID, capturedAt, o.cfg.Location())
	text := transcript.Text()
	stats := computeStats(req.Events)
	sentiment := sentimentScore(req.Events)

	meta, fromProvider := analysis.AnalyzeOrFallback(ctx, o.analyzer, buildAnalysisSummary(stats, text))
	if !fromProvider {
		slog.Warn("using fallback listing metadata", "session_id", sessionID)
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(ErrCanceled, err)
	}
	o.transition(StepEncrypting)
	sealed, err := o.sealer.Seal(ctx, []byte(text))
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(ErrCanceled, err)
		}
		return nil, newError(ErrEncryptionFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(ErrCanceled, err)
	}
	o.transition(StepUploading)
	// An upload in flight runs to completion; the store may accept the blob
	// even if the caller gives up.
	published, err := o.publisher.Publish(context.WithoutCancel(ctx), network, sealed.Payload)
	if err != nil {
		return nil, newError(ErrStorageUnavailable, err)
	}
	slog.Info("transcript stored",
		"session_id", sessionID,
		"blob_id", published.BlobID,
		"already_certified", published.AlreadyCertified,
		"seal_scheme", sealed.Scheme,
	)

	// From here on the blob exists; nothing below may turn into an error.
	var outcome chain.Outcome
	if ctx.Err() != nil {
		outcome = chain.Outcome{Status: chain.StoredNotCertified, BlobID: published.BlobID, ErrorMessage: "certification canceled"}
		slog.Warn("skip certification after cancel", "session_id", sessionID, "blob_id", published.BlobID)
	} else {
		o.transition(StepCertifying)
		outcome = o.certifier.Certify(ctx, published.BlobID, chain.Metadata{
			Title:       meta.Title,
			Description: meta.Description,
			EventCount:  len(req.Events),
			SizeBytes:   len(sealed.Payload),
		}, signer, network)
	}

	rec := buildRecord(recordInput{
		sessionID:  sessionID,
		network:    network,
		creator:    signer.Address(),
		published:  published,
		outcome:    outcome,
		analysis:   meta,
		transcript: transcript,
		payload:    sealed.Payload,
		scheme:     sealed.Scheme,
		eventCount: len(req.Events),
		sentiment:  sentiment,
		createdAt:  capturedAt,
	})
	o.persist(ctx, rec)

	res := &UploadResult{
		Record:             rec,
		Transcript:         text,
		TranscriptFilename: DownloadFilename(rec.RecordID),
		Certification:      outcome,
		Analysis:           meta,
		AnalysisFallback:   !fromProvider,
		Message:            outcomeMessage(outcome),
	}
	o.announce(ctx, res)
	return res, nil
}

// Recertify retries certification for a stored record that is still MINTED.
// A record that already carries a digest is returned unchanged.
func (o *Orchestrator) Recertify(ctx context.Context, recordID string, signerOverride wallet.Wallet) (*UploadResult, error) {
	rec, err := o.repo.GetRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", recordID, err)
	}
	if rec.Certified() {
		return &UploadResult{
			Record:             *rec,
			Transcript:         rec.TranscriptText,
			TranscriptFilename: DownloadFilename(rec.RecordID),
			Certification:      chain.Outcome{Status: chain.Certified, BlobID: rec.WalrusBlobID, TxDigest: rec.TxDigest},
			Message:            outcomeMessage(chain.Outcome{Status: chain.Certified, TxDigest: rec.TxDigest}),
		}, nil
	}
	signer, err := o.resolveSigner(signerOverride)
	if err != nil {
		return nil, err
	}

	prev, ok := o.beginRecertify(rec.SessionID)
	if !ok {
		return nil, newError(ErrUploadInProgress, nil)
	}
	slog.Info("recertification started", "record_id", recordID, "blob_id", rec.WalrusBlobID)

	outcome := o.certifier.Certify(ctx, rec.WalrusBlobID, chain.Metadata{
		Title:       rec.Title,
		Description: rec.Description,
		EventCount:  rec.EventCount,
		SizeBytes:   rec.SizeBytes,
	}, signer, config.Network(rec.Network))

	res := &UploadResult{
		Record:        *rec,
		Transcript:    rec.TranscriptText,
		Certification: outcome,
		Message:       outcomeMessage(outcome),
	}
	if outcome.IsCertified() {
		updated, err := o.repo.UpdateCertification(ctx, repository.UpdateCertificationInput{
			RecordID:    rec.RecordID,
			TxDigest:    outcome.TxDigest,
			CertifiedAt: o.now(),
		})
		if err != nil {
			slog.Error("failed to store certification", "record_id", recordID, "tx_digest", outcome.TxDigest, "error", err)
			rec.RecordID = outcome.TxDigest
			rec.TxDigest = outcome.TxDigest
			rec.Status = repository.RecordStatusListed
			updated = rec
		}
		res.Record = *updated
	}
	res.TranscriptFilename = DownloadFilename(res.Record.RecordID)

	if outcome.IsCertified() {
		o.announce(ctx, res)
		o.succeed(res)
	} else {
		o.restore(prev)
	}
	slog.Info("recertification finished", "record_id", res.Record.RecordID, "certification", outcome.Status)
	return res, nil
}

func (o *Orchestrator) resolveSigner(w wallet.Wallet) (wallet.Wallet, error) {
	if w == nil {
		active, ok := o.wallets.Active()
		if !ok {
			return nil, newError(ErrNoSignerConnected, nil)
		}
		w = active
	}
	if w.Address() == "" {
		return nil, newError(ErrSignerUnavailable, fmt.Errorf("wallet %s has no address", w.Name()))
	}
	return w, nil
}

// begin claims the orchestrator. The busy check and the step change happen
// under one lock so two callers can never both start.
func (o *Orchestrator) begin(sessionID string, step Step) bool {
	o.mu.Lock()
	if o.step.Busy() {
		o.mu.Unlock()
		return false
	}
	o.sessionID = sessionID
	o.record = nil
	o.transcript = ""
	o.lastErr = nil
	ev := o.setStepLocked(step)
	o.mu.Unlock()
	o.emit(ev)
	return true
}

type savedState struct {
	step      Step
	sessionID string
}

func (o *Orchestrator) beginRecertify(sessionID string) (savedState, bool) {
	o.mu.Lock()
	if o.step.Busy() {
		o.mu.Unlock()
		return savedState{}, false
	}
	prev := savedState{step: o.step, sessionID: o.sessionID}
	o.sessionID = sessionID
	ev := o.setStepLocked(StepCertifying)
	o.mu.Unlock()
	o.emit(ev)
	return prev, true
}

func (o *Orchestrator) restore(prev savedState) {
	o.mu.Lock()
	o.sessionID = prev.sessionID
	o.mu.Unlock()
	o.transition(prev.step)
}

func (o *Orchestrator) transition(step Step) {
	o.mu.Lock()
	ev := o.setStepLocked(step)
	o.mu.Unlock()
	o.emit(ev)
}

// setStepLocked must be called with o.mu held.
func (o *Orchestrator) setStepLocked(step Step) StepEvent {
	o.step = step
	o.updatedAt = o.now()
	return StepEvent{SessionID: o.sessionID, Step: step, At: o.updatedAt}
}

func (o *Orchestrator) emit(ev StepEvent) {
	slog.Debug("upload step changed", "session_id", ev.SessionID, "step", ev.Step)
	o.steps.publish(ev)
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	o.transition(StepIdle)
}

func (o *Orchestrator) succeed(res *UploadResult) {
	o.mu.Lock()
	rec := res.Record
	o.record = &rec
	o.transcript = res.Transcript
	o.lastErr = nil
	o.mu.Unlock()
	o.transition(StepSuccess)
}

// persist stores the record even when the caller's context is already done;
// a stored blob must not end up without its listing.
func (o *Orchestrator) persist(ctx context.Context, rec repository.DataBlobRecord) {
	if o.repo == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := o.repo.SaveRecord(pctx, rec); err != nil {
		slog.Error("failed to save record", "record_id", rec.RecordID, "blob_id", rec.WalrusBlobID, "error", err)
	}
}

func (o *Orchestrator) announce(ctx context.Context, res *UploadResult) {
	if o.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("listing notifier panicked", "record_id", res.Record.RecordID, "panic", r)
		}
	}()
	rec := res.Record
	notice := notify.ListingNotice{
		RecordID:        rec.RecordID,
		WalrusBlobID:    rec.WalrusBlobID,
		TxDigest:        rec.TxDigest,
		Status:          string(rec.Status),
		Network:         rec.Network,
		Title:           rec.Title,
		Description:     rec.Description,
		PriceSuggestion: rec.PriceSuggestion,
		SizeLabel:       rec.SizeLabel,
		CreatorShort:    rec.CreatorShort,
		EventCount:      rec.EventCount,
		SentimentScore:  rec.SentimentScore,
		RetrievalURL:    rec.RetrievalURL,
		CreatedAt:       rec.CreatedAt,
		SealScheme:      rec.SealScheme,
	}
	// A sealed upload never leaves the plaintext transcript with a notifier.
	if !seal.Scheme(rec.SealScheme).Encrypted() {
		notice.TranscriptFilename = res.TranscriptFilename
		notice.Transcript = []byte(res.Transcript)
	}
	if err := o.notifier.NotifyListing(nctx, notice); err != nil {
		slog.Warn("listing notification incomplete", "record_id", rec.RecordID, "error", err)
	}
}
