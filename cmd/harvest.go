package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcpstorage "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namehound/namehound/internal/api"
	"github.com/namehound/namehound/internal/clock/system"
	"github.com/namehound/namehound/internal/config"
	"github.com/namehound/namehound/internal/harvest"
	"github.com/namehound/namehound/internal/hash/sha256"
	iduuid "github.com/namehound/namehound/internal/id/uuid"
	"github.com/namehound/namehound/internal/logging"
	"github.com/namehound/namehound/internal/publisher"
	pubsubpublisher "github.com/namehound/namehound/internal/publisher/pubsub"
	"github.com/namehound/namehound/internal/report"
	"github.com/namehound/namehound/internal/storage"
	"github.com/namehound/namehound/internal/storage/gcs"
	"github.com/namehound/namehound/internal/storage/local"
	"github.com/namehound/namehound/internal/storage/postgres"
)

// finishBudget bounds report persistence after the crawl ends, so an
// interrupted run can still flush its artifacts.
const finishBudget = 60 * time.Second

// newHarvestCmd creates and configures the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Runs the autocomplete name discovery crawl",
		Long: `Explores every configured API version to exhaustion: seeds the queue
with single-character prefixes, expands each newly discovered name as a
new query up to the depth bound, then writes the text/JSON reports and
any configured downstream sinks.`,

		RunE: runHarvestCommand,
	}
	return cmd
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID, err := iduuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	clk := system.New()
	started := clk.Now()

	store := harvest.NewStore(cfg.Server.APIVersions)
	fetcher := harvest.NewHTTPFetcher(cfg.Server.BaseURL, cfg.HTTPTimeout(), logger)
	engine := harvest.NewEngine(cfg.EngineConfig(), fetcher, store, harvest.NewLogObserver(logger), logger)

	stopStatus := startStatusServer(cfg, store, runID, started, logger)
	defer stopStatus()

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run harvest: %w", err)
	}

	snap := engine.Snapshot()
	logger.Info("harvest finished",
		zap.String("run_id", runID),
		zap.Int("total_names", snap.TotalNames()),
		zap.Int64("total_requests", snap.TotalRequests()),
		zap.Duration("elapsed", clk.Now().Sub(started)),
	)

	return finishRun(cfg, logger, clk.Now(), runID, snap)
}

// finishRun persists the report artifacts and feeds the optional
// downstream sinks. It runs on its own context so an interrupted crawl
// can still flush what it found.
func finishRun(cfg config.Config, logger *zap.Logger, finishedAt time.Time, runID string, snap harvest.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), finishBudget)
	defer cancel()

	blobStore, cleanup, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	textURI, digest, err := writeReports(ctx, cfg, blobStore, finishedAt, runID, snap)
	if err != nil {
		return err
	}
	logger.Info("report written",
		zap.String("run_id", runID),
		zap.String("uri", textURI),
		zap.String("sha256", digest),
	)

	if cfg.DB.DSN != "" {
		if err := persistDiscoveries(ctx, cfg, finishedAt, runID, snap); err != nil {
			return err
		}
		logger.Info("discoveries persisted", zap.String("run_id", runID))
	}

	if cfg.PubSub.TopicName != "" {
		msgID, err := publishCompletion(ctx, cfg, finishedAt, runID, snap, textURI, digest)
		if err != nil {
			return err
		}
		logger.Info("completion event published",
			zap.String("run_id", runID),
			zap.String("message_id", msgID),
		)
	}

	return nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, func(), error) {
	if cfg.Report.GCSBucket != "" {
		client, err := gcpstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Report.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init gcs blob store: %w", err)
		}
		return store, func() { _ = client.Close() }, nil
	}

	store, err := local.New(local.Config{BaseDir: cfg.Report.OutputDir})
	if err != nil {
		return nil, nil, fmt.Errorf("init local blob store: %w", err)
	}
	return store, func() {}, nil
}

func writeReports(
	ctx context.Context,
	cfg config.Config,
	blobStore storage.BlobStore,
	finishedAt time.Time,
	runID string,
	snap harvest.Snapshot,
) (string, string, error) {
	var text bytes.Buffer
	if err := report.WriteText(&text, cfg.Server.APIVersions, snap); err != nil {
		return "", "", fmt.Errorf("render text report: %w", err)
	}
	textPath := path.Join(cfg.Report.Prefix, runID, cfg.Report.TextObject)
	textURI, err := blobStore.PutObject(ctx, textPath, "text/plain; charset=utf-8", text.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("store text report: %w", err)
	}
	digest, err := sha256.New().Hash(text.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("hash text report: %w", err)
	}

	if cfg.Report.JSONObject != "" {
		var buf bytes.Buffer
		doc := report.NewDocument(runID, finishedAt, cfg.Server.APIVersions, snap)
		if err := report.WriteJSON(&buf, doc); err != nil {
			return "", "", fmt.Errorf("render json report: %w", err)
		}
		jsonPath := path.Join(cfg.Report.Prefix, runID, cfg.Report.JSONObject)
		if _, err := blobStore.PutObject(ctx, jsonPath, "application/json", buf.Bytes()); err != nil {
			return "", "", fmt.Errorf("store json report: %w", err)
		}
	}

	return textURI, digest, nil
}

func persistDiscoveries(
	ctx context.Context,
	cfg config.Config,
	finishedAt time.Time,
	runID string,
	snap harvest.Snapshot,
) error {
	store, err := postgres.NewDiscoveryStore(ctx, postgres.DiscoveryStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("init discovery store: %w", err)
	}
	defer store.Close()

	for _, version := range cfg.Server.APIVersions {
		names := snap.Discoveries[version]
		if err := store.StoreDiscoveries(ctx, runID, version, names, finishedAt); err != nil {
			return fmt.Errorf("persist discoveries for %s: %w", version, err)
		}
	}
	return nil
}

func publishCompletion(
	ctx context.Context,
	cfg config.Config,
	finishedAt time.Time,
	runID string,
	snap harvest.Snapshot,
	reportURI string,
	reportDigest string,
) (string, error) {
	client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return "", fmt.Errorf("init pubsub client: %w", err)
	}
	defer client.Close() //nolint:errcheck // best-effort close

	var pub publisher.Publisher = pubsubpublisher.New(client.Topic(cfg.PubSub.TopicName))
	payload := map[string]any{
		"run_id":         runID,
		"api_versions":   cfg.Server.APIVersions,
		"total_names":    snap.TotalNames(),
		"total_requests": snap.TotalRequests(),
		"report_uri":     reportURI,
		"report_sha256":  reportDigest,
		"finished_at":    finishedAt.Format(time.RFC3339),
	}
	msgID, err := pub.Publish(ctx, cfg.PubSub.TopicName, payload)
	if err != nil {
		return "", fmt.Errorf("publish completion event: %w", err)
	}
	return msgID, nil
}

func startStatusServer(
	cfg config.Config,
	store *harvest.Store,
	runID string,
	started time.Time,
	logger *zap.Logger,
) func() {
	if !cfg.Status.Enabled {
		return func() {}
	}

	srv := api.NewServer(store, runID, started, logger)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Status.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}
}
