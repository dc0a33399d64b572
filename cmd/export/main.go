// Command export writes a snapshot of all criteria lists and bingo cards
// from MongoDB to MinIO.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/prospectbingo/bingo/backend/go-services/internal/config"
	"github.com/prospectbingo/bingo/backend/go-services/internal/database"
	"github.com/prospectbingo/bingo/backend/go-services/internal/export"
	"github.com/prospectbingo/bingo/backend/go-services/internal/storage"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	prefix := pflag.String("prefix", "", "object key prefix (default $MINIO_PREFIX/<UTC timestamp>)")
	presign := pflag.Duration("presign", -1, "print a presigned manifest URL valid for this long (default $MINIO_PRESIGN_EXPIRY)")
	logLevel := pflag.String("log-level", os.Getenv("LOG_LEVEL"), "debug|info|warn|error")
	pflag.Parse()

	logger.Init(*logLevel)
	defer logger.Sync()

	if err := run(*prefix, *presign); err != nil {
		logger.Fatalf("export failed: %v", err)
	}
}

func run(prefix string, presign time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.MongoDB.URI == "" {
		return fmt.Errorf("MONGODB_URI is required for export")
	}
	store, err := storage.LoadMinIOConfig()
	if err != nil {
		return err
	}
	if prefix == "" {
		prefix = store.SnapshotPrefix(time.Now())
	}
	if presign < 0 {
		presign = store.PresignExpiry
	}

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	sink, err := storage.NewMinIOStorage(ctx, store)
	if err != nil {
		return err
	}

	e := export.New(
		repository.NewMongoRepo[bingo.CriteriaArray](db.Collection(repository.CollectionName(bingo.KindCriteria))),
		repository.NewMongoRepo[bingo.BingoCard](db.Collection(repository.CollectionName(bingo.KindBingoCard))),
		sink, prefix,
	)
	m, err := e.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infof("snapshot %s/%s: %d criteria lists, %d cards", sink.Bucket(), prefix, len(m.Criteria), len(m.Cards))

	if presign > 0 {
		u, err := sink.GetPresignedURL(ctx, prefix+"/manifest.json", presign)
		if err != nil {
			return err
		}
		fmt.Println(u)
	}
	return nil
}
