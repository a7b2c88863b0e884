// Feed ingestion daemon: subscribes the configured asset set, keeps the
// in-memory snapshot store current, and persists every accepted snapshot to
// Postgres and Redis for warm starts.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/cli"
	"folio-api/internal/config"
	feedpersist "folio-api/internal/persistence/feed"
	"folio-api/pkg/feed"
)

const (
	persistTimeout  = 5 * time.Second  // Timeout for individual persistence writes
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting feed ingestor...")

	configPath := "etc/folio.yaml"
	appCfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[main] Failed to load app config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	feedCfg := appCfg.Feed.Value
	if feedCfg == nil {
		feedCfg = config.MustLoadFeed()
	}
	if len(feedCfg.Assets) == 0 {
		log.Fatalf("[main] No assets configured; nothing to ingest")
	}
	log.Printf("  - Feed URL: %s", feedCfg.URL)
	log.Printf("  - Assets: %d configured", len(feedCfg.Assets))

	var persist *feedpersist.Service
	if appCfg.Postgres.DSN != "" {
		var rds *redis.Redis
		if appCfg.Redis.Host != "" {
			rds, err = redis.NewRedis(appCfg.Redis)
			if err != nil {
				log.Fatalf("[main] Failed to connect redis: %v", err)
			}
		}
		persist = feedpersist.NewService(feedpersist.Config{
			SQLConn: sqlx.NewSqlConn("pgx", appCfg.Postgres.DSN),
			Redis:   rds,
			TTL:     cachekeys.NewTTLSet(appCfg.TTL),
		})
	}
	if persist == nil {
		log.Printf("[main] Warning: no Postgres DSN configured, snapshots stay in memory only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := feed.NewStore()
	if persist != nil {
		warmed := persist.WarmStore(ctx, store)
		log.Printf("[main] Warmed store with %d cached snapshots", warmed)
	}

	// Persistence runs off the transport's read goroutine so a slow database
	// never stalls the session. The channel is never closed: the transport's
	// read goroutine is not joined on shutdown and may still be mid-handler,
	// so the persister is stopped via stopPersist instead.
	updates := make(chan *feed.PriceUpdate, 256)
	stopPersist := make(chan struct{})
	var sink feed.Persistence
	if persist != nil {
		sink = persist
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runPersister(sink, updates, stopPersist)
	}()

	transport := feed.NewTransportFromConfig(feedCfg, func(update *feed.PriceUpdate) {
		store.Apply(update)
		select {
		case updates <- update:
		default:
			log.Printf("[ingest] Dropping persistence of %s: queue full", update.AssetID)
		}
	})
	store.Bind(transport)

	handles := make([]*feed.Interest, 0, len(feedCfg.Assets))
	for _, id := range feedCfg.Assets {
		handles = append(handles, store.EnsureInterest(id))
	}
	transport.Start()

	log.Println("[main] Feed ingestor started. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping...")

	transport.Close()
	for _, h := range handles {
		h.Release()
	}
	close(stopPersist)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] Persistence drained cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Feed ingestor stopped")
}

// runPersister drains the update queue into the persistence sink. After stop
// closes it keeps consuming whatever is already buffered so in-flight updates
// land on disk, then returns.
func runPersister(persist feed.Persistence, updates <-chan *feed.PriceUpdate, stop <-chan struct{}) {
	for {
		select {
		case update := <-updates:
			persistOne(persist, update)
		case <-stop:
			for {
				select {
				case update := <-updates:
					persistOne(persist, update)
				default:
					return
				}
			}
		}
	}
}

func persistOne(persist feed.Persistence, update *feed.PriceUpdate) {
	if persist == nil || update == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := persist.RecordSnapshot(writeCtx, update.AssetID, update.Snapshot); err != nil {
		log.Printf("[ingest] Persist %s failed: %v", update.AssetID, err)
	}
}
