package svc

import (
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/config"
	feedpersist "folio-api/internal/persistence/feed"
	"folio-api/internal/repo"
	solanapkg "folio-api/pkg/chain/solana"
	feedpkg "folio-api/pkg/feed"
)

type ServiceContext struct {
	Config config.Config

	FeedStore     *feedpkg.Store
	FeedTransport *feedpkg.Transport
	FeedPersist   *feedpersist.Service

	Solana *solanapkg.Client

	DBConn sqlx.SqlConn
	Redis  *redis.Redis
	Cache  gocache.Cache
	TTL    cachekeys.TTLSet
	Repos  *repo.Set

	interestLinger time.Duration
}

func NewServiceContext(c config.Config) *ServiceContext {
	ttl := cachekeys.NewTTLSet(c.TTL)
	svc := &ServiceContext{
		Config:         c,
		FeedStore:      feedpkg.NewStore(),
		TTL:            ttl,
		interestLinger: ttl.Duration(cachekeys.TTLMedium),
	}

	if c.Redis.Host != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		svc.Redis = rds
		svc.Cache = gocache.New(
			gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(),
			gocache.NewStat(cachekeys.Namespace),
			sqlx.ErrNotFound,
		)
	}

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn

		repos, err := repo.New(repo.Dependencies{
			DBConn: conn,
			Cache:  svc.Cache,
			TTL:    ttl,
		})
		if err != nil {
			log.Fatalf("failed to build repositories: %v", err)
		}
		svc.Repos = repos

		svc.FeedPersist = feedpersist.NewService(feedpersist.Config{
			SQLConn: conn,
			Redis:   svc.Redis,
			TTL:     ttl,
		})
	}

	// Feed session: live updates land in the store; the ingestor daemon owns
	// persistence, the API serves from memory.
	if c.Feed.Value != nil {
		transport := feedpkg.NewTransportFromConfig(c.Feed.Value, svc.FeedStore.Apply)
		svc.FeedTransport = transport
		svc.FeedStore.Bind(transport)
		transport.Start()
	}

	if c.Solana.Value != nil {
		svc.Solana = solanapkg.NewClientFromConfig(c.Solana.Value)
	} else {
		svc.Solana = solanapkg.NewClient()
	}

	return svc
}

// TouchInterest registers short-lived interest in the given assets. Each call
// stacks one reference per asset and drops it after the linger window, so
// assets polled by dashboards stay subscribed while one-off lookups age out.
func (s *ServiceContext) TouchInterest(assetIDs []string) {
	linger := s.interestLinger
	if linger <= 0 {
		linger = time.Minute
	}
	for _, id := range assetIDs {
		handle := s.FeedStore.EnsureInterest(id)
		time.AfterFunc(linger, handle.Release)
	}
}

// Close tears down the live feed session.
func (s *ServiceContext) Close() {
	if s.FeedTransport != nil {
		s.FeedTransport.Close()
	}
}
