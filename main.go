package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aggies-attic/internal/analytics"
	"aggies-attic/internal/analytics/analytics_api"
	"aggies-attic/internal/auth"
	"aggies-attic/internal/auth/auth_api"
	authdb "aggies-attic/internal/auth/db"
	"aggies-attic/internal/cache"
	"aggies-attic/internal/changes"
	"aggies-attic/internal/config"
	"aggies-attic/internal/database"
	"aggies-attic/internal/database/migrations"
	"aggies-attic/internal/events"
	eventsdb "aggies-attic/internal/events/db"
	"aggies-attic/internal/events/event_api"
	"aggies-attic/internal/facebook"
	"aggies-attic/internal/facebook/facebook_api"
	"aggies-attic/internal/jobs"
	"aggies-attic/internal/kafka"
	"aggies-attic/internal/listings"
	listingsdb "aggies-attic/internal/listings/db"
	"aggies-attic/internal/listings/listing_api"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media"
	"aggies-attic/internal/media/media_api"
	"aggies-attic/internal/sse"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// connectCache returns a nil cache when Redis is not configured or not
// reachable; the public lists are then always read from MongoDB.
func connectCache(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*cache.Cache, *redis.Client) {
	client, err := cache.Connect(ctx, cfg, log)
	if err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable, public cache disabled: %v", err))
		return nil, nil
	}
	if client == nil {
		return nil, nil
	}
	return cache.New(client, cfg.TTL, log), client
}

// connectNotifier returns a Kafka producer when brokers are configured.
func connectNotifier(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) (changes.Notifier, *kafka.Producer) {
	if !cfg.Enabled() {
		log.Info("KAFKA", "KAFKA_ADDR not set, change notifications disabled")
		return changes.Nop{}, nil
	}
	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %s", strings.Join(cfg.Brokers, ",")))

	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, kafka.ChangeTopics(cfg.TopicPrefix), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	producer := kafka.NewProducer(cfg.Brokers, cfg.TopicPrefix, log)
	log.Info("KAFKA", "Kafka producer initialized successfully")
	return producer, producer
}

func newMediaStore(cfg config.CloudinaryConfig, log *logger.Logger) media.Store {
	store, err := media.NewCloudinaryStore(cfg)
	if err != nil {
		log.Warn("MEDIA", fmt.Sprintf("Image uploads disabled: %v", err))
		return media.Unconfigured{}
	}
	log.Info("MEDIA", "Cloudinary client initialized")
	return store
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.LogDir)
	defer log.Close()

	log.Info("APP", "Starting Aggie's Attic API initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx := context.Background()

	mongoClient, db, err := database.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error("DATABASE", fmt.Sprintf("MongoDB disconnect failed: %v", err))
		}
	}()

	if err := migrations.NewRunner(db, log).Up(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Index migrations failed: %v", err))
	}

	publicCache, redisClient := connectCache(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	notifier, producer := connectNotifier(ctx, cfg.Kafka, log)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Kafka producer close failed: %v", err))
			}
		}()
	}

	// With Kafka, the stream is fed from the topics so it carries changes
	// made on every instance.
	broadcaster := sse.NewBroadcaster()
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if producer != nil {
		consumer := kafka.NewChangeConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		defer consumer.Close()
		go consumer.Run(consumerCtx, func(ctx context.Context, c changes.Change) {
			_ = broadcaster.Notify(ctx, c)
		})
	} else {
		notifier = changes.Fanout{notifier, broadcaster}
	}

	store := newMediaStore(cfg.Cloudinary, log)

	if missing := cfg.FacebookWarnings(); len(missing) > 0 {
		log.Warn("FACEBOOK", fmt.Sprintf("Missing %s; Page posts will fail and be recorded as sync errors", strings.Join(missing, ", ")))
	}
	fbClient := facebook.NewClient(cfg.Facebook, nil)
	publisher := facebook.NewPublisher(fbClient, cfg.Site.PublicBaseURL, log)
	log.Info("FACEBOOK", fmt.Sprintf("Facebook client initialized (mode %s)", cfg.Facebook.Mode))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if redisClient != nil {
		tokens.Revocations = auth.NewRedisRevocations(redisClient)
	} else {
		log.Warn("AUTH", "Redis unavailable, logouts are kept in memory and lost on restart")
		tokens.Revocations = auth.NewMemoryRevocations()
	}
	authService := auth.NewService(authdb.New(db), tokens, log)

	eventStore := eventsdb.New(db)
	eventService := events.NewEventService(eventStore, store, publisher, publicCache, notifier, log)
	listingService := listings.NewListingService(listingsdb.New(db), store, publisher, publicCache, notifier, log)

	var warmers []jobs.Warmer
	if publicCache != nil {
		warmers = []jobs.Warmer{
			func(ctx context.Context) error {
				if err := publicCache.Invalidate(ctx, cache.ActiveEventsKey); err != nil {
					return err
				}
				_, err := eventService.ListActive(ctx)
				return err
			},
			func(ctx context.Context) error {
				if err := publicCache.Invalidate(ctx, cache.ListingsKey); err != nil {
					return err
				}
				_, err := listingService.List(ctx)
				return err
			},
		}
	}
	scheduler, err := jobs.New(cfg.Jobs, warmers, eventStore, log)
	if err != nil {
		log.Fatal("JOBS", err.Error())
	}
	if redisClient != nil {
		scheduler.Locker = jobs.NewRedisLocker(redisClient)
	}

	router := newRouter(handlers{
		Auth:         auth_api.NewHandler(authService, log),
		Events:       event_api.NewHandler(eventService, cfg.Site.PublicBaseURL, cfg.Server.MaxUploadBytes, log),
		Listings:     listing_api.NewHandler(listingService, log),
		Media:        &media_api.Handler{Store: store, Logger: log, MaxUploadBytes: cfg.Server.MaxUploadBytes},
		Facebook:     &facebook_api.Handler{Client: fbClient, Logger: log},
		Changes:      &sse.Handler{Broadcaster: broadcaster, Logger: log},
		Analytics:    analytics_api.NewHandler(analytics.NewService(analytics.NewDB(db)), log),
		RequireAdmin: auth.Middleware(tokens, log),
	}, cfg.Server.AllowedOrigins, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	scheduler.Start()

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Aggie's Attic API running on :%s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "HTTP server stopped")
	}

	scheduler.Stop(ctxShutdown)
	stopConsumer()

	log.Info("APP", "Waiting for in-flight listing posts")
	listingService.Wait()
	log.Info("APP", "✅ Shutdown complete")
}
