package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chefbridge/catalog"
	"chefbridge/chef"
	"chefbridge/config"
	"chefbridge/dispatch"
	"chefbridge/messaging"
	"chefbridge/store"
	"chefbridge/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "chefbridge.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("chefbridge", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("chefbridge: database open (%s)", cfg.Database.Driver)

	// Redis (optional catalog cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var cache *catalog.RedisCache
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("chefbridge: redis not available (%v), running without catalog cache", err)
	} else {
		log.Printf("chefbridge: redis connected (%s)", cfg.Redis.Address)
		cache = catalog.NewRedisCache(redisClient)
	}
	cancel()
	defer redisClient.Close()

	catalogMgr := catalog.NewManager(db, cache)

	// Kitchen fulfillment client
	chefClient := chef.NewClient(cfg.Chef.BaseURL, chef.RetryConfig{
		MaxAttempts:  cfg.Chef.MaxAttempts,
		InitialDelay: cfg.Chef.InitialBackoff,
		MaxDelay:     cfg.Chef.MaxBackoff,
		Timeout:      cfg.Chef.Timeout,
	})
	if chefClient.Health().IsReachable(context.Background()) {
		log.Printf("chefbridge: kitchen service reachable (%s)", cfg.Chef.BaseURL)
	} else {
		log.Printf("chefbridge: kitchen service not reachable (%s), orders will retry", cfg.Chef.BaseURL)
	}

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("chefbridge: messaging connect failed (%v)", err)
	} else {
		log.Printf("chefbridge: messaging connected (kafka)")
	}
	defer msgClient.Close()

	// Dispatcher with outbox-backed event emission
	emitter := messaging.NewEventEmitter(db, cfg.Messaging.EventsTopic)
	dispatcher := dispatch.NewDispatcher(db, chefClient, catalogMgr, emitter)

	// Outbox drainer (order events out to Kafka)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler := www.NewRouter(db, dispatcher, catalogMgr, chefClient, msgClient)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("chefbridge: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("chefbridge: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("chefbridge: shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("chefbridge: stopped")
}
