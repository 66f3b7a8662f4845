package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/browser"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/messaging"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/prefs"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/server"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/store"
)

var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")
var pageSize = flag.Int("page-size", 60, "catalog page size")

var projectId = os.Getenv("FIREBASE_PROJECT_ID")
var apiKey = os.Getenv("FIREBASE_API_KEY")
var credentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
var collectionName = os.Getenv("FIREBASE_COLLECTION")
var rabbitUrl = os.Getenv("RABBIT_URL")
var rabbitVHost = os.Getenv("RABBIT_HOST")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var clientId = os.Getenv("GOOGLE_CLIENT_ID")
var clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
var callbackUrl = os.Getenv("CALLBACK_URL")
var tokenHash = os.Getenv("TOKEN_HASH")
var dataDir = os.Getenv("DATA_DIR")

var listenAddress = ":8080"
var debugAddress = ":8081"

var done atomic.Bool

func main() {
	flag.Parse()
	if tokenHash == "" {
		log.Fatalf("TOKEN_HASH environment variable not set")
	}
	if dataDir == "" {
		dataDir = "data"
	}

	ctx := context.Background()

	fs, err := store.NewFirestoreStore(ctx, projectId, credentialsFile)
	if err != nil {
		log.Fatalf("Failed to connect to catalog store: %v", err)
	}

	provider, err := identity.NewFirebaseProvider(ctx, identity.FirebaseProviderConfig{
		ProjectId:       projectId,
		ApiKey:          apiKey,
		CredentialsFile: credentialsFile,
		ClientId:        clientId,
		ClientSecret:    clientSecret,
		CallbackUrl:     callbackUrl,
	})
	if err != nil {
		log.Fatalf("Failed to create identity provider: %v", err)
	}

	var activity browser.Activity
	if rabbitUrl != "" {
		publisher, err := messaging.NewActivityPublisher(messaging.RabbitConfig{Url: rabbitUrl, VHost: rabbitVHost})
		if err != nil {
			log.Printf("Failed to connect activity publisher: %v", err)
		} else {
			activity = publisher
		}
	}

	prefStore := prefs.NewStore(dataDir)
	app := browser.New(browser.Options{
		CatalogStore:   fs,
		StateStore:     fs,
		Provider:       provider,
		PrefStore:      prefStore,
		Activity:       activity,
		CollectionName: collectionName,
		PageSize:       *pageSize,
	})

	snapshot := store.NewSnapshot(dataDir)
	if items, err := snapshot.Load(); err != nil {
		log.Printf("Failed to load drop snapshot: %v", err)
	} else if len(items) > 0 {
		log.Printf("Restored %d drops from snapshot", app.ApplyUpserts(items))
	}

	sessions := server.NewSessions([]byte(tokenHash))
	srv := &server.WebServer{
		App:       app,
		PrefStore: prefStore,
		Sessions:  sessions,
	}
	if redisUrl != "" {
		srv.Cache = server.NewCache(redisUrl, redisPassword, 0)
		log.Printf("Render cache enabled, url: %s", redisUrl)
	}
	auth := server.NewAuthHandler(provider, provider, sessions)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		provider.Start()
		added, err := app.LoadNextPage(ctx)
		if err != nil {
			log.Printf("Failed to load first catalog page: %v", err)
		} else {
			log.Printf("Loaded %d drops", added)
			if err := snapshot.Save(app.Items()); err != nil {
				log.Printf("Failed to save drop snapshot: %v", err)
			}
		}
		done.Store(true)
	}()

	if rabbitUrl != "" {
		feed := messaging.NewDropFeed(messaging.RabbitConfig{Url: rabbitUrl, VHost: rabbitVHost})
		feed.OnApplied = srv.InvalidateRender
		if err := feed.Connect(app); err != nil {
			log.Printf("Failed to connect drop feed: %v", err)
		} else {
			log.Printf("Connected to drop feed at %s", rabbitUrl)
		}
	}

	debugMux := http.NewServeMux()
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !done.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	debugMux.Handle("/metrics", promhttp.Handler())
	if enableProfiling != nil && *enableProfiling {
		log.Println("Profiling enabled")
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	go func() {
		log.Printf("Starting debug server %v", debugAddress)
		log.Fatal(http.ListenAndServe(debugAddress, debugMux))
	}()

	wg.Wait()

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", srv.ClientHandler()))
	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))

	timeouts := common.LoadTimeoutConfig(common.TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       30 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   15 * time.Second,
		Hook:       5 * time.Second,
	})
	httpServer := common.NewServerWithTimeouts(&http.Server{Addr: listenAddress, Handler: mux}, timeouts)
	common.RunServerWithShutdown(httpServer, "coffee drop browser", timeouts.Shutdown, timeouts.Hook, func(ctx context.Context) error {
		if err := snapshot.Save(app.Items()); err != nil {
			log.Printf("Failed to save drop snapshot: %v", err)
		}
		return fs.Close()
	})
}
