package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/cartsync"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/firebase"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/maps"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/query"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var a *app
	root := newRootCommand(func(ctx context.Context) (*app, error) {
		if a != nil {
			return a, nil
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		a, err = mount(ctx, cfg, logging.New(cfg.LogLevel, cfg.LogFormat, stderr))
		return a, err
	})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a != nil {
		a.close()
	}
	if err != nil {
		alert := apperrors.Present(err)
		fmt.Fprintf(stderr, "%s: %s\n", alert.Title, alert.Message)
		return 1
	}
	return 0
}

// app is one mount of the storefront: cache open, session resolved, cart rehydrated.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	cache    *store.SQLiteCache
	session  *auth.Manager
	cart     *cart.Store
	sync     *cartsync.Synchronizer
	producer *kafka.Producer
	commands *command.Handler
	queries  *query.Handler
}

func mount(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	log.WithField("config", cfg.String()).Debug("starting storefront")

	db, err := store.OpenSQLite(ctx, cfg.CachePath)
	if err != nil {
		return nil, apperrors.New(apperrors.Database, "open cache", err)
	}
	cache := store.NewSQLiteCache(db, log)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fb := firebase.NewClient(firebase.Config{
		APIKey:      cfg.FirebaseAPIKey,
		DatabaseURL: cfg.FirebaseDatabaseURL,
		IdentityURL: cfg.FirebaseIdentityURL,
		TokenURL:    cfg.FirebaseTokenURL,
		HTTPClient:  httpClient,
		Logger:      log,
	})

	session := auth.NewManager(cache, fb, log)
	state := session.Start(ctx)
	log.WithField("session", state.String()).Debug("session started")

	a := &app{cfg: cfg, log: log, cache: cache, session: session, cart: cart.NewStore(nil)}

	mirrors := []cartsync.Mirror{firebase.NewCartMirror(fb, session)}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		mirrors = append(mirrors, kafka.NewCartMirror(a.producer, session))
	}

	a.sync = cartsync.New(a.cart, cache, cartsync.Config{
		Debounce:     cfg.SyncDebounce,
		WriteTimeout: cfg.SyncWriteTimeout,
		Mirrors:      mirrors,
		Logger:       log,
	})
	if err := a.sync.Mount(ctx); err != nil {
		a.close()
		return nil, err
	}

	var locator command.StoreLocator
	if cfg.MapsAPIKey != "" {
		l, err := maps.NewLocator(maps.Config{APIKey: cfg.MapsAPIKey, HTTPClient: httpClient, Logger: log})
		if err != nil {
			log.WithError(err).Warn("store locator disabled")
		} else {
			locator = l
		}
	}

	a.commands = command.NewHandler(a.cart, fb, session, locator, log)
	a.queries = query.NewHandler(fb, fb, session, a.cart, log)
	return a, nil
}

// close flushes the cart and releases the cache and broker connections.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SyncWriteTimeout)
	defer cancel()

	if a.sync != nil {
		if err := a.sync.Close(ctx); err != nil {
			a.log.WithError(err).Warn("cart sync did not finish")
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close kafka producer")
		}
	}
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close cache")
	}
}
