/*
Copyright 2023 - 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command brocad runs the federation server: it wires the store,
// resolver, delivery worker and HTTP surface together and serves until
// terminated.
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brocaactivitypub/broca/ap"
	"github.com/brocaactivitypub/broca/cfg"
	"github.com/brocaactivitypub/broca/collections"
	"github.com/brocaactivitypub/broca/data"
	"github.com/brocaactivitypub/broca/delivery"
	"github.com/brocaactivitypub/broca/httpsig"
	"github.com/brocaactivitypub/broca/inbox"
	"github.com/brocaactivitypub/broca/keyfetch"
	"github.com/brocaactivitypub/broca/migrations"
	"github.com/brocaactivitypub/broca/outbox"
	"github.com/brocaactivitypub/broca/resolver"
	"github.com/brocaactivitypub/broca/server"
	"github.com/brocaactivitypub/broca/store"
	"github.com/brocaactivitypub/broca/transport"
	"github.com/brocaactivitypub/broca/urls"
	"github.com/google/uuid"
)

var (
	dbPath   = flag.String("db", "broca.sqlite3", "database path")
	addr     = flag.String("addr", ":8443", "HTTPS listening address")
	cert     = flag.String("cert", "cert.pem", "TLS certificate")
	key      = flag.String("key", "key.pem", "TLS key")
	plain    = flag.Bool("plain", false, "serve plain HTTP instead of HTTPS")
	logLevel = flag.Int("loglevel", int(slog.LevelInfo), "logging verbosity")
	cfgPath  = flag.String("cfg", "", "configuration file")
	dumpCfg  = flag.Bool("dumpcfg", false, "print default configuration and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flag]...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	uuid.EnableRandPool()

	var config cfg.Config

	if *dumpCfg {
		config.FillDefaults()
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "\t")
		if err := e.Encode(config); err != nil {
			panic(err)
		}
		return
	}

	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			panic(err)
		}
		err = json.NewDecoder(f).Decode(&config)
		f.Close()
		if err != nil {
			panic(err)
		}
	}
	config.FillDefaults()

	opts := slog.HandlerOptions{Level: slog.Level(*logLevel)}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &opts))
	slog.SetDefault(log)

	db, err := store.Open(*dbPath, config.DatabaseOptions)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-sigs:
			log.Info("received termination signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := migrations.Run(ctx, log, db.DB); err != nil {
		panic(err)
	}

	urlBuilder := urls.New(config.BaseURL, config.RoutePrefix)

	systemKey, err := ensureSystemActor(ctx, db, &config, urlBuilder)
	if err != nil {
		panic(err)
	}

	client := transport.New(config.DeliveryTimeout)
	res := resolver.New(client, config.ResolverCacheTTL, config.MaxResolverRequests)

	keyFetcher := &keyfetch.Fetcher{
		Store:     db,
		Resolver:  res,
		SystemKey: systemKey,
		CacheTTL:  config.PublicKeyCacheTTL,
	}

	deliveryEngine := &delivery.Engine{
		Store:    db,
		Resolver: res,
		Config:   &config,
		Log:      log,
	}

	deliveryWorker := &delivery.Worker{
		Store:  db,
		Client: client,
		Config: &config,
		Log:    log,
	}

	inboxProcessor := &inbox.Processor{
		Store:       db,
		KeyFetch:    keyFetcher,
		Config:      &config,
		Log:         log,
		URLs:        urlBuilder,
		MediaClient: &http.Client{Timeout: config.DeliveryTimeout},
	}

	outboxPublisher := &outbox.Publisher{
		Store:    db,
		Delivery: deliveryEngine,
		Config:   &config,
		Log:      log,
		URLs:     urlBuilder,
	}

	collectionEngine := &collections.Engine{
		Store:    db,
		URLs:     urlBuilder,
		PageSize: config.CollectionPageSize,
	}

	srv := &server.Server{
		Store:      db,
		Inbox:      inboxProcessor,
		Outbox:     outboxPublisher,
		Collection: collectionEngine,
		Config:     &config,
		Log:        log,
		URLs:       urlBuilder,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		deliveryWorker.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := listenAndServe(ctx, srv, log, *addr, *cert, *key, *plain); err != nil {
			log.Error("listener failed", "error", err)
		}
		cancel()
	}()

	wg.Wait()
}

// ensureSystemActor creates the system actor used to sign outbound admin
// key-fetch requests, on first run, and returns the httpsig.Key to sign
// with. A pre-existing system actor is left untouched.
func ensureSystemActor(ctx context.Context, db *store.Store, config *cfg.Config, urlBuilder urls.Builder) (httpsig.Key, error) {
	username := config.SystemActorUsername

	if _, err := db.ActorByUsername(ctx, username); err == nil {
		pemKey, err := db.PrivateKeyByUsername(ctx, username)
		if err != nil {
			return httpsig.Key{}, err
		}
		privateKey, err := data.DecodePrivateKey(pemKey)
		if err != nil {
			return httpsig.Key{}, err
		}
		return httpsig.Key{ID: urlBuilder.Key(username), PrivateKey: privateKey}, nil
	}

	privateKey, err := data.GenerateKey()
	if err != nil {
		return httpsig.Key{}, fmt.Errorf("failed to generate system actor key: %w", err)
	}

	publicKeyPem, err := data.EncodePublicKey(&privateKey.PublicKey)
	if err != nil {
		return httpsig.Key{}, fmt.Errorf("failed to encode system actor public key: %w", err)
	}

	privateKeyPem, err := data.EncodePrivateKey(privateKey)
	if err != nil {
		return httpsig.Key{}, fmt.Errorf("failed to encode system actor private key: %w", err)
	}

	id := urlBuilder.Actor(username)
	actor := ap.Actor{
		Context:            []string{"https://www.w3.org/ns/activitystreams", "https://w3id.org/security/v1"},
		ID:                 id,
		Type:               ap.Service,
		Inbox:              urlBuilder.Inbox(username),
		Outbox:             urlBuilder.Outbox(username),
		PreferredUsername:  username,
		Name:               "System",
		PublicKey: ap.PublicKey{
			ID:           urlBuilder.Key(username),
			Owner:        id,
			PublicKeyPem: publicKeyPem,
		},
	}

	if err := db.InsertActor(ctx, username, &actor, privateKeyPem); err != nil {
		return httpsig.Key{}, fmt.Errorf("failed to persist system actor: %w", err)
	}

	return httpsig.Key{ID: urlBuilder.Key(username), PrivateKey: privateKey}, nil
}

// listenAndServe runs srv's handler behind http.Server, honoring plain for
// local/test deployments that terminate TLS elsewhere.
func listenAndServe(ctx context.Context, srv *server.Server, log *slog.Logger, addr, certPath, keyPath string, plainHTTP bool) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.NewHandler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
		ReadTimeout: time.Second * 30,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "addr", addr, "plain", plainHTTP)
	var err error
	if plainHTTP {
		err = httpServer.ListenAndServe()
	} else {
		err = httpServer.ListenAndServeTLS(certPath, keyPath)
	}
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
