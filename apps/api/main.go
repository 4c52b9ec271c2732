package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/edukit/eduhub/apps/api/echo"
	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/library"
	"github.com/edukit/eduhub/core/messaging"
	"github.com/edukit/eduhub/core/post"
	"github.com/edukit/eduhub/core/user"
	emailsvc "github.com/edukit/eduhub/services/email"
	logsvc "github.com/edukit/eduhub/services/logger"
	"github.com/edukit/eduhub/storage/blob"
	"github.com/edukit/eduhub/storage/database"
	"github.com/edukit/eduhub/storage/kv"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	kvStore, err := kv.OpenRedis(ctx, conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	defer func() {
		if err = kvStore.Close(); err != nil {
			logger.Error("closing redis", err)
		}
	}()

	blobStore, err := blob.OpenMinio(ctx, conf.Blob)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to blob storage: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(conf, database.NewUserRepository(db), mailSvc)
	postSvc := post.NewService(database.NewPostRepository(db), logger)
	libSvc := library.NewService(database.NewLibraryRepository(db), blobStore, logger)
	msgSvc := messaging.NewService(database.NewMessageRepository(db), usrSvc)

	registry := echoapi.NewRegistry(conf, usrSvc, kvStore, logger)
	defer registry.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:    conf.Address(),
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,

			UserSvc:      usrSvc,
			PostSvc:      postSvc,
			LibrarySvc:   libSvc,
			MessagingSvc: msgSvc,
			Registry:     registry,

			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	stopCtx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(stopCtx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (db *sqlx.DB, err error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err = database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
