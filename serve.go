package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"zapcrm/config"
	"zapcrm/controllers"
	"zapcrm/db"
	"zapcrm/events"
	"zapcrm/repository"
	"zapcrm/router"
	"zapcrm/services"
	"zapcrm/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sobe a API HTTP e o sync agendado",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), conf)
		},
	}
}

// setupLog duplica o log padrão no arquivo log_path.
func setupLog(conf config.Configuration) (io.Closer, error) {
	if conf.LogPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(conf.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(conf.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, f)
	return f, nil
}

// newEmitter publica no RabbitMQ quando events.amqp_url está configurado; senão só loga.
// Broker fora do ar não impede o boot: depois do retry cai para o LogEmitter.
func newEmitter(ctx context.Context, conf config.Configuration) events.Emitter {
	if conf.Events.AmqpURL == "" {
		log.Printf("events: amqp_url vazio, eventos só no log")
		return events.LogEmitter{}
	}
	opts := events.DialOptions{
		Attempts: conf.Events.DialAttempts,
		Delay:    time.Duration(conf.Events.DialDelayMs) * time.Millisecond,
	}
	emitter, err := events.NewAMQP(ctx, conf.Events.AmqpURL, conf.Events.Exchange, conf.Events.Producer, opts)
	if err != nil {
		log.Printf("events: broker indisponível, eventos só no log: %v", err)
		return events.LogEmitter{}
	}
	log.Printf("events: publicando em %s", conf.Events.Exchange)
	return emitter
}

func syncOptions(conf config.Configuration) services.SyncOptions {
	return services.SyncOptions{
		Timeout:  conf.GatewayTimeout(),
		PageSize: conf.Gateway.PageSize,
		MaxPages: conf.Gateway.MaxPages,
	}
}

func newApp(conf config.Configuration, database *gorm.DB, emitter events.Emitter) *controllers.App {
	repos := repository.NewGorm(database)
	return &controllers.App{
		Repos:         repos,
		Gateway:       services.NewGatewayResolver(repos.GatewayConfigs),
		Sync:          services.NewSyncService(repos, services.HTTPGatewayFactory(conf.GatewayTimeout()), emitter, syncOptions(conf)),
		Conversations: services.NewConversationService(repos.Conversations, repos.Users, emitter),
		JwtSecret:     conf.Security.JwtSecret,
	}
}

func runServe(ctx context.Context, conf config.Configuration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if closer, err := setupLog(conf); err != nil {
		return err
	} else if closer != nil {
		defer closer.Close()
	}

	database, err := db.Connect(conf)
	if err != nil {
		return err
	}
	defer database.Close()

	emitter := newEmitter(ctx, conf)
	defer emitter.Close()

	app := newApp(conf, database, emitter)

	scheduler, err := workers.NewSyncScheduler(conf.Sync.Schedule, app.Sync, 10*time.Minute)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	r := gin.New()
	router.Initialize(r, conf, app, database)

	srv := &http.Server{
		Addr:              ":" + conf.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("zapcrm listening on :%s", conf.ApiPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("zapcrm: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
