package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/snarkipus/letterbox"
	"github.com/snarkipus/letterbox/auth"
	"github.com/snarkipus/letterbox/bolt"
	"github.com/snarkipus/letterbox/http"
	"github.com/snarkipus/letterbox/rabbitmq"
	"github.com/snarkipus/letterbox/smtp"
	"github.com/snarkipus/letterbox/sqlite"
	"github.com/snarkipus/letterbox/subscription"
)

const newsletterTopic = "newsletters"

func main() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("db.type", "sqlite")

	var config *letterbox.Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatal(err)
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn: config.Sentry.DSN,
	}); err != nil {
		log.Fatalf("sentry.Init: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	a := newApp(config)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		_ = a.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := a.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	config      *letterbox.Config
	logger      zerolog.Logger
	db          letterbox.Database
	subscribers letterbox.SubscriberStore
	users       letterbox.UserStore
	httpServer  *http.Server
	cron        *cron.Cron
	queue       letterbox.QueueService
}

func newApp(config *letterbox.Config) *app {
	httpServer, err := http.NewServer()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	a := &app{
		config:     config,
		logger:     zerolog.New(os.Stdout).With().Timestamp().Logger(),
		httpServer: httpServer,
	}

	switch config.DB.Type {
	case "bolt":
		db := bolt.NewDB(config.DB.Path)
		a.db = db
		a.subscribers = bolt.NewSubscriberStore(db)
		a.users = bolt.NewUserStore(db)
	default:
		db := sqlite.NewDB(config.DB.Path)
		a.db = db
		a.subscribers = sqlite.NewSubscriberStore(db)
		a.users = sqlite.NewUserStore(db)
	}

	return a
}

func (a *app) Run(ctx context.Context) error {
	if err := a.db.Open(); err != nil {
		return err
	}

	a.httpServer.Addr = a.config.HTTP.Addr
	a.httpServer.HMACSecret = a.config.Newsletter.HMAC.Secret

	if err := a.httpServer.Open(); err != nil {
		return err
	}

	baseURL := a.config.Application.BaseURL
	if baseURL == "" {
		baseURL = a.httpServer.URL()
	}

	emailService := smtp.NewEmailService(a.config, a.httpServer.URL())
	subscriptionService := subscription.NewService(a.subscribers, emailService, baseURL, a.logger)

	a.httpServer.SubscriptionService = subscriptionService
	a.httpServer.AuthService = auth.NewVerifier(a.users, auth.NewArgon2idHasher())

	if spec := a.config.Newsletter.Renotify.Spec; spec != "" {
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(spec, func() {
			if err := subscriptionService.RenotifyPending(context.Background()); err != nil {
				a.logger.Error().Err(err).Msg("Failed to re-notify pending subscribers")
			}
		}); err != nil {
			return err
		}
		a.cron.Start()
	}

	if url := a.config.AMQP.URL; url != "" {
		queue, err := rabbitmq.NewQueueService(url)
		if err != nil {
			return err
		}
		a.queue = queue

		messages, err := queue.Consume(ctx, newsletterTopic)
		if err != nil {
			return err
		}

		go func() {
			for body := range messages {
				var n letterbox.Newsletter
				if err := json.Unmarshal(body, &n); err != nil {
					a.logger.Error().Err(err).Msg("Failed to decode queued newsletter")
					continue
				}
				if err := subscriptionService.Publish(ctx, n); err != nil {
					a.logger.Error().Err(err).Msg("Failed to publish queued newsletter")
				}
			}
		}()
	}

	return nil
}

func (a *app) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}

	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			return err
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			return err
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}

	return nil
}
