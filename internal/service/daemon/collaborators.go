package daemon

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/alarm-manager/internal/alerting/notify"
	"github.com/oshokin/alarm-manager/internal/alerting/process"
	"github.com/oshokin/alarm-manager/internal/alerting/sound"
	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/repository/store"
)

// nopCloser closes nothing.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore opens the configured store backend.
//
//nolint:ireturn // The backend is chosen by the settings.
func openStore(ctx context.Context, cfg *config.StoreConfig) (store.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		redisStore := store.NewRedisStore(store.RedisOptions{
			Address:  cfg.RedisAddress,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})

		if err := redisStore.Ping(ctx); err != nil {
			_ = redisStore.Close() //nolint:errcheck // Already failing.

			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}

		logger.InfoKV(ctx, "Using redis store", "redis_address", cfg.RedisAddress)

		return redisStore, redisStore, nil
	case config.BackendMemory:
		logger.Warn(ctx, "Using memory store, alarms are lost on exit")

		return store.NewMemoryStore(), nopCloser{}, nil
	default:
		logger.InfoKV(ctx, "Using file store", "path", cfg.Path)

		return store.NewFileStore(cfg.Path), nopCloser{}, nil
	}
}

// buildActions creates the alert collaborators. The returned function
// releases them.
func buildActions(ctx context.Context, cfg *config.Config) (escalation.Actions, func()) {
	notifiers := notify.Multi{notify.Log{}}
	cleanup := func() {}

	if cfg.Notifier.Desktop {
		notifiers = append(notifiers, notify.NewDesktop(cfg.Notifier.DesktopCommand))
	}

	if cfg.Notifier.MQTTBroker != "" {
		origin, err := notify.DetectOrigin()
		if err != nil {
			logger.WarnKV(ctx, "Failed to detect origin for MQTT messages", "error", err)
		}

		clientID := cfg.Notifier.MQTTClientID
		if clientID == "" {
			clientID = "alarm-manager-" + origin.Hostname
		}

		publisher, err := notify.NewMQTT(ctx, &notify.MQTTOptions{
			Broker:   cfg.Notifier.MQTTBroker,
			Topic:    cfg.Notifier.MQTTTopic,
			ClientID: clientID,
			Timeout:  cfg.Timeout,
			Origin:   origin,
		})

		switch {
		case err != nil:
			// Notices still reach the other channels.
			logger.ErrorKV(ctx, "MQTT notifier disabled", "broker", cfg.Notifier.MQTTBroker, "error", err)
		default:
			notifiers = append(notifiers, publisher)
			cleanup = publisher.Close
		}
	}

	actions := escalation.Actions{
		Notifier: notifiers,
		Launcher: process.New(),
	}

	if cfg.Sound.Enabled {
		actions.Sound = sound.New()
	}

	logger.InfoKV(ctx, "Alert channels ready",
		"notifiers", len(notifiers), "sound", cfg.Sound.Enabled, "mqtt", cfg.Notifier.MQTTBroker != "")

	return actions, cleanup
}
