package main

import (
	"context"
	"fmt"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"
	"contact-gateway/internal/config"
	"contact-gateway/internal/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// deps agrupa as dependências concretas escolhidas pela configuração.
type deps struct {
	rdb       *redis.Client
	storage   domain.KVStore
	transport domain.Transport
	stats     domain.StatsStore
	totals    interface {
		Totals(ctx context.Context) (infra.Counters, error)
	}
}

func (d *deps) Close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
}

func newLogger(cfg config.LogConfig, quiet bool) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		Quiet:      quiet,
	})
}

// buildDeps monta storage, transporte e estatísticas. localFile força o
// FileKV quando o driver é memory (o TUI precisa sobreviver ao restart).
func buildDeps(ctx context.Context, cfg config.Config, localFile bool, logger *zap.Logger) (*deps, error) {
	d := &deps{}

	needRedis := cfg.Storage.Driver == "redis" || cfg.Stats.Driver == "redis"
	if needRedis {
		d.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := d.rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
	}

	switch {
	case cfg.Storage.Driver == "redis":
		d.storage = infra.NewRedisKV(d.rdb,
			infra.WithKVPrefix(cfg.Storage.Redis.Prefix),
			infra.WithKVTTL(cfg.Storage.Redis.TTL),
		)
	case cfg.Storage.Driver == "file" || localFile:
		kv, err := infra.NewFileKV(cfg.Storage.File, infra.WithFileKVLogger(logger))
		if err != nil {
			d.Close()
			return nil, err
		}
		d.storage = kv
	default:
		d.storage = infra.NewMemoryKV()
	}

	tr, err := buildTransport(cfg.Transport)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.transport = tr
	if n := cfg.Transport.MaxConcurrent; n > 0 {
		d.transport = application.LimitTransport(tr, infra.NewSlots(n), cfg.Transport.AcquireTimeout)
	}

	if cfg.Stats.Driver == "redis" {
		s := infra.NewRedisStatsStore(d.rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		)
		d.stats, d.totals = s, s
	} else {
		s := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
		d.stats, d.totals = s, s
	}
	return d, nil
}

func buildTransport(cfg config.TransportConfig) (domain.Transport, error) {
	switch cfg.Driver {
	case "smtp":
		return infra.NewSMTPTransport(infra.SMTPConfig{
			Host:          cfg.SMTP.Host,
			Port:          cfg.SMTP.Port,
			Username:      cfg.SMTP.Username,
			Password:      cfg.SMTP.Password,
			UseTLS:        cfg.SMTP.UseTLS,
			From:          cfg.SMTP.From,
			To:            cfg.SMTP.To,
			SubjectPrefix: cfg.SMTP.SubjectPrefix,
			PhoneRegion:   cfg.SMTP.PhoneRegion,
			Timeout:       cfg.SMTP.Timeout,
		})
	case "webhook":
		var opts []infra.WebhookOption
		for k, v := range cfg.Webhook.Headers {
			opts = append(opts, infra.WithWebhookHeader(k, v))
		}
		return infra.NewWebhookTransport(cfg.Webhook.URL, cfg.Webhook.Timeout, opts...)
	default:
		return infra.NewDelayTransport(cfg.Delay), nil
	}
}

func newRequestBuckets(cfg config.RequestLimitConfig) *infra.RequestBuckets {
	return infra.NewRequestBuckets(domain.Quota{RPS: cfg.RPS, Burst: cfg.Burst},
		infra.WithActionQuota(domain.ActionEdit, domain.Quota{RPS: cfg.EditRPS, Burst: cfg.EditBurst}),
		infra.WithActionQuota(domain.ActionSubmit, domain.Quota{RPS: cfg.SubmitRPS, Burst: cfg.SubmitBurst}),
	)
}
