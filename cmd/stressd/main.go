// stressd 是财务压力推理服务进程：
// 加载配置 → 就位模型制品 → 构建门面 → 启动 HTTP 服务 → 优雅退出。
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/rushteam/stresskit"
	"github.com/rushteam/stresskit/bundle"
	"github.com/rushteam/stresskit/config"
	"github.com/rushteam/stresskit/pkg/logging"
	"github.com/rushteam/stresskit/pkg/rules"
	"github.com/rushteam/stresskit/predictor"
	"github.com/rushteam/stresskit/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		fail("config load", err)
	}

	log, err := logging.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		fail("logger init", err)
	}
	log = log.With().Str("service", "stressd").Logger()

	// 制品就位：本地已存在则跳过下载
	downloader := bundle.NewDownloader(bundle.WithTimeout(cfg.Model.DownloadTimeout()))
	downloaded, err := downloader.EnsureLocal(ctx, cfg.Model.URL, cfg.Model.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Model.Path).Msg("stressd: artifact bootstrap failed")
	}
	if downloaded {
		log.Info().Str("path", cfg.Model.Path).Msg("stressd: artifact downloaded")
	}

	svc := predictor.New(
		bundle.NewFileLoader(),
		cfg.Model.Path,
		predictor.WithLogger(logging.Component(log, "predictor")),
	)
	if err := svc.Load(ctx); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Model.Path).Msg("stressd: model load failed")
	}
	defer svc.Close()

	history, err := config.NewHistoryStore(cfg.History)
	if err != nil {
		log.Fatal().Err(err).Msg("stressd: history store init failed")
	}
	defer history.Close()

	opts := []server.Option{
		server.WithLogger(logging.Component(log, "server")),
		server.WithHistory(history),
		server.WithVersion(stresskit.Version),
		server.WithCORSOrigins(cfg.Server.CORSOrigins...),
		server.WithTimeouts(cfg.Server.ReadTimeout(), cfg.Server.WriteTimeout()),
	}
	if cfg.Rules.Enabled {
		engine, err := rules.NewEngine(cfg.Rules.Extra...)
		if err != nil {
			log.Fatal().Err(err).Msg("stressd: rules engine init failed")
		}
		opts = append(opts, server.WithRules(engine))
	}
	srv := server.New(svc, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("history", history.Name()).
		Bool("rules", cfg.Rules.Enabled).
		Msg("stressd: started")

	select {
	case <-ctx.Done():
		log.Info().Msg("stressd: shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Msg("stressd: graceful shutdown failed")
		}
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("stressd: server terminated with error")
		}
	}
}

// fail 在日志器可用之前报告启动错误。
func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("stressd init failed")
}
