package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/platewatch/scoreshot/internal/artifact"
	"github.com/platewatch/scoreshot/internal/bot"
	"github.com/platewatch/scoreshot/internal/capture"
	"github.com/platewatch/scoreshot/internal/capture/headless"
	"github.com/platewatch/scoreshot/internal/clock/system"
	"github.com/platewatch/scoreshot/internal/config"
	"github.com/platewatch/scoreshot/internal/health"
	"github.com/platewatch/scoreshot/internal/id/uuid"
	"github.com/platewatch/scoreshot/internal/logging"
	"github.com/platewatch/scoreshot/internal/metrics"
	"github.com/platewatch/scoreshot/internal/plate"
	"github.com/platewatch/scoreshot/internal/probe"
	"github.com/platewatch/scoreshot/internal/session"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local development keeps the bot token in .env; in deployment the
	// environment carries it directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env failed: %v\n", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := system.New()
	ids := uuid.New()

	artifacts, err := artifact.New(cfg.Artifacts.Dir, clk, ids)
	if err != nil {
		logger.Fatal("artifact store init failed", zap.Error(err))
	}
	rules, err := plate.NewRules(cfg.Plate.MinLength, cfg.Plate.MaxLength)
	if err != nil {
		logger.Fatal("plate rules init failed", zap.Error(err))
	}
	links, err := plate.NewLinkBuilder(cfg.Target.BaseURL)
	if err != nil {
		logger.Fatal("link builder init failed", zap.Error(err))
	}
	engine, err := headless.New(capture.Settings{
		UserAgent:      cfg.Capture.UserAgent,
		ViewportWidth:  cfg.Capture.ViewportWidth,
		ViewportHeight: cfg.Capture.ViewportHeight,
		NavTimeout:     cfg.Capture.NavTimeout(),
		Settle:         cfg.Capture.Settle(),
		Quality:        cfg.Capture.Quality,
		ConsentLabels:  cfg.Capture.ConsentLabels,
		Score: capture.ScoreSettings{
			Rounds:      cfg.Capture.Score.Rounds,
			Interval:    cfg.Capture.Score.Interval(),
			StableReads: cfg.Capture.Score.StableReads,
		},
		Scroll: capture.ScrollSettings{
			MaxIterations: cfg.Capture.Scroll.MaxIterations,
			Interval:      cfg.Capture.Scroll.Interval(),
			StableReads:   cfg.Capture.Scroll.StableReads,
			MinScrollPx:   cfg.Capture.Scroll.MinScrollPx,
		},
	}, nil, logger.Named("capture"))
	if err != nil {
		logger.Fatal("capture engine init failed", zap.Error(err))
	}
	prober, err := probe.New(cfg.Target.BaseURL, cfg.Capture.UserAgent, cfg.Probe.Timeout(), logger.Named("probe"))
	if err != nil {
		logger.Fatal("probe init failed", zap.Error(err))
	}
	sessions := session.New()

	tgBot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("telegram auth failed", zap.Error(err))
	}
	tgBot.Debug = cfg.Telegram.Debug

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = cfg.Telegram.PollTimeoutSec
	updates := tgBot.GetUpdatesChan(updateCfg)

	b := bot.New(
		tgBot,
		updates,
		rules,
		links,
		engine,
		artifacts,
		sessions,
		prober,
		clk,
		logger.Named("bot"),
	)
	srv := health.NewServer(prober, cfg.Server.Port, cfg.Probe.CacheTTL(), logger.Named("http"))

	logger.Info("scoreshot starting",
		zap.String("bot_username", tgBot.Self.UserName),
		zap.String("target", prober.Origin()),
		zap.String("artifacts_dir", artifacts.Dir()),
		zap.Int("port", cfg.Server.Port),
	)

	botDone := make(chan struct{})
	go func() {
		logger.Info("update loop started")
		b.Run(ctx)
		close(botDone)
	}()

	srvDone := make(chan struct{})
	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("http server error", zap.Error(err))
		}
		close(srvDone)
		stop()
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	tgBot.StopReceivingUpdates()
	<-botDone
	<-srvDone
	logger.Info("shutdown complete")
}
