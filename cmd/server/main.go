package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tablechat/internal/chat"
	"tablechat/internal/config"
	"tablechat/internal/db"
	"tablechat/internal/dice"
	clog "tablechat/internal/log"
	"tablechat/internal/mw"
	"tablechat/internal/random"
	"tablechat/internal/server"
	"tablechat/internal/service"
	"tablechat/internal/ws"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	// main 函数负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}
	clog.Init(cfg.Env, cfg.LogLevel)

	gdb, err := db.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	var src *random.Rand
	if cfg.DiceSeed != 0 {
		src = random.NewSeeded(cfg.DiceSeed)
	} else if src, err = random.New(); err != nil {
		log.Fatal().Err(err).Msg("dice seed")
	}
	log.Info().Int64("seed", src.Seed()).Msg("dice source ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := chat.NewSession()
	engine := dice.NewEngine(src)
	limits := dice.Limits{MaxRange: cfg.DiceMaxRange, MaxTimes: cfg.DiceMaxTimes}
	feed := ws.NewFeed()
	go feed.Run(ctx)

	h := server.NewHandler(
		session,
		service.NewRollService(session, engine, limits),
		engine,
		limits,
		service.NewSheetService(gdb, cfg.SigningSecret),
		feed,
	)
	rl := mw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst, 10*time.Minute)
	defer rl.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.SetupRouter(cfg, h, rl),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
