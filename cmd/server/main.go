package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blogdesk/internal/blob"
	"github.com/blogdesk/internal/config"
	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/handler"
	"github.com/blogdesk/internal/logging"
	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/panel"
	"github.com/blogdesk/internal/router"
	"github.com/blogdesk/internal/service"
	"github.com/blogdesk/internal/store"
	"github.com/blogdesk/web"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// 初始化数据库
	posts, closeStore, err := openPostStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open record store")
	}
	defer closeStore()

	blobs, err := blob.NewLocalStore(cfg.UploadDir, cfg.SiteBaseURL+cfg.UploadURLPath)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to prepare upload directory")
	}

	pages, closePages, err := openPageCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open page cache")
	}
	defer closePages()

	templates, err := web.Templates(handler.TemplateFuncs())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	revalidator := service.NewRevalidator(posts, pages)
	var revalidation panel.RevalidationClient = panel.LocalClient{Revalidator: revalidator}
	if cfg.RevalidateURL != "" {
		revalidation = panel.NewHTTPClient(cfg.RevalidateURL)
		log.Info().Str("url", cfg.RevalidateURL).Msg("admin panel revalidates through a remote endpoint")
	}

	api := handler.NewAPI(handler.Options{
		Posts: service.NewPostService(posts, blobs, service.PostServiceOptions{
			Bucket:        cfg.UploadBucket,
			MaxImageBytes: cfg.UploadMaxBytes,
			Pages:         pages,
		}),
		Revalidator:    revalidator,
		Revalidation:   revalidation,
		Pages:          pages,
		Templates:      templates,
		MaxUploadBytes: cfg.UploadMaxBytes,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(router.Options{
		API:           api,
		SessionSecret: cfg.SessionSecret,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}
	log.Info().Msg("server stopped")
}

func openPostStore(ctx context.Context, cfg config.AppConfig) (store.PostStore, func(), error) {
	if cfg.UsesPostgres() {
		pg, err := store.NewPgxStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Info().Msg("using postgres record store")
		return pg, pg.Close, nil
	}

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", cfg.DatabasePath).Msg("using sqlite record store")
	return store.NewGormStore(gdb), func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}, nil
}

func openPageCache(ctx context.Context, cfg config.AppConfig) (pagecache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return pagecache.NewMemory(cfg.PageCacheTTL), func() {}, nil
	}

	client, err := pagecache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis page cache")
	return pagecache.NewRedis(client, cfg.PageCacheTTL), func() {
		client.Close()
	}, nil
}
