package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"soloboss/internal/app"
	"soloboss/internal/config"
	"soloboss/internal/identity"
	"soloboss/internal/ratelimit"
	"soloboss/internal/server"
	"soloboss/internal/util"
	"soloboss/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
	}

	downloadTTL, err := config.ParseDownloadTTL(cfg.DownloadTTL)
	if err != nil {
		log.Fatalf("failed to parse download TTL: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Objects:     objects,
		DownloadTTL: downloadTTL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	resolver, err := buildResolver(cfg)
	if err != nil {
		log.Fatalf("failed to init identity: %v", err)
	}

	var chatLimiter *ratelimit.Limiter
	if cfg.ChatRateLimitPerMinute > 0 {
		chatLimiter, err = ratelimit.NewLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.ChatRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init chat rate limiter: %v", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Identity:       resolver,
		ChatLimiter:    chatLimiter,
		TrustedProxies: trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func buildResolver(cfg config.FileConfig) (identity.Resolver, error) {
	if cfg.AuthJWKSURL != "" {
		leeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
		if err != nil {
			return nil, err
		}
		return identity.NewJWTResolver(identity.JWTConfig{
			JWKSURL:  cfg.AuthJWKSURL,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   leeway,
		})
	}
	slog.Warn("JWT verification disabled, using static identity", "user_id", cfg.DevUserID)
	return identity.StaticResolver{UserID: cfg.DevUserID}, nil
}
