package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopledger/internal/billshare"
	"shopledger/internal/config"
	"shopledger/internal/domain"
	"shopledger/internal/httpapi"
	"shopledger/internal/service"
	"shopledger/internal/store"
	"shopledger/internal/store/memory"
	"shopledger/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabasePath != "" {
		db, err := sqlite.New(ctx, cfg.DatabasePath)
		if err != nil {
			log.Fatalf("sqlite unavailable (%v) and DATABASE_PATH is set; refusing to start with in-memory fallback", err)
		}
		repo = db
		closers = append(closers, db.Close)
		if err := seedDefaults(ctx, db); err != nil {
			log.Printf("seed warning: %v", err)
		}
		log.Printf("repository: sqlite (%s)", cfg.DatabasePath)
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	shares := billshare.Cache(billshare.NewMemoryCache())
	if cfg.RedisAddr != "" {
		redisShares := billshare.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisShares.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), sharing bills in-process only", err)
		} else {
			shares = redisShares
			closers = append(closers, redisShares.Close)
			log.Println("bill sharing: redis")
		}
	} else {
		log.Println("bill sharing: in-process")
	}

	svc := service.New(repo, shares, cfg.ShareBaseURL)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("shop backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}

// seedDefaults populates a fresh database with the stock categories, shop
// settings, and login accounts. Existing rows are left alone, so re-running
// on an established database is a no-op.
func seedDefaults(ctx context.Context, repo store.Repository) error {
	categories, err := repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		for _, name := range domain.DefaultCategories {
			if _, err := repo.CreateCategory(ctx, domain.Category{Name: name}); err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
		}
	}

	if _, err := repo.GetSetting(ctx, "shop_name"); err != nil {
		defaults := map[string]string{
			"shop_name":   `"My Shop"`,
			"bill_prefix": fmt.Sprintf("%q", domain.DefaultBillPrefix),
		}
		for key, value := range defaults {
			if err := repo.PutSetting(ctx, domain.Setting{Key: key, Value: value}); err != nil {
				return fmt.Errorf("seed setting %q: %w", key, err)
			}
		}
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
		cashierPassword := os.Getenv("SEED_CASHIER_PASSWORD")
		if adminPassword == "" {
			adminPassword = "admin123"
			log.Println("WARNING: SEED_ADMIN_PASSWORD not set, seeding default admin password")
		}
		if cashierPassword == "" {
			cashierPassword = "cashier123"
			log.Println("WARNING: SEED_CASHIER_PASSWORD not set, seeding default cashier password")
		}
		now := time.Now().UTC()
		seeded := []domain.UserAccount{
			{Username: "admin", Password: adminPassword, Role: "admin", Active: true, CreatedAt: now},
			{Username: "cashier", Password: cashierPassword, Role: "cashier", Active: true, CreatedAt: now},
		}
		// Passwords are stored as given; the auth manager's bootstrap pass
		// replaces any plain-text credential with a bcrypt hash on first load.
		for _, user := range seeded {
			if err := repo.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("seed user %q: %w", user.Username, err)
			}
		}
	}

	return nil
}
