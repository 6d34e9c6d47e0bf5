package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ultrahd-dev/course-catalog-app/internal/auth"
	"github.com/Ultrahd-dev/course-catalog-app/internal/catalog"
	cataloghandlers "github.com/Ultrahd-dev/course-catalog-app/internal/catalog/handlers"
	"github.com/Ultrahd-dev/course-catalog-app/internal/config"
	"github.com/Ultrahd-dev/course-catalog-app/internal/jwt"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
	"github.com/Ultrahd-dev/course-catalog-app/internal/routes"
	"github.com/Ultrahd-dev/course-catalog-app/internal/users"
	userhandlers "github.com/Ultrahd-dev/course-catalog-app/internal/users/handlers"
)

// app holds the components the serve command runs.
type app struct {
	cfg         *config.Config
	userRepo    *users.Repository
	userService *users.Service
	jwtManager  *jwt.Manager
	store       *catalog.Store
	handler     http.Handler
}

// buildApp assembles every component from configuration: accounts are
// provisioned, the catalog is seeded, and the HTTP handler is wired.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	userRepo := users.NewRepository()
	userService := users.NewService(userRepo)

	for _, acct := range cfg.Accounts {
		user, err := userService.ProvisionUser(ctx, acct.Email, acct.PasswordHash, users.Role(acct.Role))
		if err != nil {
			return nil, fmt.Errorf("provision accounts: %w", err)
		}
		logging.Infof("provisioned %s account %s", user.Role, user.Email)
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)

	store := catalog.NewStore()
	if cfg.Catalog.SeedFile != "" {
		seed, err := catalog.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := store.Seed(seed); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	handler := routes.NewHandler(routes.Deps{
		Auth:       auth.NewMiddleware(auth.NewTokenResolver(jwtManager, userRepo)),
		Users:      userhandlers.NewAuthHandler(userService, jwtManager, cfg.JWT.Expiration),
		Courses:    cataloghandlers.NewCourseHandler(store),
		CORSOrigin: cfg.Server.CORSOrigin,
	})

	return &app{
		cfg:         cfg,
		userRepo:    userRepo,
		userService: userService,
		jwtManager:  jwtManager,
		store:       store,
		handler:     handler,
	}, nil
}
