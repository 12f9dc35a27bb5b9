// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/mix/internal/auth"
	"github.com/tomtom215/mix/internal/authz"
	"github.com/tomtom215/mix/internal/config"
	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/store"
)

// openStore returns Postgres when DATABASE_URL is set and the in-memory
// store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if !cfg.UsesPostgres() {
		if cfg.IsProduction() {
			logging.Warn().Msg("DATABASE_URL is not set; data is kept in memory and lost on restart")
		}
		return store.NewMemory(), nil
	}

	connectCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	pg, err := store.NewPostgres(connectCtx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logging.Info().Msg("Postgres store ready")
	return pg, nil
}

func newSessionManager(cfg *config.Config) (*auth.SessionManager, error) {
	signer, err := auth.NewCookieSigner(auth.CookieConfig{
		Name:       cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		MaxAge:     cfg.Session.TTL,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}

	sessionStore, err := auth.NewSessionStore(cfg.Session.Store, cfg.Session.StorePath)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	if cfg.Session.Store != "badger" && !cfg.IsDevelopment() {
		logging.Warn().Msg("Sessions are kept in memory (SESSION_STORE=memory); everyone is signed out on restart")
	}
	return auth.NewSessionManager(sessionStore, signer, cfg.Session.TTL), nil
}

// identity bundles the sign-in and back-office collaborators of the API.
type identity struct {
	google   *auth.GoogleVerifier
	admin    *auth.AdminAuthenticator
	jwt      *auth.JWTManager
	enforcer *authz.Enforcer
}

func newIdentity(cfg *config.Config) (*identity, error) {
	id := &identity{
		google: auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
			ClientID: cfg.Auth.GoogleClientID,
			Issuer:   cfg.Auth.GoogleIssuer,
			JWKSURL:  cfg.Auth.GoogleJWKSURL,
		}),
	}
	if id.google.Enabled() {
		logging.Info().Msg("Google sign-in enabled")
	}

	jwtManager, err := auth.NewJWTManager(cfg.AdminTokenSecret(), cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("jwt manager: %w", err)
	}
	id.jwt = jwtManager

	enforcer, err := authz.NewEnforcer(authz.Config{PolicyPath: cfg.Auth.PolicyPath})
	if err != nil {
		return nil, fmt.Errorf("authorization policy: %w", err)
	}
	id.enforcer = enforcer

	if !cfg.AdminEnabled() {
		logging.Info().Msg("Admin back office disabled (ADMIN_USERNAME/ADMIN_PASSWORD not set)")
		return id, nil
	}
	admin, err := auth.NewAdminAuthenticator(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminRole, auth.AdminBcryptCost)
	if err != nil {
		return nil, fmt.Errorf("admin account: %w", err)
	}
	id.admin = admin
	logging.Info().Str("username", admin.Username()).Msg("Admin back office enabled")
	return id, nil
}
