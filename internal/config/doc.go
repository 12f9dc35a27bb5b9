// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

/*
Package config loads Mix server configuration with koanf.

Sources are layered, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, else ./config.yaml, ./config.yml, /etc/mix/config.yaml
 3. Environment variables

# Environment Variables

The variables shared with the SPA build keep their conventional names:

  - SESSION_SECRET: signs the mix.session cookie (required in production)
  - NODE_ENV: development, production or test
  - DATABASE_URL: postgres:// URL; unset keeps all data in memory
  - VITE_GOOGLE_CLIENT_ID: OAuth client id for Google sign-in
  - PORT, HOST: listen address (default 0.0.0.0:5000)

Everything else is optional; see envMappings for the full list (ADMIN_USERNAME,
ADMIN_PASSWORD, JWT_SECRET, SESSION_STORE, CORS_ORIGINS, EVENTS_BACKEND,
NATS_URL, LOG_LEVEL, LOG_FORMAT, ...).

Unknown environment variables are ignored.
*/
package config
