// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[2:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: postgres or sqlite (default: postgres)
  - JWTSecret: HS256 signing secret for access tokens (required)
  - AccessTokenTTL: Access token lifetime (default: 60m)
  - RedisURL: Redis used for job locks (optional)
  - RateLimitRPS / RateLimitBurst: Per-client request budget (default: 10/20)
  - APIPrefix: Route prefix (default: /api/v1)
  - Schedules: Cron spec overrides per job name (file only)

# CLI Flags

	-config      YAML config file
	-p           Server port
	-d           Database URL
	-t           Database type
	-redis       Redis URL
	-token-ttl   Access token lifetime
	-jwt-secret  JWT signing secret

# Environment Variables

A .env file in the working directory is loaded first; variables already set
in the environment win over it. Flags fall back to:

	BRK_CONFIG                       → -config
	BRK_PORT                         → -p
	BRK_DATABASE_URL                 → -d
	BRK_DATABASE_TYPE                → -t
	BRK_REDIS_URL                    → -redis
	BRK_ACCESS_TOKEN_EXPIRE_MINUTES  → -token-ttl
	BRK_JWT_SECRET_KEY               → -jwt-secret
	BRK_RATE_LIMIT_RPS, BRK_RATE_LIMIT_BURST, BRK_API_V1_PREFIX, BRK_AUDIT_SALT

Precedence is flags, then environment, then the YAML file, then defaults.

# Validation

ParseFlags returns an error if:

  - no database URL is configured
  - the database type is not postgres or sqlite
  - the JWT secret is missing or still "change-me"
*/
package cliparse
