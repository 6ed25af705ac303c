// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string or SQLite path (required)
  - DatabaseType: sqlite, postgres or pgx (default: sqlite)
  - AdminUsername: Login name for the admin console (required)
  - AdminPasswordHash: bcrypt hash of the admin password (required)
  - SessionSecret: HMAC secret for admin session tokens (required)
  - SessionTTL: Admin session lifetime (default: 12h)
  - PhoneCountryCode: Prefix for bare 10-digit phone contacts (default: 91)

# Sources

Values are resolved in this order:

 1. CLI flags
 2. Environment variables
 3. The env file (default .env, silently skipped when absent)
 4. Built-in defaults

The env file never overrides a variable already present in the environment.

# Environment Variables

	PORT                → -p
	DATABASE_URL        → -d
	DATABASE_TYPE       → -t
	ADMIN_USERNAME      → -admin-user
	ADMIN_PASSWORD_HASH → -admin-hash
	SESSION_SECRET      → -session-secret
	SESSION_TTL         → -session-ttl
	PHONE_COUNTRY_CODE  → -phone-cc

Generate ADMIN_PASSWORD_HASH with the hashpw command:

	go run ./cmd/hashpw 'my password'
*/
package cliparse
