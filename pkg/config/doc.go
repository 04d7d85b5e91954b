// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. LoadConfig first reads a .env file from
// the working directory when one exists; variables already set in the
// environment win over the file.
//
// # Configuration Structure
//
// Server settings:
//
//	PORT="4000"
//	USERDECK_HOST="0.0.0.0"
//	USERDECK_HEALTH_PORT="9090"
//	USERDECK_READ_TIMEOUT="15s"
//	USERDECK_CORS_ORIGINS="https://dashboard.example.com,http://localhost:5173"
//	USERDECK_TRUST_PROXY_HEADERS="false"
//
// Identity settings:
//
//	USERDECK_IDENTITY_MODE="firebase"  # firebase, hs256
//	GOOGLE_APPLICATION_CREDENTIALS="/secrets/service-account.json"
//	FIREBASE_PROJECT_ID="my-project"
//	USERDECK_IDENTITY_SECRET="..."      # hs256 only
//
// Storage settings:
//
//	USERDECK_STORE_TYPE="postgres"  # memory, postgres, sqlite
//	USERDECK_POSTGRES_URL="postgres://localhost/userdeck"
//	USERDECK_POSTGRES_REPLICA_URLS="postgres://replica1/userdeck,postgres://replica2/userdeck"
//	USERDECK_SQLITE_PATH="userdeck.db"
//
// Rate limiting:
//
//	USERDECK_RATE_LIMIT_BACKEND="redis"  # memory, redis
//	USERDECK_REDIS_URL="redis://localhost:6379"
//	USERDECK_SIGNUP_RATE_LIMIT="100"
//	USERDECK_SIGNUP_RATE_WINDOW="15m"
//
// Observability settings:
//
//	USERDECK_LOG_LEVEL="info"  # debug, info, warn, error
//	USERDECK_METRICS_ENABLED="true"
//	USERDECK_STATS_SCHEDULE="@every 1m"
//	USERDECK_OTEL_ENABLED="true"
//	USERDECK_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Storage: %s\n", cfg.Storage.Type)
package config
