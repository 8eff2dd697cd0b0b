// Package config provides configuration loading and validation for the
// fragments server.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FRAGMENTS_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FRAGMENTS_ prefix:
//   - server.port → FRAGMENTS_SERVER_PORT
//   - database.type → FRAGMENTS_DATABASE_TYPE
//   - storage.s3.bucket → FRAGMENTS_STORAGE_S3_BUCKET
//
// # Configuration Structure
//
//   - Server: port, api_url and max_upload_size
//   - Service: cleanup_timeout and list_policy (soft or strict)
//   - Database: metadata backend type (memory, sqlite, postgres), DSN, table names
//   - Storage: blob backend type (memory, filesystem, s3, database) and its options
//   - Conversion: JPEG quality and GitHub Flavored Markdown
//   - Auth: Basic auth users, inline or from a JSON file
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
