// Package config provides configuration loading and validation for lfsgate.
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
//  3. Environment variables (LFSGATE_ prefix)
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
// All config keys map to environment variables with LFSGATE_ prefix:
//   - server.port → LFSGATE_SERVER_PORT
//   - lfs.link_secret → LFSGATE_LFS_LINK_SECRET
//   - storage.s3.bucket → LFSGATE_STORAGE_S3_BUCKET
//
// # Configuration Structure
//
//   - Server: port, base_url and max_upload_size
//   - LFS: enable_split, enable_verify, link_secret and cleanup_timeout
//   - Database: type (sqlite, postgres, badger), DSN and table names
//   - Storage: type (filesystem, s3), path and S3 bucket settings
//   - Auth: read/write access (public or private) and basic auth credentials
//   - CORS: cross-origin resource sharing settings
//   - Metrics: Prometheus endpoint
//   - Log: level and format
package config
