package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/lfsgate/config"
	"github.com/sagarc03/lfsgate/keybackend"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.BaseURL)
	assert.True(t, cfg.LFS.EnableVerify)
	assert.False(t, cfg.LFS.EnableSplit)
	assert.Equal(t, 30, cfg.LFS.CleanupTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "lfsgate.db", cfg.Database.DSN)
	assert.Equal(t, "lfs_objects", cfg.Database.Tables.Objects)
	assert.Equal(t, "lfs_locks", cfg.Database.Tables.Locks)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, "public", cfg.Auth.Read)
	assert.Equal(t, "private", cfg.Auth.Write)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  port: 9000
  base_url: https://lfs.example.com/
  max_upload_size: 1048576
lfs:
  enable_split: true
  enable_verify: false
  link_secret: s3cret
  cleanup_timeout: 5
database:
  type: badger
  dsn: /var/lib/lfsgate
  tables:
    objects: objs
    locks: lks
storage:
  type: s3
  s3:
    bucket: lfs
    region: eu-west-1
    endpoint: http://localhost:9000
    prefix: objects
auth:
  read: private
  write: private
metrics:
  enabled: true
  path: /internal/metrics
log:
  level: debug
  format: json
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadSize)
	assert.Equal(t, "https://lfs.example.com", cfg.PublicURL())
	assert.True(t, cfg.LFS.EnableSplit)
	assert.False(t, cfg.LFS.EnableVerify)
	assert.Equal(t, "s3cret", cfg.LFS.LinkSecret)
	assert.Equal(t, 5, cfg.LFS.CleanupTimeout)
	assert.Equal(t, "badger", cfg.Database.Type)
	assert.Equal(t, "objs", cfg.Database.Tables.Objects)
	assert.Equal(t, "lks", cfg.Database.Tables.Locks)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "lfs", cfg.Storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3.Endpoint)
	assert.Equal(t, "objects", cfg.Storage.S3.Prefix)
	assert.Equal(t, "private", cfg.Auth.Read)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  port: 8080
database:
  type: sqlite
  dsn: lfsgate.db
auth:
  read: public
  write: private
`)
	overridePath := writeConfig(t, "override.yaml", `
server:
  port: 9000
auth:
  read: private
`)

	// Load with merge (later files override earlier)
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "private", cfg.Auth.Read)

	// Preserved values from base
	assert.Equal(t, "private", cfg.Auth.Write)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid port",
			content: "server:\n  port: 99999\n",
			wantErr: "validate config",
		},
		{
			name:    "invalid auth mode",
			content: "auth:\n  read: invalid\n",
			wantErr: "validate config",
		},
		{
			name:    "unknown database type",
			content: "database:\n  type: mysql\n",
			wantErr: "validate config",
		},
		{
			name:    "unknown storage type",
			content: "storage:\n  type: ftp\n",
			wantErr: "validate config",
		},
		{
			name:    "s3 without bucket",
			content: "storage:\n  type: s3\n",
			wantErr: "storage.s3.bucket",
		},
		{
			name:    "same table twice",
			content: "database:\n  tables:\n    objects: lfs\n    locks: lfs\n",
			wantErr: "must differ",
		},
		{
			name:    "invalid table name",
			content: "database:\n  tables:\n    objects: Bad-Name\n",
			wantErr: "invalid table name",
		},
		{
			name:    "invalid log format",
			content: "log:\n  format: xml\n",
			wantErr: "validate config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_WithInlineCredentials(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
auth:
  read: private
  write: private
  credentials:
    inline:
      - username: alice
        password: wonderland
      - username: bob
        password: builder
    file: /etc/lfsgate/users.json
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	require.Len(t, cfg.Auth.Credentials.Inline, 2)
	assert.Equal(t, "alice", cfg.Auth.Credentials.Inline[0].Username)
	assert.Equal(t, "wonderland", cfg.Auth.Credentials.Inline[0].Password)
	assert.Equal(t, "bob", cfg.Auth.Credentials.Inline[1].Username)
	assert.Equal(t, "/etc/lfsgate/users.json", cfg.Auth.Credentials.File)
}

func TestLoad_WithCORS(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - GET
    - PUT
  allowed_headers:
    - Content-Type
  max_age: 600
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "PUT"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Content-Type"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LFSGATE_SERVER_PORT", "9090")
	t.Setenv("LFSGATE_DATABASE_TYPE", "postgres")
	t.Setenv("LFSGATE_AUTH_READ", "private")
	t.Setenv("LFSGATE_LFS_LINK_SECRET", "from-env")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "private", cfg.Auth.Read)
	assert.Equal(t, "from-env", cfg.LFS.LinkSecret)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("LFSGATE_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.String("db-type", "sqlite", "")
	flags.String("storage-path", "./data", "")
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--storage-path", "/srv/lfs"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	// Flags win over env, unset flags do not override
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/srv/lfs", cfg.Storage.Path)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestConfig_PublicURL(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Port: 8080}}
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL())

	cfg.Server.BaseURL = "https://lfs.example.com/"
	assert.Equal(t, "https://lfs.example.com", cfg.PublicURL())
}

func TestConfig_Redacted(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	cfg.LFS.LinkSecret = "signing-key"
	cfg.Storage.S3.SecretAccessKey = "aws-secret"
	cfg.Database.DSN = "postgres://lfs:hunter2@db:5432/lfs"
	cfg.Auth.Credentials.Inline = []keybackend.Credential{{Username: "alice", Password: "wonderland"}}

	redacted := cfg.Redacted()

	assert.Equal(t, "********", redacted.LFS.LinkSecret)
	assert.Equal(t, "********", redacted.Storage.S3.SecretAccessKey)
	assert.Equal(t, "postgres://lfs:********@db:5432/lfs", redacted.Database.DSN)
	assert.Equal(t, "alice", redacted.Auth.Credentials.Inline[0].Username)
	assert.Equal(t, "********", redacted.Auth.Credentials.Inline[0].Password)

	// The original is untouched
	assert.Equal(t, "wonderland", cfg.Auth.Credentials.Inline[0].Password)
	assert.Equal(t, "signing-key", cfg.LFS.LinkSecret)
}
