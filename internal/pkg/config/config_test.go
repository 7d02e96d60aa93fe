package config_test

import (
	"strings"
	"testing"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/config"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMMUNITYEYE_AUTH_SECRET", "s3cret")
	t.Setenv("COMMUNITYEYE_STORAGE_DRIVER", "memory")

	cfg, err := config.Load("communityeye-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.ProtectResolve {
		t.Error("expected resolve to be protected by default")
	}
	if cfg.Storage.Driver != config.DriverMemory {
		t.Errorf("expected memory driver from env, got %s", cfg.Storage.Driver)
	}
	if cfg.Telemetry.ServiceName != "communityeye-test" {
		t.Errorf("expected service name default, got %s", cfg.Telemetry.ServiceName)
	}
	if len(cfg.Routing.Buckets) != len(domain.DefaultCategoryBuckets()) {
		t.Errorf("expected default routing buckets, got %d", len(cfg.Routing.Buckets))
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMMUNITYEYE_AUTH_SECRET", "")

	_, err := config.Load("communityeye-test")
	if err == nil || !strings.Contains(err.Error(), "auth.secret") {
		t.Errorf("expected auth.secret validation error, got %v", err)
	}
}

func TestLoadStorage_IgnoresServingSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMMUNITYEYE_AUTH_SECRET", "")
	t.Setenv("COMMUNITYEYE_STORAGE_DRIVER", "mongo")

	cfg, err := config.LoadStorage("communityeye-migrate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mongo.ReportsCollection != "reports" {
		t.Errorf("expected default reports collection, got %s", cfg.Mongo.ReportsCollection)
	}

	t.Setenv("COMMUNITYEYE_STORAGE_DRIVER", "sqlite")
	if _, err := config.LoadStorage("communityeye-migrate"); err == nil {
		t.Error("expected unknown storage driver to fail")
	}
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Server:   config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, BodyLimitMB: 16},
		Storage:  config.StorageConfig{Driver: config.DriverMemory},
		Blob:     config.BlobConfig{Driver: config.BlobLocal, LocalDir: "/tmp/x"},
		Auth:     config.AuthConfig{Secret: "x"},
		Boundary: config.BoundaryConfig{Path: "b.geojson"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown storage", func(c *config.Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"postgres needs host", func(c *config.Config) { c.Storage.Driver = config.DriverPostgres }, "database.host"},
		{"mongo needs uri", func(c *config.Config) { c.Storage.Driver = config.DriverMongo }, "mongo.uri"},
		{"cloudinary creds", func(c *config.Config) { c.Blob.Driver = config.BlobCloudinary }, "blob.cloudinary"},
		{"boundary path", func(c *config.Config) { c.Boundary.Path = "" }, "boundary.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
