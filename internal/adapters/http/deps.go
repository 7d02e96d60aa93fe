package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/communityeye/communityeye/internal/adapters/valkey"
	"github.com/communityeye/communityeye/internal/core/usecases"
)

// Pinger is a store that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthConfig controls token verification.
type AuthConfig struct {
	Secret         string
	ProtectResolve bool
}

// Dependencies holds all services needed by HTTP handlers. PublicBaseURL
// prefixes the canonical report URL returned on create; DocsPath defaults
// to api/openapi.yaml.
type Dependencies struct {
	Reports       *usecases.ReportService
	Authorities   *usecases.AuthorityService
	Router        *usecases.AuthorityRouter
	Auth          AuthConfig
	PublicBaseURL string
	DocsPath      string
	NATS          *nats.Conn
	Store         Pinger
	Cache         *valkey.Cache
}
