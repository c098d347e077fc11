// Package session bundles the registry and services behind a single
// mutex so concurrent tool calls never interleave read-modify-write
// cycles on an owner's documents.
package session

import (
	"sync"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/registry"
	"github.com/bobmcallan/nestegg/internal/services/market"
	"github.com/bobmcallan/nestegg/internal/services/memory"
	"github.com/bobmcallan/nestegg/internal/services/portfolio"
)

// Session is the handle handed to the tool layer. All tool handlers run
// their body through Do; nothing else touches the owner documents.
type Session struct {
	mu sync.Mutex

	Registry  *registry.Registry
	Portfolio *portfolio.Service
	Memory    *memory.Service
	Market    *market.Service

	logger *common.Logger
}

// New assembles a session over already-constructed services.
func New(reg *registry.Registry, portfolioSvc *portfolio.Service, memorySvc *memory.Service, marketSvc *market.Service, logger *common.Logger) *Session {
	return &Session{
		Registry:  reg,
		Portfolio: portfolioSvc,
		Memory:    memorySvc,
		Market:    marketSvc,
		logger:    logger,
	}
}

// Do runs fn while holding the session lock. Tool handlers wrap their
// whole body in Do, which serializes every tool call against every other.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Logger returns the session logger for handler-level diagnostics.
func (s *Session) Logger() *common.Logger {
	return s.logger
}
