package cache

import (
	"context"
	"time"
)

// RegulationCache keeps rendered regulation text and pending revision proposals.
type RegulationCache interface {
	// GetText gets the rendered text of a regulation, ErrCacheMiss when absent.
	GetText(ctx context.Context, id string) (string, error)
	// SetText stores the rendered text of a regulation.
	SetText(ctx context.Context, id, text string) error
	// Invalidate drops the cached text of the given regulations.
	Invalidate(ctx context.Context, ids ...string) error
	// SaveProposal stores a pending revision proposal under token.
	SaveProposal(ctx context.Context, token string, proposal any, ttl time.Duration) error
	// GetProposal reads a pending revision proposal without consuming it.
	GetProposal(ctx context.Context, token string, proposal any) error
	// TakeProposal consumes a pending revision proposal, ErrCacheMiss when expired or used.
	TakeProposal(ctx context.Context, token string, proposal any) error
}
