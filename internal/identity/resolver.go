package identity

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// SSOHeaders is the fixed, ordered list of forwarded-identity header names
// trusted from the upstream reverse proxy. The first present header wins.
var SSOHeaders = []string{
	"X-Forwarded-User",
	"X-Remote-User",
	"Remote-User",
}

// Credentials abstracts what a request or socket handshake presents. Header
// returns the value for a header name, or "" when absent.
type Credentials struct {
	BearerToken string
	Header      func(name string) string
}

// Strategy maps credentials to a local user. A nil result means the strategy
// has nothing to say and resolution falls through to the next one; strategies
// absorb their own failures and never propagate errors.
type Strategy interface {
	Resolve(ctx context.Context, creds Credentials) *domain.User
}

// Resolver evaluates strategies in order with first-success short-circuit.
// Adding an auth source is a list edit, not a rewrite.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds a resolver over the given strategy chain.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the first identity any strategy yields, or nil for an
// anonymous caller. It never returns an error; endpoints that require
// authentication reject a nil result at the gate.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) *domain.User {
	for _, strategy := range r.strategies {
		if user := strategy.Resolve(ctx, creds); user != nil {
			return user
		}
	}
	return nil
}

// NormalizeAccountName reduces a forwarded identity value to a bare account
// name: "CORP\jdoe" and "jdoe@corp.example" both become "jdoe".
func NormalizeAccountName(raw string) string {
	name := strings.TrimSpace(raw)
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "@"); idx >= 0 {
		name = name[:idx]
	}
	return name
}
