// Package appctx holds the state shared by the sales screens: vendor
// credentials, the target store and the session lookup. It is built once at
// startup and handed to the components that need it.
package appctx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sales_targets/internal/config"
	"sales_targets/internal/iiko"
	"sales_targets/internal/session"
	"sales_targets/internal/targets"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Context struct {
	mu       sync.RWMutex
	creds    iiko.Credentials
	validate *validator.Validate
	targets  *targets.Store
	sessions session.Lookup
	logger   *zap.Logger
}

func New(cfg config.Config, sessions session.Lookup, logger *zap.Logger) *Context {
	return &Context{
		creds: iiko.Credentials{
			Server:   strings.TrimSpace(cfg.IikoServer),
			User:     strings.TrimSpace(cfg.IikoUser),
			Password: cfg.IikoPassword,
			Token:    strings.TrimSpace(cfg.IikoToken),
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		targets:  targets.NewStore(cfg.MaxPositions),
		sessions: sessions,
		logger:   logger.Named("appctx"),
	}
}

func (c *Context) Credentials() iiko.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// UpdateCredentials replaces the vendor credentials as a whole. Invalid
// input leaves the current credentials in place.
func (c *Context) UpdateCredentials(server, user, password string) error {
	next := iiko.Credentials{
		Server:   strings.TrimRight(strings.TrimSpace(server), "/"),
		User:     strings.TrimSpace(user),
		Password: password,
	}
	if err := c.ValidateCredentials(next); err != nil {
		return err
	}

	c.mu.Lock()
	c.creds = next
	c.mu.Unlock()

	c.logger.Info("iiko credentials updated",
		zap.String("server", next.Server),
		zap.String("user", next.User),
	)
	return nil
}

func (c *Context) ValidateCredentials(creds iiko.Credentials) error {
	if err := c.validate.Struct(creds); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	return nil
}

func (c *Context) Targets() *targets.Store {
	return c.targets
}

func (c *Context) ResetTargets(branchIDs []string) {
	c.targets.Reset(branchIDs)
}

// SetDishTarget takes the position as shown on the form, starting at 1.
func (c *Context) SetDishTarget(branchID string, position int, category string, target1, target2 *float64, surname string) error {
	return c.targets.SetDishTarget(branchID, position-1, category, target1, target2, surname)
}

func (c *Context) Authenticated(ctx context.Context, token string) bool {
	if c.sessions == nil || strings.TrimSpace(token) == "" {
		return false
	}
	_, ok := c.sessions.Lookup(ctx, token)
	return ok
}
