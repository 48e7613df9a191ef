// Package client ties the query algebra, the label hierarchy and the remote
// collaborators into the object surface callers work with: a Client hands
// out label trees, searches and bulk actions.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/label"
	"github.com/lu-zhengda/gmailkit/internal/provider"
	"github.com/lu-zhengda/gmailkit/internal/rate"
)

const (
	// DefaultBatchSize is the number of messages fetched per batched detail
	// call.
	DefaultBatchSize = 100
	// DefaultBatchDelay is the minimum spacing between batch starts.
	DefaultBatchDelay = time.Second
)

// Config tunes a Client. The zero value selects the defaults.
type Config struct {
	// BatchSize is the chunk size for batched detail fetches. Negative
	// disables batching entirely and messages are fetched one by one.
	BatchSize int
	// BatchDelay is the minimum wall-clock spacing enforced between
	// successive batch starts.
	BatchDelay time.Duration
	// LegacyTruncation truncates equatable query operands at the first
	// whitespace, reproducing historical behavior.
	LegacyTruncation bool
}

func (c Config) withDefaults() Config {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = DefaultBatchDelay
	}
	return c
}

func (c Config) batchingEnabled() bool { return c.BatchSize > 0 }

// Client is the entry point to the mailbox.
type Client struct {
	svc     provider.Service
	tree    *label.Tree
	cfg     Config
	limiter rate.Limiter

	labelsLoaded bool
}

// New builds a Client over the given collaborator service. No remote calls
// are made until the first operation.
func New(svc provider.Service, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		svc:     svc,
		tree:    label.NewTree(svc),
		cfg:     cfg,
		limiter: rate.NewPacer(cfg.BatchDelay),
	}
}

// Labels returns the label hierarchy, refreshing it on first access.
func (c *Client) Labels(ctx context.Context) (*label.Tree, error) {
	if err := c.ensureLabels(ctx); err != nil {
		return nil, err
	}
	return c.tree, nil
}

// RefreshLabels re-reads the remote label list and reconciles the tree.
func (c *Client) RefreshLabels(ctx context.Context) error {
	if err := c.tree.Refresh(ctx); err != nil {
		return err
	}
	c.labelsLoaded = true
	return nil
}

func (c *Client) ensureLabels(ctx context.Context) error {
	if c.labelsLoaded {
		return nil
	}
	return c.RefreshLabels(ctx)
}

// Messages returns a fresh search over the mailbox. The default result
// limit is the batch size; callers wanting everything use Unlimited.
func (c *Client) Messages() *Search {
	limit := int64(c.cfg.BatchSize)
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	return &Search{c: c, limit: &limit}
}

// Message fetches a single message by id.
func (c *Client) Message(ctx context.Context, id string) (*Message, error) {
	if err := c.ensureLabels(ctx); err != nil {
		return nil, err
	}
	raw, err := c.svc.GetMessageRaw(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return c.assemble(ctx, raw)
}

// Profile returns the authenticated account's email address.
func (c *Client) Profile(ctx context.Context) (string, error) {
	return c.svc.GetProfile(ctx)
}
