package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/ctfdocker/internal/logger"
	"github.com/schmitthub/ctfdocker/pkg/whail"
)

// Client embeds whail.Engine with ctfdocker's label conventions.
// All whail.Engine methods are available directly on Client.
type Client struct {
	*whail.Engine
	labels Labels
}

// ClientConfig holds the settings needed to reach the daemon.
type ClientConfig struct {
	// Host overrides DOCKER_HOST when non-empty.
	Host string
	// LabelPrefix namespaces every label (e.g. "com.ctfdocker").
	LabelPrefix string
	// Version is recorded on created containers.
	Version string
}

// clientOptions holds configuration for NewClient.
type clientOptions struct {
	labels whail.LabelConfig
}

// ClientOption configures a NewClient call.
type ClientOption func(*clientOptions)

// WithLabels injects additional labels into the whail engine.
// Use this to add test labels that propagate to all created containers.
func WithLabels(labels whail.LabelConfig) ClientOption {
	return func(o *clientOptions) {
		o.labels = labels
	}
}

// NewClient connects to the daemon and configures the whail.Engine with
// the label prefix. The daemon must be reachable.
func NewClient(ctx context.Context, cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	engine, err := whail.New(ctx, engineOptions(cfg, opts...))
	if err != nil {
		return nil, err
	}
	return &Client{Engine: engine, labels: Labels{Prefix: cfg.LabelPrefix}}, nil
}

// NewClientFromEngine wraps an existing engine. Intended for tests.
func NewClientFromEngine(engine *whail.Engine) *Client {
	return &Client{Engine: engine, labels: Labels{Prefix: engine.Options().LabelPrefix}}
}

func engineOptions(cfg ClientConfig, opts ...ClientOption) whail.EngineOptions {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.LabelPrefix == "" {
		cfg.LabelPrefix = DefaultLabelPrefix
	}
	labels := o.labels
	labels.Default = whail.MergeLabels(map[string]string{
		cfg.LabelPrefix + "." + LabelVersion: cfg.Version,
	}, labels.Default)
	return whail.EngineOptions{
		LabelPrefix:  cfg.LabelPrefix,
		ManagedLabel: EngineManagedLabel,
		Host:         cfg.Host,
		Labels:       labels,
	}
}

// Labels returns the label builder for this client's prefix.
func (c *Client) Labels() Labels {
	return c.labels
}

// ListFixtures returns managed containers, optionally narrowed to one image.
func (c *Client) ListFixtures(ctx context.Context, image string, includeAll bool) ([]whail.ContainerSummary, error) {
	var filter map[string]string
	if image != "" {
		filter = map[string]string{c.labels.Key(LabelImage): image}
	}
	return c.ContainerListByLabels(ctx, filter, includeAll)
}

// PruneFixtures force-removes every managed container, running or not, and
// returns the IDs removed. It keeps going past failures and returns them joined.
func (c *Client) PruneFixtures(ctx context.Context, image string) ([]string, error) {
	containers, err := c.ListFixtures(ctx, image, true)
	if err != nil {
		return nil, err
	}

	var (
		removed []string
		errs    []error
	)
	for _, ctr := range containers {
		if err := c.ContainerRemove(ctx, ctr.ID, true); err != nil {
			if whail.IsNotFound(err) {
				continue
			}
			logger.Warn().Err(err).Str("container", ctr.ID).Msg("failed to remove fixture container")
			errs = append(errs, fmt.Errorf("removing %s: %w", ctr.ID, err))
			continue
		}
		logger.Debug().Str("container", ctr.ID).Msg("removed fixture container")
		removed = append(removed, ctr.ID)
	}
	return removed, errors.Join(errs...)
}
