// Package hwinfo builds a short, human readable report of the host's
// platform, CPU, RAM and GPUs.
//
// Each category is served by a Chain: an ordered list of providers tried
// until one produces output. Providers whose backing library, command or
// device is unavailable report absence rather than failing the report.
package hwinfo

import (
	"context"
	"strings"

	"github.com/Ning0612/jutil/internal/logger"
)

// Provider produces one category's text. An empty result with a nil error
// means the provider has nothing to say; errors are treated the same way.
type Provider struct {
	Name  string
	Probe func(ctx context.Context) (string, error)
}

// Chain tries providers in order
type Chain struct {
	Category  string
	Providers []Provider
	// Fallback is returned when no provider produced output
	Fallback string
}

// Run returns the first non-empty provider result, or the fallback
func (c Chain) Run(ctx context.Context, log logger.Logger) string {
	for _, p := range c.Providers {
		if ctx.Err() != nil {
			break
		}
		out, err := p.Probe(ctx)
		if err != nil {
			log.Debug("hardware provider failed", "category", c.Category, "provider", p.Name, "error", err)
			continue
		}
		if out = strings.TrimSpace(out); out != "" {
			return out
		}
		log.Debug("hardware provider empty", "category", c.Category, "provider", p.Name)
	}
	return c.Fallback
}

// Reporter assembles the full hardware report
type Reporter struct {
	Platform Chain
	CPU      Chain
	RAM      Chain
	GPU      Chain
	Log      logger.Logger
}

// Report runs every chain and joins their results, one block per category
// in platform, CPU, RAM, GPU order. It holds no state and may be called
// repeatedly.
func (r Reporter) Report(ctx context.Context) string {
	log := r.Log
	if log == nil {
		log = &logger.NullLogger{}
	}

	blocks := make([]string, 0, 4)
	for _, chain := range []Chain{r.Platform, r.CPU, r.RAM, r.GPU} {
		if out := chain.Run(ctx, log); out != "" {
			blocks = append(blocks, out)
		}
	}
	return strings.Join(blocks, "\n")
}
