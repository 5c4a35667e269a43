package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosimplify/internal/cache"
)

// Cached serves repeated requests from a SummaryCache. Cache errors are
// logged and never fail the request.
type Cached struct {
	Inner Gateway
	Cache *cache.SummaryCache
}

func (c *Cached) Backend() string { return c.Inner.Backend() }
func (c *Cached) Model() string   { return c.Inner.Model() }

func (c *Cached) Summarize(ctx context.Context, req Request) (Summary, error) {
	if c.Cache == nil {
		return c.Inner.Summarize(ctx, req)
	}
	key := cache.KeyFrom(c.Inner.Backend(), c.Inner.Model(), req.Lang, req.Text)
	if e, ok, err := c.Cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("summary cache read failed")
	} else if ok {
		return Summary{Text: e.Summary, Backend: e.Backend, Model: e.Model, Cached: true}, nil
	}
	s, err := c.Inner.Summarize(ctx, req)
	if err != nil {
		return Summary{}, err
	}
	if err := c.Cache.Save(ctx, key, cache.Entry{Summary: s.Text, Backend: s.Backend, Model: s.Model}); err != nil {
		log.Warn().Err(err).Msg("summary cache write failed")
	}
	return s, nil
}
