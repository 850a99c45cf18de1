package service

import (
	"canchas/internal/events"
	"canchas/pkg/cache"
	"context"
	"time"
)

const invalidateTimeout = 2 * time.Second

type invalidatingPublisher struct {
	next  events.Publisher
	cache *cache.SearchCache
}

// InvalidatingPublisher drops cached search results on every published
// event before forwarding it. Every booking and catalog write publishes
// after commit, so a search that follows the write sees it.
func InvalidatingPublisher(next events.Publisher, searchCache *cache.SearchCache) events.Publisher {
	if searchCache == nil {
		return next
	}
	return &invalidatingPublisher{next: next, cache: searchCache}
}

func (p *invalidatingPublisher) Publish(ctx context.Context, event events.Event) {
	invalidateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	p.cache.Invalidate(invalidateCtx)
	cancel()

	p.next.Publish(ctx, event)
}
