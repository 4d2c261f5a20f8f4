package llm

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lamim/tutorialforge/internal/llmcache"
	"github.com/lamim/tutorialforge/internal/metrics"
)

// AuditLog records every call attempt for operator visibility. The records
// are write-only from the gateway's perspective.
type AuditLog interface {
	Prompt(prompt string)
	TokenEstimate(count int)
	Response(response string)
	Error(msg string)
}

// Invoker is the narrow surface stages use to reach the model.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, useCache bool) (string, error)
}

// Gateway is the single chokepoint for model inference. It wraps a backend
// Client with transparent response caching and audit logging; every stage
// talks to the model through it and nothing else does.
type Gateway struct {
	client    Client
	store     llmcache.Store
	audit     AuditLog
	logger    *slog.Logger
	collector *metrics.Collector

	backendCalls atomic.Int64
	cacheHits    atomic.Int64
}

// NewGateway creates a gateway over the given backend client, cache store,
// and audit log. All dependencies are explicit so tests can substitute an
// in-memory store and a fake client.
func NewGateway(client Client, store llmcache.Store, audit AuditLog, collector *metrics.Collector, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:    client,
		store:     store,
		audit:     audit,
		logger:    logger,
		collector: collector,
	}
}

// EstimateTokens approximates the token count of a text using the ~4
// characters per token heuristic. Advisory only; nothing enforces it.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Invoke sends one prompt to the model, consulting the response cache
// first when useCache is true. Cache failures degrade gracefully and are
// logged; backend failures propagate to the caller with no retry.
//
// Two concurrent misses for the same prompt can both reach the backend and
// both write their entry, with the last write winning. That weak
// consistency is accepted: entries are immutable once correct, so a lost
// write never produces a wrong answer.
func (g *Gateway) Invoke(ctx context.Context, prompt string, useCache bool) (string, error) {
	g.audit.Prompt(prompt)
	g.audit.TokenEstimate(EstimateTokens(prompt))

	if useCache {
		entries, err := g.store.Load()
		if err != nil {
			g.logger.Warn("Failed to load response cache, treating as empty", "error", err)
			g.audit.Error("failed to load cache: " + err.Error())
		}
		if response, ok := entries[prompt]; ok {
			g.audit.Response(response)
			g.cacheHits.Add(1)
			g.collector.RecordCacheLookup("hit")
			g.logger.Debug("Response cache hit", "prompt_tokens", EstimateTokens(prompt))
			return response, nil
		}
		g.collector.RecordCacheLookup("miss")
	} else {
		g.collector.RecordCacheLookup("bypass")
	}

	start := time.Now()
	g.backendCalls.Add(1)
	response, err := g.client.Generate(ctx, prompt)
	g.collector.RecordLLMRequest(time.Since(start), err == nil)
	if err != nil {
		g.audit.Error("call failed: " + err.Error())
		return "", err
	}

	g.audit.Response(response)

	if useCache {
		// Reload before inserting to minimize clobbering concurrent
		// writers sharing the same cache file.
		entries, err := g.store.Load()
		if err != nil {
			g.logger.Warn("Failed to reload response cache before save", "error", err)
			g.audit.Error("failed to load cache: " + err.Error())
		}
		if entries == nil {
			entries = make(map[string]string)
		}
		entries[prompt] = response
		if err := g.store.Save(entries); err != nil {
			// The response is still returned; only the cache entry is lost.
			g.logger.Warn("Failed to save response cache", "error", err)
			g.audit.Error("failed to save cache: " + err.Error())
		}
	}

	return response, nil
}

// BackendCalls reports how many requests reached the backend client.
func (g *Gateway) BackendCalls() int {
	return int(g.backendCalls.Load())
}

// CacheHits reports how many invocations were served from the cache.
func (g *Gateway) CacheHits() int {
	return int(g.cacheHits.Load())
}
