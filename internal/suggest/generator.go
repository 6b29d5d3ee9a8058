// Package suggest produces free-text diagnosis and treatment suggestions from
// a patient chart using an external text-generation service.
package suggest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("suggest: generator unavailable")

// Generator turns a prompt into text. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPGenerator calls a hosted inference endpoint that accepts
// {"inputs": prompt} and answers [{"generated_text": "..."}].
type HTTPGenerator struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHTTPGenerator(url, token string) *HTTPGenerator {
	return &HTTPGenerator{URL: url, Token: token, Client: &http.Client{Timeout: 30 * time.Second}}
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type inferenceResult struct {
	GeneratedText string `json:"generated_text"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs:     prompt,
		Parameters: map[string]any{"max_new_tokens": 200, "return_full_text": false},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out []inferenceResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	// some endpoints echo the prompt regardless of return_full_text
	return strings.TrimSpace(strings.TrimPrefix(out[0].GeneratedText, prompt)), nil
}

// CannedGenerator answers every prompt with fixed text. It stands in when no
// inference endpoint is configured.
type CannedGenerator struct {
	Text string
}

const defaultCanned = "Automated suggestions are not configured. Review the patient's history, " +
	"current medications and latest vital signs, and consult clinical guidelines."

func (g CannedGenerator) Generate(context.Context, string) (string, error) {
	if g.Text == "" {
		return defaultCanned, nil
	}
	return g.Text, nil
}

// Cache is the subset of a key-value store CachedGenerator needs. Get returns
// ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (val string, ok bool, err error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to url (redis://host:port/db) and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisCache{client: client, prefix: "suggest"}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+":"+key, val, ttl).Err()
}

// CachedGenerator memoises another Generator by prompt. Cache errors count
// as misses and never fail a request.
type CachedGenerator struct {
	Next  Generator
	Cache Cache
	TTL   time.Duration
}

func PromptKey(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}

func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := PromptKey(prompt)
	if v, ok, err := g.Cache.Get(ctx, key); err == nil && ok {
		return v, nil
	}
	out, err := g.Next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	_ = g.Cache.Set(ctx, key, out, g.TTL)
	return out, nil
}
