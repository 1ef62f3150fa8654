package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const productsGenKey = "products:gen"

// ProductCache holds rendered product listings. Misses and cache errors are
// indistinguishable to callers; the store is always the source of truth.
//
// Entries are keyed by a generation that Invalidate bumps. Get reports the
// generation it looked at, and Set stores under that generation, so a listing
// read from the store before an invalidation lands under a key nobody reads.
type ProductCache interface {
	Get(ctx context.Context, bestsellerOnly bool) (products []Product, gen int64, hit bool)
	Set(ctx context.Context, gen int64, bestsellerOnly bool, products []Product)
	Invalidate(ctx context.Context)
}

// noGeneration tells Set to skip writing.
const noGeneration int64 = -1

func productListKey(gen int64, bestsellerOnly bool) string {
	kind := "all"
	if bestsellerOnly {
		kind = "bestseller"
	}
	return fmt.Sprintf("products:%d:%s", gen, kind)
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisProductCache(redisURL string, ttl time.Duration) (*redisProductCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Printf("[redis] Connected to %s", opts.Addr)
	return &redisProductCache{client: client, ttl: ttl}, nil
}

func (r *redisProductCache) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, productsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *redisProductCache) Get(ctx context.Context, bestsellerOnly bool) ([]Product, int64, bool) {
	gen, err := r.generation(ctx)
	if err != nil {
		log.Printf("[redis] get product generation: %v", err)
		return nil, noGeneration, false
	}
	data, err := r.client.Get(ctx, productListKey(gen, bestsellerOnly)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[redis] get products: %v", err)
		}
		return nil, gen, false
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Printf("[redis] decode products: %v", err)
		return nil, gen, false
	}
	return products, gen, true
}

func (r *redisProductCache) Set(ctx context.Context, gen int64, bestsellerOnly bool, products []Product) {
	if gen == noGeneration {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, productListKey(gen, bestsellerOnly), data, r.ttl).Err(); err != nil {
		log.Printf("[redis] set products: %v", err)
	}
}

func (r *redisProductCache) Invalidate(ctx context.Context) {
	if err := r.client.Incr(ctx, productsGenKey).Err(); err != nil {
		log.Printf("[redis] invalidate products: %v", err)
	}
}

func (r *redisProductCache) Close() error {
	return r.client.Close()
}

type noopProductCache struct{}

func (noopProductCache) Get(context.Context, bool) ([]Product, int64, bool) {
	return nil, noGeneration, false
}
func (noopProductCache) Set(context.Context, int64, bool, []Product) {}
func (noopProductCache) Invalidate(context.Context)                 {}
