package main

import (
	"testing"

	appconfig "github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/config"
)

func TestRedisOptions(t *testing.T) {
	if opts := redisOptions(&appconfig.Config{}); opts != nil {
		t.Fatalf("expected nil options without an address, got %+v", opts)
	}

	plain := redisOptions(&appconfig.Config{RedisAddr: "localhost:6379", RedisPassword: "pw"})
	if plain == nil || plain.Addr != "localhost:6379" || plain.Password != "pw" {
		t.Fatalf("unexpected options %+v", plain)
	}
	if plain.TLSConfig != nil {
		t.Fatal("TLS must stay off unless configured")
	}

	secured := redisOptions(&appconfig.Config{RedisAddr: "cache.internal:6380", RedisTLS: true})
	if secured.TLSConfig == nil {
		t.Fatal("REDIS_TLS must produce a TLS client config")
	}
}
