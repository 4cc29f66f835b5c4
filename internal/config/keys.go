package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "ATTIRE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "ATTIRE_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ATTIRE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "catalog.embedding_dim", typ: kInt, env: "ATTIRE_CATALOG_EMBEDDING_DIM",
		apply:   func(cfg *Config, v any) { cfg.Catalog.EmbeddingDim = v.(int) },
		extract: func(cfg Config) any { return cfg.Catalog.EmbeddingDim },
	},
	{
		key: "weather.api_key", typ: kString, env: "ATTIRE_WEATHER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Weather.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Weather.APIKey },
	},
	{
		key: "weather.city", typ: kString, env: "ATTIRE_WEATHER_CITY",
		apply:   func(cfg *Config, v any) { cfg.Weather.City = v.(string) },
		extract: func(cfg Config) any { return cfg.Weather.City },
	},
	{
		key: "planner.top_k", typ: kInt, env: "ATTIRE_PLANNER_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Planner.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Planner.TopK },
	},
	{
		key: "planner.search_budget", typ: kInt, env: "ATTIRE_PLANNER_SEARCH_BUDGET",
		apply:   func(cfg *Config, v any) { cfg.Planner.SearchBudget = v.(int) },
		extract: func(cfg Config) any { return cfg.Planner.SearchBudget },
	},
	{
		key: "planner.parallelism", typ: kInt, env: "ATTIRE_PLANNER_PARALLELISM",
		apply:   func(cfg *Config, v any) { cfg.Planner.Parallelism = v.(int) },
		extract: func(cfg Config) any { return cfg.Planner.Parallelism },
	},
	{
		key: "planner.relaxation_penalty", typ: kFloat, env: "ATTIRE_PLANNER_RELAXATION_PENALTY",
		apply:   func(cfg *Config, v any) { cfg.Planner.RelaxationPenalty = v.(float64) },
		extract: func(cfg Config) any { return cfg.Planner.RelaxationPenalty },
	},
	{
		key: "log.level", typ: kString, env: "ATTIRE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
