package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Clearing configures the per-epoch commit-reveal-clear cycle.
type Clearing struct {
	CollectDuration time.Duration // how long an epoch stays in Collecting
	RevealDuration  time.Duration // how long an epoch stays in Revealing
	MaxIterations   int           // SCP outer-loop iteration cap
	ToleranceY      float64       // SCP convergence tolerance on prices
	ToleranceAlpha  float64       // SCP convergence tolerance on fill fractions
	RiskPreset      string        // "ultra-low-slippage", "low-slippage", "fill-friendly", "demo"
}

// Node configures the local process: where it listens and where it
// persists state.
type Node struct {
	SingleNode bool
	DataDir    string
	ApiAddr    string
}

// Gossip configures the libp2p pubsub fabric used to broadcast commits,
// reveals, and published solutions between nodes.
type Gossip struct {
	ListenAddr string
	Bootstrap  []string
}

type Config struct {
	Clearing Clearing
	Node     Node
	Gossip   Gossip
}

func Default() Config {
	return Config{
		Clearing: Clearing{
			CollectDuration: 2 * time.Second,
			RevealDuration:  2 * time.Second,
			MaxIterations:   5,
			ToleranceY:      1e-5,
			ToleranceAlpha:  1e-6,
			RiskPreset:      "demo",
		},
		Node: Node{
			SingleNode: true,
			DataDir:    "data",
			ApiAddr:    ":8080",
		},
		Gossip: Gossip{
			ListenAddr: "/ip4/0.0.0.0/tcp/0",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("CLEARING_COLLECT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Clearing.CollectDuration = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("CLEARING_REVEAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Clearing.RevealDuration = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("CLEARING_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Clearing.MaxIterations = n
		}
	}
	if v := os.Getenv("CLEARING_TOLERANCE_Y"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Clearing.ToleranceY = f
		}
	}
	if v := os.Getenv("CLEARING_TOLERANCE_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Clearing.ToleranceAlpha = f
		}
	}
	if v := os.Getenv("CLEARING_RISK_PRESET"); v != "" {
		cfg.Clearing.RiskPreset = v
	}

	if v := os.Getenv("NODE_SINGLE"); v != "" {
		cfg.Node.SingleNode = v == "true"
	}
	if v := os.Getenv("NODE_DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}
	if v := os.Getenv("NODE_API_ADDR"); v != "" {
		cfg.Node.ApiAddr = v
	}

	if v := os.Getenv("GOSSIP_LISTEN_ADDR"); v != "" {
		cfg.Gossip.ListenAddr = v
	}
	if v := os.Getenv("GOSSIP_BOOTSTRAP"); v != "" {
		cfg.Gossip.Bootstrap = strings.Split(v, ",")
	}

	return cfg
}

// getEnv returns an environment variable's value, or a default if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
