// Package server exposes the search engine as an HTTP and websocket analysis
// service with an optional SQLite history.
package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type Config struct {
	ListenAddr        string `json:"listen_addr"`
	DatabasePath      string `json:"database_path"`
	CacheSnapshotPath string `json:"cache_snapshot_path"`

	DefaultDepth        int  `json:"default_depth"`
	DefaultTimeBudgetMs int  `json:"default_time_budget_ms"`
	DefaultTopMoves     int  `json:"default_top_moves"`
	CandidateBreadth    int  `json:"candidate_breadth"`
	UseQuiescence       bool `json:"use_quiescence"`
	UseOpeningBook      bool `json:"use_opening_book"`
	CacheCeiling        int  `json:"cache_ceiling"`

	GomokuBoardSize int `json:"gomoku_board_size"`
	HistoryLimit    int `json:"history_limit"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		DatabasePath:      "analysis.db",
		CacheSnapshotPath: "cache.snapshot",

		DefaultDepth:        4,
		DefaultTimeBudgetMs: 2500,
		DefaultTopMoves:     3,
		CandidateBreadth:    0,
		UseQuiescence:       true,
		UseOpeningBook:      true,
		CacheCeiling:        1 << 20,

		GomokuBoardSize: 15,
		HistoryLimit:    50,
	}
}

// LoadConfig reads a JSON config file layered over the defaults. A missing
// file is not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func NewConfigStore(config Config) *ConfigStore {
	return &ConfigStore{config: config}
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}
