package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	bplus "LeafDB/bplustree"
)

type Config struct {
	Index IndexConfig `yaml:"index"`
	Scan  ScanConfig  `yaml:"scan"`
}

type IndexConfig struct {
	Path            string `yaml:"path"`              // index file location (e.g. data/leaf.idx)
	BufferPoolPages int    `yaml:"buffer_pool_pages"` // node cache capacity
}

// ScanConfig holds the process-wide scan tuning knobs. Both features ship
// off; they are pure optimizations and enabling them must not change any
// scan result. LinearScanThreshold is a pointer so an explicit 0 in the
// file can be rejected instead of mistaken for "unset".
type ScanConfig struct {
	LeafPrefetch        bool `yaml:"leaf_prefetch"`
	LinearScanEnabled   bool `yaml:"linear_scan_enabled"`
	LinearScanThreshold *int `yaml:"linear_scan_threshold"`
}

// Threshold returns the configured linear scan threshold, or the default
// when the file left it unset.
func (s ScanConfig) Threshold() int {
	if s.LinearScanThreshold == nil {
		return bplus.DefaultLinearScanThreshold
	}
	return *s.LinearScanThreshold
}

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Index: IndexConfig{
			Path:            "data/leaf.idx",
			BufferPoolPages: 256,
		},
		Scan: ScanConfig{
			LeafPrefetch:      false,
			LinearScanEnabled: false,
		},
	}

	if configPath == "" {
		for _, p := range []string{"configs/leafdb.yaml", "leafdb.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, validate(cfg)
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, validate(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Index.Path == "" {
		cfg.Index.Path = "data/leaf.idx"
	}
	if cfg.Index.BufferPoolPages <= 0 {
		cfg.Index.BufferPoolPages = 256
	}
}

func validate(cfg *Config) error {
	if t := cfg.Scan.Threshold(); t < bplus.MinLinearScanThreshold || t > bplus.MaxLinearScanThreshold {
		return fmt.Errorf("scan.linear_scan_threshold %d: %w", t, bplus.ErrThresholdOutOfRange)
	}
	return nil
}

// ApplyScanDefaults pushes the scan section into a parameter store, usually
// the process-wide one that seeds new scan sessions.
func (c *Config) ApplyScanDefaults(store *bplus.ParamStore) error {
	store.SetPrefetchEnabled(c.Scan.LeafPrefetch)
	store.SetLinearScanEnabled(c.Scan.LinearScanEnabled)
	return store.SetLinearScanThreshold(c.Scan.Threshold())
}
