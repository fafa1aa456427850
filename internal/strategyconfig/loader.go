package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy YAML file and returns the Config with raw bytes.
// KnownFields(true) rejects typos and unrecognized options immediately.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, data, err
	}

	return cfg, data, nil
}

// defaults returns a Config pre-filled with the documented defaults; the YAML
// file only needs to state what it changes.
func defaults() *Config {
	return &Config{
		Valuation: Valuation{
			BuyThreshold:  0.70,
			SellThreshold: 0.80,
		},
		Indicator: Indicator{
			EMAPeriod:          20,
			RSIPeriod:          14,
			MACDFast:           12,
			MACDSlow:           26,
			MACDSignal:         9,
			BollPeriod:         20,
			BollMult:           2.0,
			VolumeMAPeriod:     4,
			DivergenceLookback: 10,
		},
		Signal: Signal{
			VolumeSurgeSell: 1.3,
			VolumeFloorBuy:  0.8,
		},
		Portfolio: Portfolio{
			RotationFraction: 0.10,
			LotSize:          100,
			MaxWeight:        0.25,
			MaxPositions:     8,
			CashReserve:      0.05,
			SellFraction:     0.50,
		},
	}
}

// Hash generates a SHA256 hash from Config via canonical JSON. Struct field
// order keeps the hash reproducible across runs.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewDecisionSnapshot creates an audit snapshot for a run.
func NewDecisionSnapshot(cfg *Config, yamlData []byte) (*DecisionSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &DecisionSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		StrategyID: cfg.Meta.StrategyID,
		CreatedAt:  time.Now(),
	}, nil
}
