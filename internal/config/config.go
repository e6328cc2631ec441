// Package config loads the driver's YAML configuration tree: the ACS pool
// and per-sketch parameters, the record format/counting method, and the
// ambient API/notify/ClickHouse sections.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SketchDef configures one participating sketch instance. Only the fields
// relevant to Tag are meaningful; the rest are left at their zero value.
type SketchDef struct {
	Tag  string `yaml:"tag"`  // one of "CM", "FR", "HP", "DT"
	Name string `yaml:"name"`

	// Flow key fields this sketch's virtual counters are indexed by,
	// e.g. ["SrcIP"] or ["SrcIP", "DstIP", "SrcPort", "DstPort", "Protocol"].
	FlowFields []string `yaml:"flow_fields"`

	// Count-Min / HashPipe.
	Depth int   `yaml:"depth"`
	Width int64 `yaml:"width"`

	// Deltoid.
	NumHash  int   `yaml:"num_hash"`
	NumGroup int64 `yaml:"num_group"`

	// Flow Radar.
	FlowFilterBit  int64 `yaml:"flow_filter_bit"`
	FlowFilterHash int   `yaml:"flow_filter_hash"`
	CountTableNum  int64 `yaml:"count_table_num"`
	CountTableHash int   `yaml:"count_table_hash"`

	// Heavy-hitter reporting threshold, shared by every sketch kind.
	PreThre float64 `yaml:"pre_thre"`
}

// ACSConfig is the `ACS.config` section: pool sizing, restoration
// hyperparameters, and the list of participating sketches.
type ACSConfig struct {
	K        int     `yaml:"k"`
	Ratio    int64   `yaml:"ratio"`
	ShadowL  uint    `yaml:"shadow_bits"`
	IterNum  int     `yaml:"iternum"`
	Clip     int     `yaml:"clip"`
	InitVal  float64 `yaml:"init_val"`
	StepVal  float64 `yaml:"step_val"`
	GetMethod string `yaml:"get_method"` // "THETA_METHOD" or "RANK_METHOD"

	Data       string      `yaml:"data"`
	Format     string      `yaml:"format"`
	CntMethod  string      `yaml:"cnt_method"` // "InPacket" or "InLength"
	Sketches   []SketchDef `yaml:"sketch"`
}

// APIConfig configures the HTTP query surface.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// NotifyConfig configures the NATS restore-complete publisher.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig configures the heavy-hitter persistence writer.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config is the top-level configuration tree the driver consumes.
type Config struct {
	ACS        ACSConfig        `yaml:"acs"`
	API        APIConfig        `yaml:"api"`
	Notify     NotifyConfig     `yaml:"notify"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
