package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LogZapMode               string `mapstructure:"LOG_ZAP_MODE"`
	PrintConfigurationToLogs string `mapstructure:"PRINT_CONFIGURATION_TO_LOGS"`
	SentryDSN                string `mapstructure:"SENTRY_DSN"`

	IndexerID            string `mapstructure:"INDEXER_ID"`
	StreamURL            string `mapstructure:"STREAM_URL"`
	StreamName           string `mapstructure:"STREAM_NAME"`
	StreamSubject        string `mapstructure:"STREAM_SUBJECT"`
	StreamSequenceOffset uint64 `mapstructure:"STREAM_SEQUENCE_OFFSET"`
	GenesisSequence      uint64 `mapstructure:"GENESIS_SEQUENCE"`
	ContractAddresses    string `mapstructure:"CONTRACT_ADDRESSES"`
	TransferEventName    string `mapstructure:"TRANSFER_EVENT_NAME"`
	TransferSelector     string `mapstructure:"TRANSFER_SELECTOR"`
	ProgressLogEvery     uint64 `mapstructure:"PROGRESS_LOG_EVERY"`

	RestartInitialBackoff time.Duration `mapstructure:"RESTART_INITIAL_BACKOFF"`
	RestartMaxBackoff     time.Duration `mapstructure:"RESTART_MAX_BACKOFF"`

	RPCPort    int    `mapstructure:"RPC_PORT"`
	SqlitePath string `mapstructure:"SQLITE_PATH"`
	BadgerPath string `mapstructure:"BADGER_PATH"`
}

var lock = &sync.Mutex{}
var config *Config

var Get = get

func get() Config {
	if config == nil {
		lock.Lock()
		defer lock.Unlock()
		if config == nil {
			c := loadConfig()
			config = &c
		}
	}
	return *config
}

func loadConfig() Config {
	viperAddConfigFile()
	viperAddEnv()
	viperSetDefaults()
	cfg := initializeCfg()
	debugConfig(cfg)
	return cfg
}

func viperAddConfigFile() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
}

func viperAddEnv() {
	viper.AutomaticEnv()
	// This makes sure that all envs are binded even if they are not represented in config file (https://github.com/spf13/viper/issues/584)
	valueOfConfig := reflect.ValueOf(&Config{}).Elem()
	fieldsOfConfig := reflect.TypeOf(&Config{}).Elem()
	for i := 0; i < valueOfConfig.NumField(); i++ {
		field, _ := fieldsOfConfig.FieldByName(valueOfConfig.Type().Field(i).Name)
		mapStructureVal := field.Tag.Get("mapstructure")
		err := viper.BindEnv(mapStructureVal)
		if err != nil {
			panic(fmt.Sprintf("Error binding env val '%v': %v", mapStructureVal, err))
		}
	}
}

func viperSetDefaults() {
	viper.SetDefault("LOG_ZAP_MODE", "production")
	viper.SetDefault("INDEXER_ID", "sea-starktest-indexer")
	viper.SetDefault("STREAM_URL", "nats://127.0.0.1:4222")
	viper.SetDefault("STREAM_NAME", "STARKNET_BLOCKS")
	viper.SetDefault("STREAM_SUBJECT", "starknet.goerli.blocks")
	viper.SetDefault("GENESIS_SEQUENCE", 514130)
	viper.SetDefault("TRANSFER_EVENT_NAME", "Transfer")
	viper.SetDefault("PROGRESS_LOG_EVERY", 1000)
	viper.SetDefault("RESTART_INITIAL_BACKOFF", time.Second)
	viper.SetDefault("RESTART_MAX_BACKOFF", 30*time.Second)
	viper.SetDefault("RPC_PORT", 8080)
	viper.SetDefault("SQLITE_PATH", "./db/sqlite/sqlite")
	viper.SetDefault("BADGER_PATH", "./db/badger")
}

func initializeCfg() Config {
	var cfg Config
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		} else {
			panic(fmt.Sprintf("fatal error reading config file: %v", err))
		}
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(fmt.Sprintf("error unmarshaling config: %v", err))
	}
	return cfg
}

func debugConfig(cfg Config) {
	if cfg.PrintConfigurationToLogs == "true" {
		b, err := json.Marshal(cfg)
		var result string
		if err != nil {
			result = "[FAILED TO CONVERT CONF TO STRING]"
		} else {
			result = string(b)
		}
		log.Printf("[APP CONFIGURATION]: %v\n", result)
	}
}

// ContractAddressList splits CONTRACT_ADDRESSES on commas. Empty entries are dropped.
func (c Config) ContractAddressList() []string {
	var out []string
	for _, addr := range strings.Split(c.ContractAddresses, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Validate checks the settings ingestion cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.IndexerID == "" {
		errs = append(errs, errors.New("INDEXER_ID is not set"))
	}
	if c.StreamURL == "" {
		errs = append(errs, errors.New("STREAM_URL is not set"))
	}
	if c.StreamName == "" {
		errs = append(errs, errors.New("STREAM_NAME is not set"))
	}
	// stream sequences start at 1
	if c.GenesisSequence <= c.StreamSequenceOffset {
		errs = append(errs, fmt.Errorf("GENESIS_SEQUENCE %d must be greater than STREAM_SEQUENCE_OFFSET %d", c.GenesisSequence, c.StreamSequenceOffset))
	}
	if c.RestartMaxBackoff > 0 && c.RestartInitialBackoff > c.RestartMaxBackoff {
		errs = append(errs, errors.New("RESTART_INITIAL_BACKOFF is greater than RESTART_MAX_BACKOFF"))
	}
	return errors.Join(errs...)
}
