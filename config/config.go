// Package config loads kvsctl's on-disk YAML configuration.
package config

// Config holds the settings needed to open a two-bank store.
type Config struct {
	Banks  BanksConfig
	Logger LoggerConfig
}

// BanksConfig describes the two backing files that make up a store.
type BanksConfig struct {
	LeftPath  string
	RightPath string
	BankSize  uint32
	LogSize   uint32
}

// LoggerConfig controls the slog handler kvsctl installs as default.
type LoggerConfig struct {
	JSON  bool
	Level string
}

// Default returns the configuration used when no config file is found.
func Default() Config {
	return Config{
		Banks: BanksConfig{
			LeftPath:  "./data/left.bin",
			RightPath: "./data/right.bin",
			BankSize:  1 << 20,
			LogSize:   128,
		},
		Logger: LoggerConfig{JSON: false, Level: "info"},
	}
}
