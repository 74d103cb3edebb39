package boot

import (
	"elapor/pkg/config"
	"elapor/pkg/logger"
)

// InitConfig loads the config file and applies the log level
func InitConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))
	return cfg, nil
}
