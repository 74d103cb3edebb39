package cli

import (
	"context"
	"fmt"

	"elapor/internal/boot"
	"elapor/pkg/config"
	"elapor/pkg/redis"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var cfgFile string

// Execute builds the command tree and runs it
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elaporctl",
		Short: "Operate the e-lapor admin backend",
		Long: `elaporctl manages e-lapor administrators from the command line.

It talks to the same PostgreSQL and Redis as the server, so invitations sent
here share the resend cooldown with the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newAdminsCmd())
	cmd.AddCommand(newInviteCmd())
	cmd.AddCommand(newResendCmd())
	cmd.AddCommand(newCooldownCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// initConfig lets ELAPOR_CONFIG stand in for --config
func initConfig() {
	viper.SetEnvPrefix("ELAPOR")
	_ = viper.BindEnv("config")
	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}
}

// stack the backends a command needs; object storage is not opened
type stack struct {
	cfg      *config.Config
	db       *gorm.DB
	redis    *redis.Client
	repos    *boot.Repositories
	services *boot.Services
}

func openStack() (*stack, error) {
	cfg, err := boot.InitConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	db, err := boot.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	redisClient, err := boot.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	repos := boot.InitRepositories(db, nil)
	services, err := boot.InitServices(cfg, repos, redisClient)
	if err != nil {
		return nil, err
	}
	return &stack{cfg: cfg, db: db, redis: redisClient, repos: repos, services: services}, nil
}

func (s *stack) Close() {
	s.services.Cooldowns.Close()
	_ = s.redis.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withStack opens the stack for the duration of fn
func withStack(cmd *cobra.Command, fn func(ctx context.Context, s *stack) error) error {
	s, err := openStack()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}
