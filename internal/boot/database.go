package boot

import (
	"elapor/internal/model"
	"elapor/pkg/config"
	"elapor/pkg/database"
	"elapor/pkg/redis"

	"gorm.io/gorm"
)

// InitDB connects to PostgreSQL and migrates the identity and admin tables
func InitDB(cfg *database.Config) (*gorm.DB, error) {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.Identity{},
		&model.AdminRecord{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// InitMongo connects to MongoDB and prepares the avatar bucket
func InitMongo(cfg *config.MongoDBConfig, storage *config.StorageConfig) (*database.MongoClient, error) {
	return database.NewMongoClient(&database.MongoDBConfig{
		URI:         cfg.URI,
		Database:    cfg.Database,
		MaxPoolSize: cfg.MaxPoolSize,
		MinPoolSize: cfg.MinPoolSize,
		Buckets:     []string{storage.AvatarBucket},
	})
}

// InitRedis connects to Redis (sessions, one-time codes, cooldowns)
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	return redis.NewClient(&redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
