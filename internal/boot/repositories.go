package boot

import (
	"elapor/internal/repository"
	"elapor/pkg/database"

	"gorm.io/gorm"
)

// Repositories all repositories
type Repositories struct {
	AdminRepo    repository.AdminRepository
	IdentityRepo repository.IdentityRepository
	ObjectRepo   repository.ObjectRepository
}

// InitRepositories creates the repositories
func InitRepositories(db *gorm.DB, mongodb *database.MongoClient) *Repositories {
	return &Repositories{
		AdminRepo:    repository.NewAdminRepository(db),
		IdentityRepo: repository.NewIdentityRepository(db),
		ObjectRepo:   repository.NewObjectRepository(mongodb),
	}
}
