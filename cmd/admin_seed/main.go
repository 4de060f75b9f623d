// Command admin_seed creates a pre-verified admin account directly in the
// database. The API bootstraps the first registrant as admin on its own; this
// tool covers deployments that need an admin provisioned out of band.
package main

import (
	"log"
	"os"

	"accord/internal/config"
	"accord/internal/models"
	"accord/internal/repositories"
	"accord/internal/services/password"
	"accord/internal/utils"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminUsername == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL, ADMIN_USERNAME, and ADMIN_PASSWORD must be set in environment")
	}
	if !password.ValidateStrength(adminPassword) {
		log.Fatal("ADMIN_PASSWORD does not meet strength requirements")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("Failed to get SQL DB instance: %v", err)
			} else if err := sqlDB.Close(); err != nil {
				log.Printf("Failed to close PostgreSQL connection: %v", err)
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}()

	var existing models.User
	if err := repositories.DB.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Println("Admin user already exists")
		return
	}

	hashed, err := password.Hash(adminPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := models.User{
		Email:         adminEmail,
		Username:      adminUsername,
		Nickname:      utils.GenerateNickname(),
		Password:      hashed,
		Role:          models.RoleAdmin,
		EmailVerified: true,
	}

	if err := repositories.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	log.Printf("Admin account %s created", admin.Email)
}
