package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/netbillhq/netbill/internal/config"
	"github.com/netbillhq/netbill/internal/db"
	"github.com/netbillhq/netbill/internal/models"
	"github.com/netbillhq/netbill/internal/security"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HasAdminInitialized reports whether at least one admin account exists.
func HasAdminInitialized(conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.Admin{}) {
		return false, nil
	}
	var count int64
	if errCount := conn.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// EnsureAdminUser seeds the first admin account on an empty database using
// the bootstrap settings. An already-initialized database is left alone.
func EnsureAdminUser(conn *gorm.DB, bootstrap config.BootstrapConfig) error {
	initialized, errInit := HasAdminInitialized(conn)
	if errInit != nil {
		return errInit
	}
	if initialized {
		return nil
	}

	username := strings.TrimSpace(bootstrap.AdminUsername)
	password := strings.TrimSpace(bootstrap.AdminPassword)
	if username == "" || password == "" {
		log.Warn("no admin account exists and no bootstrap credentials configured; logins will fail")
		return nil
	}
	if len(password) < 6 {
		return fmt.Errorf("bootstrap admin password must be at least 6 characters")
	}
	return CreateAdminUserWithConn(conn, username, password)
}

// CreateAdminUserWithConn creates the first admin user as super admin.
func CreateAdminUserWithConn(conn *gorm.DB, username, password string) error {
	if conn == nil {
		return fmt.Errorf("open database: nil connection")
	}

	hashedPassword, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash password: %w", errHash)
	}

	now := time.Now().UTC()
	admin := models.Admin{
		Username:     username,
		Password:     hashedPassword,
		Active:       true,
		IsSuperAdmin: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return fmt.Errorf("create admin: username %q already exists", username)
		}
		return fmt.Errorf("create admin: %w", errCreate)
	}
	return nil
}
