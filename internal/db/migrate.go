package db

import (
	"fmt"
	"time"

	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations and seeds required reference rows.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Customer{},
		&models.Site{},
		&models.WorkOrder{},
		&models.PaymentMethod{},
		&models.Subscription{},
		&models.Payment{},
		&models.AuditLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultPaymentMethods(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// ensureDefaultPaymentMethods seeds the built-in settlement channels.
func ensureDefaultPaymentMethods(conn *gorm.DB) error {
	defaults := []models.PaymentMethod{
		{Label: "Cash", Kind: models.MethodCash},
		{Label: "Credit Card", Kind: models.MethodCard},
		{Label: "Bank Transfer", Kind: models.MethodBankTransfer},
	}

	now := time.Now().UTC()
	for _, method := range defaults {
		var count int64
		if errCount := conn.Model(&models.PaymentMethod{}).
			Where("kind = ?", method.Kind).Count(&count).Error; errCount != nil {
			return fmt.Errorf("db: count payment methods: %w", errCount)
		}
		if count > 0 {
			continue
		}
		method.IsEnabled = true
		method.CreatedAt = now
		method.UpdatedAt = now
		if errCreate := conn.Create(&method).Error; errCreate != nil {
			return fmt.Errorf("db: seed payment method %s: %w", method.Kind, errCreate)
		}
	}
	return nil
}
