package billing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/db"
	"github.com/netbillhq/netbill/internal/models"

	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "netbill-test.db"))
	if errOpen != nil {
		t.Fatalf("open test database: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate test database: %v", errMigrate)
	}
	return NewEngine(conn, audit.NewRecorder(conn)), conn
}

func seedSite(t *testing.T, conn *gorm.DB) uint64 {
	t.Helper()
	customer := models.Customer{Name: "Acme Markets"}
	if errCreate := conn.Create(&customer).Error; errCreate != nil {
		t.Fatalf("seed customer: %v", errCreate)
	}
	site := models.Site{CustomerID: customer.ID, Label: "Acme HQ", City: "Istanbul"}
	if errCreate := conn.Create(&site).Error; errCreate != nil {
		t.Fatalf("seed site: %v", errCreate)
	}
	return site.ID
}

func loadPayments(t *testing.T, conn *gorm.DB, subscriptionID uint64) []models.Payment {
	t.Helper()
	var rows []models.Payment
	if errFind := conn.Where("subscription_id = ?", subscriptionID).
		Order("payment_month").Find(&rows).Error; errFind != nil {
		t.Fatalf("load payments: %v", errFind)
	}
	return rows
}

func countByStatus(rows []models.Payment, status models.PaymentStatus) int {
	n := 0
	for _, row := range rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

func countAuditEntries(t *testing.T, conn *gorm.DB, table string, recordID uint64, action models.AuditAction) int64 {
	t.Helper()
	var n int64
	if errCount := conn.Model(&models.AuditLog{}).
		Where("table_name = ? AND record_id = ? AND action = ?", table, recordID, action).
		Count(&n).Error; errCount != nil {
		t.Fatalf("count audit entries: %v", errCount)
	}
	return n
}

func monthUTC(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
