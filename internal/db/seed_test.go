package db

import (
	"fmt"
	"testing"

	"github.com/diewo77/agro-gestion/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupSeedDB(t)

	Seed(db)
	Seed(db)

	var roles, users, suppliers, products int64
	db.Model(&models.Role{}).Count(&roles)
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Supplier{}).Count(&suppliers)
	db.Model(&models.Product{}).Count(&products)
	if roles != 2 || users != 2 || suppliers != 2 || products != 3 {
		t.Fatalf("double seed must not duplicate: roles=%d users=%d suppliers=%d products=%d", roles, users, suppliers, products)
	}
}

func TestSeedAdminCredentials(t *testing.T) {
	db := setupSeedDB(t)
	Seed(db)

	var admin models.User
	if err := db.Preload("Role").Where("email = ?", "admin@agro.com").First(&admin).Error; err != nil {
		t.Fatalf("admin user: %v", err)
	}
	if admin.Role.Name != "admin" {
		t.Fatalf("expected admin role got %s", admin.Role.Name)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")) != nil {
		t.Fatal("admin password hash does not match the seed password")
	}

	var soja models.Product
	if err := db.Where("sku = ?", "GR-SOJA").First(&soja).Error; err != nil {
		t.Fatalf("seeded product: %v", err)
	}
	if !soja.Active || soja.Stock != 5000 {
		t.Fatalf("unexpected seeded product: active=%v stock=%g", soja.Active, soja.Stock)
	}
}
