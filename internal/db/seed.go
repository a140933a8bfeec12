package db

import (
	"time"

	"github.com/diewo77/agro-gestion/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed inserts the baseline roles, users and a couple of sample suppliers and
// products for development environments. Safe to run more than once.
func Seed(db *gorm.DB) {
	roles := map[string]*models.Role{}
	for _, name := range []string{"admin", "user"} {
		var existing models.Role
		if err := db.Where("name = ?", name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			existing = models.Role{Name: name}
			db.Create(&existing)
		}
		roles[name] = &existing
	}

	admin := seedUser(db, "admin@agro.com", "admin123", "Administrador", roles["admin"].ID)
	seedUser(db, "usuario@agro.com", "usuario123", "Usuario de Prueba", roles["user"].ID)
	if admin == nil {
		return
	}

	suppliers := []models.Supplier{
		{Name: "AgroSupply S.A.", Email: "ventas@agrosupply.com", Phone: "+54 11 1234-5678", Street: "Av. Corrientes 1234", City: "Buenos Aires", Province: "CABA", ZipCode: "1043", BusinessName: "AgroSupply S.A.", TaxCategory: "Responsable Inscripto", CUIT: "30-12345678-9", CreatedByID: admin.ID},
		{Name: "Semillas del Sur", Email: "info@semillasdelsur.com", Phone: "+54 341 987-6543", Street: "Ruta 9 Km 123", City: "Rosario", Province: "Santa Fe", ZipCode: "2000", BusinessName: "Semillas del Sur SRL", TaxCategory: "Responsable Inscripto", CUIT: "30-98765432-1", CreatedByID: admin.ID},
	}
	for _, s := range suppliers {
		var existing models.Supplier
		if err := db.Where("name = ?", s.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&s)
		}
	}

	products := []models.Product{
		{Name: "Soja", Category: "granos", SKU: "GR-SOJA", Stock: 5000, Unit: "kg", Price: 350, Currency: "USD", MinStock: 500, CreatedByID: admin.ID},
		{Name: "Maíz", Category: "granos", SKU: "GR-MAIZ", Stock: 8000, Unit: "kg", Price: 180, Currency: "USD", MinStock: 800, CreatedByID: admin.ID},
		{Name: "Glifosato 48%", Category: "agroquímicos", SKU: "AQ-GLIF48", Stock: 200, Unit: "litro", Price: 5200, Currency: "ARS", MinStock: 20, CreatedByID: admin.ID},
	}
	for _, p := range products {
		var existing models.Product
		if err := db.Where("sku = ?", p.SKU).First(&existing).Error; err == gorm.ErrRecordNotFound {
			p.Active = true
			p.PriceUpdatedAt = time.Now()
			db.Create(&p)
		}
	}
}

func seedUser(db *gorm.DB, email, password, name string, roleID uint) *models.User {
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return &existing
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil
	}
	u := models.User{Email: email, Password: string(hash), Name: name, RoleID: roleID}
	if err := db.Create(&u).Error; err != nil {
		return nil
	}
	return &u
}
