package dbhelper

import (
	"log"

	"closetapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {

	return func() {

		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.OutfitAnalytics{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.OutfitFeedback{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.UserPreference{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Outfit{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ClothingItem{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.UserAccount{})

	}
}

func Migrate(db *gorm.DB, model interface{}) {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Printf("Error while migrating %s", model)
		log.Fatal(err)
	}
}
