package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Profile{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Regulation{}, &RegulationPosition{}, &RegulationVersion{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&ExpenseApplication{}, &BusinessTripApplication{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Notification{}); err != nil {
		return err
	}

	return nil
}
