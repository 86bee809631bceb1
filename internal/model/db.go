package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&WorkItemLink{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&WorkItem{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&WorkspaceMember{}); err != nil {
		return err
	}

	return nil
}
