package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/models"
)

// Connect opens the MySQL database and migrates the schema. TranslateError is
// on so unique-index violations surface as gorm.ErrDuplicatedKey.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.ChatSession{}); err != nil {
		return nil, err
	}
	return gdb, nil
}
