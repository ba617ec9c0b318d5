package database

import "gorm.io/gorm"

func InitCRMDatabase(cfg *DatabaseConfig) (*gorm.DB, error) {
	return NewConnection(cfg)
}
