package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	NewDB(gormDB)
	return gormDB, mock
}

func GetMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	gormDB, mock := NewMockDB()
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB, mock
}

func TestDB(t *testing.T) {
	gormDB, _ := GetMockDB(t)
	assert.NotNil(t, gormDB)
	assert.Equal(t, "postgres", gormDB.Name())
}
