package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// NewGorm builds every repository on top of one gorm connection.
func NewGorm(db *gorm.DB) Repositories {
	return Repositories{
		GatewayConfigs: &gormGatewayConfigs{db: db},
		Instances:      &gormInstances{db: db},
		Users:          &gormUsers{db: db},
		Contacts:       &gormContacts{db: db},
		Conversations:  &gormConversations{db: db},
		Messages:       &gormMessages{db: db},
	}
}

// first runs a First() query translating "record not found" to ErrNotFound.
// jinzhu/gorm has no context support, so a cancelled ctx only short-circuits before the query.
func first(ctx context.Context, q *gorm.DB, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.First(out).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// create inserts value, reporting a unique key violation as ErrConflict.
func create(ctx context.Context, db *gorm.DB, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.Create(value).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
