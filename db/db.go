package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"zapcrm/config"
	"zapcrm/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// AllModels lists every table owned by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Organization{},
		&models.User{},
		&models.GatewayConfig{},
		&models.Instance{},
		&models.Contact{},
		&models.Conversation{},
		&models.Message{},
	}
}

// DSN builds the dialect name and connection string for the configured database.
func DSN(conf config.Configuration) (string, string) {
	switch strings.ToLower(strings.TrimSpace(conf.Database)) {
	case "postgres", "postgresql":
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		if conf.DbSSLMode != "" {
			path += " sslmode=" + conf.DbSSLMode
		}
		return "postgres", path
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			conf.DbUser, conf.DbPass, conf.DbHost, conf.DbPort, conf.DbName)
	default:
		path := conf.DbPath
		if path == "" {
			path = "db/database.db"
		}
		return "sqlite3", path
	}
}

// Connect abre conexão com o DB configurado (sqlite3 por padrão).
// Para habilitar automigrate em ambientes de dev, exporte AUTOMIGRATE=1.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	dialect, dsn := DSN(conf)
	log.Printf("db: utilizando conexão com o %s...", dialect)

	if dialect == "sqlite3" && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("db: create sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		log.Println("db: got error when connect database, the error is: " + err.Error())
		return nil, fmt.Errorf("db: connect %s: %w", dialect, err)
	}
	if dialect == "sqlite3" {
		// sqlite só aceita um writer; evita "database is locked" e mantém :memory: numa única conexão
		db.DB().SetMaxOpenConns(1)
	}

	db.LogMode(conf.DebugSQL)

	if getenv("AUTOMIGRATE", "0") == "1" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate creates/updates every table and index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...).Error; err != nil {
		return fmt.Errorf("db: automigrate: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
