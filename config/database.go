package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record-not-found is a normal lookup result and is not logged.
var gormLogger = logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
	SlowThreshold:             200 * time.Millisecond,
	LogLevel:                  logger.Warn,
	IgnoreRecordNotFoundError: true,
	Colorful:                  false,
})

// OpenGorm connects to the SQL database named by db. Mongo is opened by the
// mongostore package instead.
func OpenGorm(db Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch db.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(db.URL)
	case DriverPostgres:
		dialector = postgres.Open(db.URL)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", db.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if db.Driver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}
