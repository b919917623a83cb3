package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	approvalRuleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	settingDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/setting"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB bundles the ORM used by repositories and the sqlx handle used by
// read-side queries. Both share one connection pool.
type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Open(cfg internal.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(cfg)
	case DriverSQLite:
		return openSQLite(cfg.Source, logger.Warn, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg internal.DatabaseConfig) (*DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	applyPool(dbConn, cfg)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), gormConfig(logger.Warn))
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DB{Gorm: gormDB, SQLX: dbConn}, nil
}

func openSQLite(source string, level logger.LogLevel, cfg internal.DatabaseConfig) (*DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(source), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}

	dbConn := sqlx.NewDb(sqlDB, "sqlite3")
	if strings.Contains(source, ":memory:") {
		// every connection to :memory: opens a distinct database
		dbConn.SetMaxOpenConns(1)
	} else {
		applyPool(dbConn, cfg)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Gorm: gormDB, SQLX: dbConn}, nil
}

func applyPool(db *sqlx.DB, cfg internal.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// OpenInMemory returns a migrated, private sqlite database.
func OpenInMemory() (*DB, error) {
	db, err := openSQLite(":memory:", logger.Silent, internal.DatabaseConfig{})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db.Gorm); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates the schema for the sqlite driver. Postgres deployments
// use the goose migrations under db/migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userDatamodel.User{},
		&expenseDatamodel.Expense{},
		&approvalDatamodel.Approval{},
		&approvalRuleDatamodel.ApprovalRule{},
		&settingDatamodel.CompanySetting{},
	)
}
