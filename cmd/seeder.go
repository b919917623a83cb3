package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	approvalRulePostgres "github.com/frahmantamala/expense-approval/internal/approvalrule/postgres"
	"github.com/frahmantamala/expense-approval/internal/database"
	"github.com/frahmantamala/expense-approval/internal/setting"
	settingPostgres "github.com/frahmantamala/expense-approval/internal/setting/postgres"
	"github.com/frahmantamala/expense-approval/internal/user"
	userPostgres "github.com/frahmantamala/expense-approval/internal/user/postgres"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed demo users, the default approval rules and company settings for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if cfg.Database.Driver == database.DriverSQLite {
			if err := database.AutoMigrate(db.Gorm); err != nil {
				log.Fatalf("failed to migrate sqlite schema: %v", err)
			}
		}

		if err := seed(context.Background(), db.Gorm, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

// clearTables lists tables in foreign-key order.
var clearTables = []string{"approvals", "expenses", "approval_rules", "company_settings", "users"}

func seed(ctx context.Context, db *gorm.DB, clear bool) error {
	lg := logger.LoggerWrapper()

	if clear {
		for _, table := range clearTables {
			if err := db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		lg.Info("cleared existing data", "tables", clearTables)
	}

	userService := user.NewService(userPostgres.NewUserRepository(db), lg)
	for _, u := range user.SeedUsers() {
		stored, created, err := userService.EnsureUser(ctx, u)
		if err != nil {
			return err
		}
		lg.Info("seeded user", "id", stored.ID, "email", stored.Email, "role", stored.Role, "created", created)
	}

	ruleService := approvalrule.NewService(approvalRulePostgres.NewApprovalRuleRepository(db), lg)
	seeded, err := ruleService.SeedDefaults(ctx)
	if err != nil {
		return err
	}
	lg.Info("seeded approval rules", "count", seeded)

	settingService := setting.NewService(settingPostgres.NewSettingRepository(db), lg)
	if err := settingService.SeedDefaults(ctx); err != nil {
		return err
	}
	lg.Info("seeded company settings", "count", len(setting.DefaultRows()))

	return nil
}
