package migration

import (
	"fmt"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/bflows/riskproxy/internal/config"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run builds the schema for the configured dialect. Postgres applies the
// embedded versioned migrations; sqlite derives its schema from the models
// because the SQL files use postgres-only features (partial unique indexes,
// jsonb). Any other dialect is refused at startup so a deployment never
// comes up without a schema.
func Run(conn *gorm.DB, cfg config.Config) error {
	switch cfg.DBType {
	case "postgres":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	case "sqlite":
		return conn.AutoMigrate(
			&creditdomain.Record{},
			&companydomain.Record{},
			&negativedomain.Record{},
			&negativedomain.Detail{},
		)
	default:
		return fmt.Errorf("no schema migrations for db type %q", cfg.DBType)
	}
}
