//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/papervault/pkg/configs"
)

func init() {
	RegisterDialectorFactory(func(dsn string) gorm.Dialector {
		return postgres.Open(dsn)
	}, configs.PostgreSQL, configs.Postgres, configs.Pg)
}
