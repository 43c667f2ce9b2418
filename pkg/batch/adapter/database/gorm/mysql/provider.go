// Package mysql registers the MySQL dialector with the gorm adapter.
package mysql

import (
	"fmt"

	dbconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/gorm"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DBType is the database type this package registers.
const DBType = "mysql"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for MySQL connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
