package db

import (
	"path/filepath"
	"testing"

	"mock_trading/internal/config"
	"mock_trading/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBName: "n"}
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", DSN(cfg))

	cfg.DBDriver = "postgres"
	cfg.DBPort = "6543"
	assert.Equal(t, "host=h user=u password=p dbname=n port=6543 sslmode=disable TimeZone=UTC", DSN(cfg))

	cfg.DBDriver = "sqlite"
	assert.Equal(t, "n", DSN(cfg))

	cfg.DBDSN = "explicit"
	assert.Equal(t, "explicit", DSN(cfg))
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := Dialector("oracle", "x")
	assert.Error(t, err)
}

func TestMigrateCreatesSchema(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "trading.db")}
	gdb, err := Open(cfg, log)
	require.NoError(t, err)

	require.NoError(t, Migrate(gdb))

	for _, m := range Models {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
	assert.True(t, gdb.Migrator().HasIndex(&domain.Holding{}, "idx_holdings_user_symbol"))

	u := domain.User{Username: "ann", Email: "ann@example.com", PasswordHash: "x", Balance: decimal.NewFromInt(10)}
	require.NoError(t, gdb.Create(&u).Error)
	require.NoError(t, gdb.Create(&domain.Holding{UserID: u.ID, Symbol: "ACME", Quantity: 1, PurchasePrice: decimal.NewFromInt(1)}).Error)
	err = gdb.Create(&domain.Holding{UserID: u.ID, Symbol: "ACME", Quantity: 2, PurchasePrice: decimal.NewFromInt(1)}).Error
	assert.Error(t, err, "second holding row for the same (user, symbol) must be rejected")
}
