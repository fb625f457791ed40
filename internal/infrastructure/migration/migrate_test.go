package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cashcraft/internal/app/server/config"
)

// MockMigrator мок Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigration_Up(t *testing.T) {
	tests := []struct {
		name       string
		upErr      error
		sourceErr  error
		dbErr      error
		wantErr    bool
		wantSubstr string
	}{
		{name: "success"},
		{name: "no change", upErr: migrate.ErrNoChange},
		{name: "up fails", upErr: errors.New("dirty database"), wantErr: true, wantSubstr: "dirty database"},
		{name: "close source fails", sourceErr: errors.New("source closed"), wantErr: true, wantSubstr: "migration source"},
		{name: "close db fails", dbErr: errors.New("db closed"), wantErr: true, wantSubstr: "migration database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockM := new(MockMigrator)
			mockM.On("Up").Return(tt.upErr)
			mockM.On("Close").Return(tt.sourceErr, tt.dbErr)

			var gotSource, gotDB string
			engine := func(source, db string) (Migrator, error) {
				gotSource, gotDB = source, db
				return mockM, nil
			}

			cfg := config.DB{DatabaseURI: "postgres://localhost/cashcraft", Migrations: "migrations"}
			err := NewMigration(cfg, engine).Up()

			assert.Equal(t, "file://migrations", gotSource)
			assert.Equal(t, cfg.DatabaseURI, gotDB)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantSubstr)
			} else {
				assert.NoError(t, err)
			}
			mockM.AssertExpectations(t)
		})
	}
}

func TestMigration_Up_EngineError(t *testing.T) {
	engine := func(source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(config.DB{}, engine).Up()
	require.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}
