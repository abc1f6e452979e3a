package storage

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteConfigStore implements ports.ConfigStore using GORM and
// SQLite. It persists the default AP configuration and remembers the
// randomized BSSID assigned to each SSID so a network keeps its
// address across restarts.
type SQLiteConfigStore struct {
	db *gorm.DB
}

// ApConfigModel is the GORM model for the persisted default
// configuration. Slices are stored JSON encoded.
type ApConfigModel struct {
	ID                                  uint `gorm:"primaryKey"`
	SSID                                string
	BSSID                               string
	Security                            string
	Hidden                              bool
	Bands                               string // JSON encoded []int
	BlockedClients                      string // JSON encoded []string
	AllowedClients                      string // JSON encoded []string
	ClientControlEnabled                bool
	MaxClients                          int
	ShutdownTimeoutMillis               int64
	AutoShutdownEnabled                 bool
	BridgedOpportunisticShutdownEnabled bool
	UpdatedAt                           time.Time
}

// RandomizedBssidModel maps an SSID to its generated BSSID.
type RandomizedBssidModel struct {
	SSID      string `gorm:"primaryKey"`
	BSSID     string
	CreatedAt time.Time
}

// NewSQLiteConfigStore opens the database, installs the tracing
// plugin and migrates the schema.
func NewSQLiteConfigStore(path string) (*SQLiteConfigStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("config store tracing: %w", err)
	}
	if err := db.AutoMigrate(&ApConfigModel{}, &RandomizedBssidModel{}); err != nil {
		return nil, fmt.Errorf("migrate config store: %w", err)
	}
	return &SQLiteConfigStore{db: db}, nil
}

// DefaultConfig returns the persisted default configuration.
func (s *SQLiteConfigStore) DefaultConfig() (*domain.ApConfiguration, error) {
	var model ApConfigModel
	if err := s.db.Order("updated_at desc").First(&model).Error; err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}
	return toDomain(model)
}

// SaveDefaultConfig upserts the default configuration (a single row).
func (s *SQLiteConfigStore) SaveDefaultConfig(cfg *domain.ApConfiguration) error {
	model, err := toModel(cfg)
	if err != nil {
		return err
	}
	model.ID = 1
	return s.db.Save(&model).Error
}

// RandomizeBssidIfUnset fills in a generated BSSID when the
// configuration has none, reusing the one previously assigned to the
// SSID.
func (s *SQLiteConfigStore) RandomizeBssidIfUnset(cfg *domain.ApConfiguration) (*domain.ApConfiguration, bool, error) {
	if cfg.BSSID != "" {
		return cfg, false, nil
	}

	var stored RandomizedBssidModel
	err := s.db.Where(&RandomizedBssidModel{SSID: cfg.SSID}, "SSID").First(&stored).Error
	if err == nil {
		out := *cfg
		out.BSSID = stored.BSSID
		return &out, true, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, fmt.Errorf("lookup randomized bssid: %w", err)
	}

	bssid, err := randomBssid()
	if err != nil {
		return nil, false, err
	}
	rec := RandomizedBssidModel{SSID: cfg.SSID, BSSID: bssid, CreatedAt: time.Now()}
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, false, fmt.Errorf("save randomized bssid: %w", err)
	}
	out := *cfg
	out.BSSID = bssid
	return &out, true, nil
}

func (s *SQLiteConfigStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// randomBssid generates a locally administered unicast MAC.
func randomBssid() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate bssid: %w", err)
	}
	buf[0] = (buf[0] | 0x02) &^ 0x01
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", buf[0], buf[1], buf[2], buf[3], buf[4], buf[5]), nil
}

func toModel(cfg *domain.ApConfiguration) (ApConfigModel, error) {
	bands, err := json.Marshal(cfg.Bands)
	if err != nil {
		return ApConfigModel{}, err
	}
	blocked, err := json.Marshal(cfg.BlockedClients)
	if err != nil {
		return ApConfigModel{}, err
	}
	allowed, err := json.Marshal(cfg.AllowedClients)
	if err != nil {
		return ApConfigModel{}, err
	}
	return ApConfigModel{
		SSID:                                cfg.SSID,
		BSSID:                               cfg.BSSID,
		Security:                            string(cfg.Security),
		Hidden:                              cfg.Hidden,
		Bands:                               string(bands),
		BlockedClients:                      string(blocked),
		AllowedClients:                      string(allowed),
		ClientControlEnabled:                cfg.ClientControlEnabled,
		MaxClients:                          cfg.MaxClients,
		ShutdownTimeoutMillis:               cfg.ShutdownTimeoutMillis,
		AutoShutdownEnabled:                 cfg.AutoShutdownEnabled,
		BridgedOpportunisticShutdownEnabled: cfg.BridgedOpportunisticShutdownEnabled,
	}, nil
}

func toDomain(model ApConfigModel) (*domain.ApConfiguration, error) {
	cfg := &domain.ApConfiguration{
		SSID:                                model.SSID,
		BSSID:                               model.BSSID,
		Security:                            domain.SecurityType(model.Security),
		Hidden:                              model.Hidden,
		ClientControlEnabled:                model.ClientControlEnabled,
		MaxClients:                          model.MaxClients,
		ShutdownTimeoutMillis:               model.ShutdownTimeoutMillis,
		AutoShutdownEnabled:                 model.AutoShutdownEnabled,
		BridgedOpportunisticShutdownEnabled: model.BridgedOpportunisticShutdownEnabled,
	}
	if model.Bands != "" {
		if err := json.Unmarshal([]byte(model.Bands), &cfg.Bands); err != nil {
			return nil, fmt.Errorf("decode bands: %w", err)
		}
	}
	if model.BlockedClients != "" {
		if err := json.Unmarshal([]byte(model.BlockedClients), &cfg.BlockedClients); err != nil {
			return nil, fmt.Errorf("decode blocked clients: %w", err)
		}
	}
	if model.AllowedClients != "" {
		if err := json.Unmarshal([]byte(model.AllowedClients), &cfg.AllowedClients); err != nil {
			return nil, fmt.Errorf("decode allowed clients: %w", err)
		}
	}
	return cfg, nil
}

// Ensure interface compliance
var _ ports.ConfigStore = (*SQLiteConfigStore)(nil)
