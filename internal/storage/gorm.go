package storage

import (
	"crafthost/internal/domain"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Installation struct {
	Root          string `gorm:"primaryKey"`
	Project       string
	Version       string
	Build         int
	JavaMajor     int
	JavaPath      string
	MinHeapMB     int
	MaxHeapMB     int
	Port          int
	EULAAccepted  bool
	ProvisionedAt time.Time
	UpdatedAt     time.Time
}

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&Installation{}, &Setting{})
	if err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	store := &GormStore{db: db}

	if err := store.initDefaultSettings(); err != nil {
		return nil, fmt.Errorf("error initializing settings: %w", err)
	}

	return store, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) initDefaultSettings() error {
	defaults := map[string]string{
		"port_range_start": "25565",
		"port_range_end":   "25600",
	}

	for key, value := range defaults {
		var setting Setting
		result := s.db.First(&setting, "key = ?", key)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				if err := s.db.Create(&Setting{Key: key, Value: value}).Error; err != nil {
					return err
				}
			} else {
				return result.Error
			}
		}
	}

	return nil
}

// SaveInstallation inserts or replaces the record for inst.Root.
func (s *GormStore) SaveInstallation(inst *domain.Installation) error {
	record := &Installation{
		Root:          inst.Root,
		Project:       inst.Project,
		Version:       inst.Version,
		Build:         inst.Build,
		JavaMajor:     inst.JavaMajor,
		JavaPath:      inst.JavaPath,
		MinHeapMB:     inst.MinHeapMB,
		MaxHeapMB:     inst.MaxHeapMB,
		Port:          inst.Port,
		EULAAccepted:  inst.EULAAccepted,
		ProvisionedAt: inst.ProvisionedAt,
	}

	return s.db.Save(record).Error
}

// GetInstallation returns nil, nil when root was never provisioned.
func (s *GormStore) GetInstallation(root string) (*domain.Installation, error) {
	var record Installation
	result := s.db.First(&record, "root = ?", root)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying installation: %w", result.Error)
	}

	return &domain.Installation{
		Root:          record.Root,
		Project:       record.Project,
		Version:       record.Version,
		Build:         record.Build,
		JavaMajor:     record.JavaMajor,
		JavaPath:      record.JavaPath,
		MinHeapMB:     record.MinHeapMB,
		MaxHeapMB:     record.MaxHeapMB,
		Port:          record.Port,
		EULAAccepted:  record.EULAAccepted,
		ProvisionedAt: record.ProvisionedAt,
	}, nil
}

func (s *GormStore) UpdateInstallationPort(root string, port int) error {
	return s.db.Model(&Installation{}).Where("root = ?", root).Update("port", port).Error
}

func (s *GormStore) UpdateMemory(root string, minMB, maxMB int) error {
	if minMB <= 0 || maxMB <= 0 || minMB > maxMB {
		return fmt.Errorf("invalid memory bounds: %d-%d", minMB, maxMB)
	}
	return s.db.Model(&Installation{}).Where("root = ?", root).
		Updates(map[string]interface{}{"min_heap_mb": minMB, "max_heap_mb": maxMB}).Error
}

func (s *GormStore) SetEULAAccepted(root string, accepted bool) error {
	return s.db.Model(&Installation{}).Where("root = ?", root).Update("eula_accepted", accepted).Error
}

func (s *GormStore) GetSetting(key string) (string, error) {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("setting not found: %s", key)
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStore) SetSetting(key string, value string) error {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return s.db.Create(&Setting{Key: key, Value: value}).Error
		}
		return result.Error
	}

	return s.db.Model(&setting).Update("value", value).Error
}

func (s *GormStore) GetPortRange() (int, int, error) {
	startStr, err := s.GetSetting("port_range_start")
	if err != nil {
		return 0, 0, err
	}

	endStr, err := s.GetSetting("port_range_end")
	if err != nil {
		return 0, 0, err
	}

	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing port_range_start: %w", err)
	}

	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing port_range_end: %w", err)
	}

	return start, end, nil
}

func (s *GormStore) SetPortRange(start int, end int) error {
	if start <= 0 || end <= 0 || start > end {
		return fmt.Errorf("invalid port range: %d-%d", start, end)
	}

	if err := s.SetSetting("port_range_start", strconv.Itoa(start)); err != nil {
		return err
	}

	return s.SetSetting("port_range_end", strconv.Itoa(end))
}
