package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"linky-monitor/internal/snapshot"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) SaveSnapshot(at time.Time, snap *snapshot.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	record := &SnapshotRecord{
		Timestamp:    at,
		Yesterday:    snap.Yesterday,
		CurrentWeek:  snap.CurrentWeek,
		CurrentMonth: snap.CurrentMonth,
		CurrentYear:  snap.CurrentYear,
		DailyCost:    snap.DailyCost,
		Payload:      string(payload),
	}
	if len(snap.DailyweekTempo) > 0 {
		record.TempoToday = snap.DailyweekTempo[0]
	}
	if len(snap.DailyweekMP) > 0 {
		record.PowerPeakKVA = snap.DailyweekMP[0]
		record.PeakExceeded = snap.DailyweekMPOver[0]
	}

	return d.db.Create(record).Error
}

func (d *Database) GetLatestSnapshot() (*SnapshotRecord, error) {
	var record SnapshotRecord
	result := d.db.Order("timestamp desc").First(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (d *Database) GetSnapshotsByRange(from, to time.Time) ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	result := d.db.Where("timestamp BETWEEN ? AND ?", from, to).
		Order("timestamp desc").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) GetSnapshotsWithLimit(limit int) ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	result := d.db.Order("timestamp desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) CleanOldSnapshots(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return d.db.Where("timestamp < ?", cutoff).Delete(&SnapshotRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
