package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/NewsDesk/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CategoryCache 每个分区一行
type CategoryCache struct {
	Category string         `gorm:"primaryKey;size:32" json:"category"`
	Articles datatypes.JSON `json:"articles"`
	StoredAt time.Time      `gorm:"index" json:"storedAt"`
}

// SQLStore 基于 gorm 的缓存，Postgres 和本地 SQLite 文件共用
type SQLStore struct {
	DB *gorm.DB
}

func NewSQLStore(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// SQLite 单文件不支持并发写，串行化连接避免 database is locked
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open cache db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&CategoryCache{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &SQLStore{DB: db}, nil
}

// silent 查不到记录是正常情况，不需要 gorm 打 record not found 日志
func (s *SQLStore) silent(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

func (s *SQLStore) Get(ctx context.Context, category model.Category) (Entry, bool, error) {
	var row CategoryCache
	err := s.silent(ctx).Where("category = ?", string(category)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query %s entry: %w", category, err)
	}

	e, err := row.entry()
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (row CategoryCache) entry() (Entry, error) {
	var articles []model.Article
	if err := json.Unmarshal(row.Articles, &articles); err != nil {
		return Entry{}, fmt.Errorf("decode %s entry: %w", row.Category, err)
	}
	return Entry{Articles: articles, UpdatedAt: row.StoredAt}, nil
}

func (s *SQLStore) Put(ctx context.Context, category model.Category, articles []model.Article, at time.Time) error {
	bs, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", category, err)
	}

	row := CategoryCache{
		Category: string(category),
		Articles: datatypes.JSON(bs),
		StoredAt: at.UTC(),
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"articles", "stored_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert %s entry: %w", category, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (Snapshot, error) {
	var rows []CategoryCache
	if err := s.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("load cache: %w", err)
	}

	entries := make(map[model.Category]Entry, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			log.Printf("storage: skip corrupted entry: %v", err)
			continue
		}
		entries[model.Category(row.Category)] = e
	}
	return snapshotOf(entries), nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).Where("1 = 1").Delete(&CategoryCache{}).Error; err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (s *SQLStore) LastUpdate(ctx context.Context) (time.Time, error) {
	var rows []CategoryCache
	err := s.DB.WithContext(ctx).Select("stored_at").Order("stored_at DESC").Limit(1).Find(&rows).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("query last update: %w", err)
	}
	if len(rows) == 0 {
		return time.Time{}, nil
	}
	return rows[0].StoredAt, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
