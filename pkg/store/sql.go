package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"
)

// evaluationRow is the persisted form of an Evaluation.
type evaluationRow struct {
	ID           string `gorm:"primaryKey"`
	Expression   string
	State        string `gorm:"index:idx_state"`
	Postfix      string
	Result       string
	ErrorMessage string
	ErrorTags    string // comma separated
	Source       string
	CreateTime   int64 `gorm:"index:idx_create_time"` // unix nanoseconds
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (evaluationRow) TableName() string {
	return "evaluations"
}

// SQL is a Backend persisted in a SQLite database. Pruned rows are
// soft-deleted and no longer returned. Only the formatted result is kept;
// Evaluation.Value is zero on records read back.
type SQL struct {
	db *gorm.DB
}

// OpenSQL opens (creating if needed) the SQLite database at path and migrates it.
func OpenSQL(path string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.AutoMigrate(&evaluationRow{}); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &SQL{db: db}, nil
}

// Record stores a new evaluation.
func (s *SQL) Record(ev *Evaluation) (*Evaluation, error) {
	prepare(ev)
	row := toRow(ev)
	if err := s.db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("recording evaluation: %w", err)
	}
	return ev, nil
}

// Get retrieves an evaluation by ID.
func (s *SQL) Get(id string) (*Evaluation, error) {
	var row evaluationRow
	err := s.db.Where("`id` = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("evaluation '%s': %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row), nil
}

// List returns evaluations newest first. limit <= 0 returns all of them.
func (s *SQL) List(limit int) ([]*Evaluation, error) {
	var rows []*evaluationRow
	q := s.db.Model(&evaluationRow{}).Order("`create_time` desc, `rowid` desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*Evaluation, len(rows))
	for i, row := range rows {
		result[i] = fromRow(row)
	}
	return result, nil
}

// Prune soft-deletes evaluations created before the given time.
func (s *SQL) Prune(before time.Time) (int, error) {
	res := s.db.Where("`create_time` < ?", before.UnixNano()).Delete(&evaluationRow{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Close releases the underlying database handle.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(ev *Evaluation) evaluationRow {
	row := evaluationRow{
		ID:         ev.ID,
		Expression: ev.Expression,
		State:      string(ev.State),
		Postfix:    ev.Postfix,
		Result:     ev.Result,
		Source:     ev.Source,
		CreateTime: ev.CreateTime.UnixNano(),
	}
	if ev.Error != nil {
		row.ErrorMessage = ev.Error.Message
		row.ErrorTags = strings.Join(ev.Error.Tags, ",")
	}
	return row
}

func fromRow(row *evaluationRow) *Evaluation {
	ev := &Evaluation{
		ID:         row.ID,
		Expression: row.Expression,
		State:      EvaluationState(row.State),
		Postfix:    row.Postfix,
		Result:     row.Result,
		Source:     row.Source,
		CreateTime: time.Unix(0, row.CreateTime),
	}
	if row.ErrorMessage != "" {
		ev.Error = &EvaluationError{Message: row.ErrorMessage}
		if row.ErrorTags != "" {
			ev.Error.Tags = strings.Split(row.ErrorTags, ",")
		}
	}
	return ev
}
