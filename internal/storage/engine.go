package storage

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atmowatch/atmowatch/internal/database"
	"github.com/atmowatch/atmowatch/internal/log"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
)

// Engine is the GORM-backed persistence engine.
type Engine struct {
	db        *gorm.DB
	batchSize int
}

// New connects to the store and runs the table/index migrations.
func New(ctx context.Context, connectionString string, batchSize int) (*Engine, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	log.Info("creating observation tables and indexes...")
	for _, stmt := range migrationStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	if batchSize <= 0 {
		batchSize = 10000
	}
	return &Engine{db: db, batchSize: batchSize}, nil
}

// NewWithDB wraps an existing GORM handle; used by tests and the REST layer.
func NewWithDB(db *gorm.DB, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = 10000
	}
	return &Engine{db: db, batchSize: batchSize}
}

// Upsert validates and persists one batch of rows. All rows must target the
// same table. The insert runs in a single transaction with
// ON CONFLICT DO NOTHING on the table's natural key; duplicates never abort
// the batch, and the returned count triple always sums to len(rows).
func (e *Engine) Upsert(ctx context.Context, rows []schema.Row) (types.UpsertCounts, error) {
	var counts types.UpsertCounts
	if len(rows) == 0 {
		return counts, nil
	}

	table := rows[0].TableName()
	spec, err := schema.Spec(table)
	if err != nil {
		return counts, &types.Failure{Kind: types.KindPersistenceError, Detail: err.Error()}
	}

	// Validate, building a typed slice gorm can insert.
	sliceType := reflect.SliceOf(reflect.TypeOf(rows[0]))
	valid := reflect.MakeSlice(sliceType, 0, len(rows))
	for _, row := range rows {
		if row.TableName() != table {
			return counts, &types.Failure{
				Kind:   types.KindPersistenceError,
				Detail: fmt.Sprintf("mixed tables in batch: %s and %s", table, row.TableName()),
			}
		}
		if verr := row.Validate(); verr != nil {
			counts.InvalidSkipped++
			log.Debugw("record rejected", "table", table, "reason", verr.Error())
			continue
		}
		valid = reflect.Append(valid, reflect.ValueOf(row))
	}

	if valid.Len() == 0 {
		return counts, nil
	}

	conflictCols := make([]clause.Column, len(spec.KeyColumns))
	for i, c := range spec.KeyColumns {
		conflictCols[i] = clause.Column{Name: c}
	}

	slicePtr := reflect.New(sliceType)
	slicePtr.Elem().Set(valid)

	var inserted int64
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   conflictCols,
			DoNothing: true,
		}).CreateInBatches(slicePtr.Interface(), e.batchSize)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return types.UpsertCounts{InvalidSkipped: counts.InvalidSkipped},
			&types.Failure{Kind: types.KindPersistenceError, Detail: fmt.Sprintf("upsert into %s: %v", table, err)}
	}

	counts.Inserted = int(inserted)
	counts.DuplicateSkipped = valid.Len() - counts.Inserted
	return counts, nil
}
