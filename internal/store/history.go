package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/unitconv/internal/model"
)

// AppendHistory inserts one immutable history record. The ID and Timestamp of
// rec are ignored; the store assigns both and returns the stored record.
//
// Timestamps never go backwards in insertion order: if the clock reads earlier
// than the newest stored record, the newest timestamp is reused.
func (s *Store) AppendHistory(ctx context.Context, rec model.HistoryRecord) (model.HistoryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: begin tx", err)
	}
	defer tx.Rollback()

	ts := model.FormatTimestamp(s.now())

	var latest sql.NullString
	if err := tx.QueryRowContext(ctx, "SELECT MAX(timestamp) FROM history").Scan(&latest); err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: latest timestamp", err)
	}
	if latest.Valid && latest.String > ts {
		ts = latest.String
	}

	var categoryID sql.NullInt64
	if rec.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *rec.CategoryID, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO history (input_value, from_unit, to_unit, result_value, category_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.InputValue,
		rec.FromUnit,
		rec.ToUnit,
		rec.ResultValue,
		categoryID,
		ts,
	)
	if err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: insert", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: last insert id", err)
	}

	if err := tx.Commit(); err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: commit", err)
	}

	stored := rec
	stored.ID = id
	stored.Timestamp, err = time.ParseInLocation(model.TimestampLayout, ts, time.UTC)
	if err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("append history: parse timestamp", err)
	}
	return stored, nil
}

// ReadHistory returns the whole history log, newest first.
// Ordered by timestamp DESC, id DESC so records written within the same
// second keep a deterministic order.
//
// Records whose category no longer exists keep their raw CategoryID and get
// an empty CategoryName.
func (s *Store) ReadHistory(ctx context.Context) ([]model.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.input_value, h.from_unit, h.to_unit, h.result_value,
		       h.category_id, COALESCE(c.name, ''), h.timestamp
		FROM history h
		LEFT JOIN categories c ON h.category_id = c.id
		ORDER BY h.timestamp DESC, h.id DESC
	`)
	if err != nil {
		return nil, model.NewStorageUnavailable("query history", err)
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageUnavailable("iterate history", err)
	}
	return records, nil
}

// ClearHistory deletes every history record. Irreversible.
// Returns the number of records removed.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, model.NewStorageUnavailable("clear history", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, model.NewStorageUnavailable("clear history: rows affected", err)
	}
	s.logger.Info("history cleared", "records", n)
	return n, nil
}

func scanHistory(rows *sql.Rows) (model.HistoryRecord, error) {
	var rec model.HistoryRecord
	var categoryID sql.NullInt64
	var ts string

	if err := rows.Scan(
		&rec.ID, &rec.InputValue, &rec.FromUnit, &rec.ToUnit, &rec.ResultValue,
		&categoryID, &rec.CategoryName, &ts,
	); err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable("scan history", err)
	}

	if categoryID.Valid {
		id := categoryID.Int64
		rec.CategoryID = &id
	}

	t, err := time.ParseInLocation(model.TimestampLayout, ts, time.UTC)
	if err != nil {
		return model.HistoryRecord{}, model.NewStorageUnavailable(fmt.Sprintf("parse history timestamp %q", ts), err)
	}
	rec.Timestamp = t
	return rec, nil
}
