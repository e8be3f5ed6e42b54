package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"ghosthunter/internal/leads"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS leads (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    category VARCHAR(128) NOT NULL,
    location VARCHAR(255) NOT NULL,
    rating DECIMAL(3,1) NOT NULL DEFAULT 0,
    review_count INT NOT NULL DEFAULT 0,
    url VARCHAR(512) NULL,
    phone VARCHAR(64) NULL,
    website_status VARCHAR(16) NOT NULL,
    performance_score DECIMAL(6,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_lead (location, category, name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const upsertStmt = `
INSERT INTO leads
    (name, category, location, rating, review_count, url, phone, website_status, performance_score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    rating = VALUES(rating),
    review_count = VALUES(review_count),
    url = VALUES(url),
    phone = VALUES(phone),
    website_status = VALUES(website_status),
    performance_score = VALUES(performance_score)`

// Store persists discovered leads in MySQL so repeated runs accumulate and
// refresh a single table instead of producing disconnected CSV files.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open connects to MySQL, verifies the connection and ensures the leads
// table exists.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open mysql")
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: ping mysql")
	}

	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: ensure leads table")
	}

	return &Store{db: db, log: log}, nil
}

// UpsertLeads writes the batch in one transaction, updating rows that share
// the same location, category and name.
func (s *Store) UpsertLeads(ctx context.Context, entities []leads.BusinessEntity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertStmt)
	if err != nil {
		return eris.Wrap(err, "store: prepare upsert")
	}
	defer stmt.Close()

	for _, entity := range entities {
		_, err := stmt.ExecContext(ctx,
			entity.Name,
			entity.Category,
			entity.Location,
			entity.Rating,
			entity.ReviewCount,
			nullString(entity.URL),
			nullString(entity.Phone),
			string(entity.WebsiteStatus),
			entity.PerformanceScore,
		)
		if err != nil {
			return eris.Wrapf(err, "store: upsert %s", entity.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit")
	}
	s.log.Info("leads persisted", zap.Int("count", len(entities)))
	return nil
}

// ListOpportunities returns stored leads for a category/location pair,
// highest score first.
func (s *Store) ListOpportunities(ctx context.Context, category, location string) ([]leads.BusinessEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, location, rating, review_count, url, phone, website_status, performance_score
		FROM leads
		WHERE category = ? AND location = ?
		ORDER BY performance_score DESC`,
		category, location)
	if err != nil {
		return nil, eris.Wrap(err, "store: query opportunities")
	}
	defer rows.Close()

	var result []leads.BusinessEntity
	for rows.Next() {
		var entity leads.BusinessEntity
		var url, phone sql.NullString
		var status string
		if err := rows.Scan(&entity.Name, &entity.Category, &entity.Location,
			&entity.Rating, &entity.ReviewCount, &url, &phone, &status,
			&entity.PerformanceScore); err != nil {
			return nil, eris.Wrap(err, "store: scan lead row")
		}
		entity.URL = url.String
		entity.Phone = phone.String
		entity.WebsiteStatus = leads.WebsiteStatus(status)
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate lead rows")
	}
	return result, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
