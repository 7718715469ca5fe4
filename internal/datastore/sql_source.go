package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/tagtrack/internal/detection"
	"github.com/tphakala/tagtrack/internal/logger"
)

// SQL dialects supported by SQLSource.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

const slowQueryThreshold = 500 * time.Millisecond

// SQLSource reads detections from a database table whose columns carry the same names
// as the CSV header. It never writes.
//
// SQLite sources are versioned by database file mtime and size, MySQL sources by the
// latest timestamp and row count of the table.
type SQLSource struct {
	db      *gorm.DB
	dialect string
	path    string // sqlite file path, empty for mysql
	table   string
	opts    ParseOptions
}

// OpenSQLSource connects to a sqlite file or mysql DSN.
func OpenSQLSource(dialect, dsn, table string, opts ParseOptions, log logger.Logger) (*SQLSource, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	cfg := &gorm.Config{Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold)}

	var (
		db   *gorm.DB
		err  error
		path string
	)
	switch dialect {
	case DialectSQLite:
		path = strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	case DialectMySQL:
		db, err = gorm.Open(mysql.Open(dsn), cfg)
	default:
		return nil, loadErrorf("open", "unsupported SQL dialect %q", dialect)
	}
	if err != nil {
		return nil, loadError(err, "open", "dialect", dialect, "dsn", logger.RedactSensitiveData(dsn))
	}

	log.Debug("opened SQL source",
		logger.String("dialect", dialect),
		logger.String("dsn", logger.RedactSensitiveData(dsn)),
		logger.String("table", table))

	return NewSQLSource(db, dialect, path, table, opts), nil
}

// NewSQLSource wraps an open gorm connection. path is the sqlite database file used for
// versioning; when empty the table content is used instead.
func NewSQLSource(db *gorm.DB, dialect, path, table string, opts ParseOptions) *SQLSource {
	return &SQLSource{db: db, dialect: dialect, path: path, table: table, opts: opts}
}

// Name implements Source.
func (s *SQLSource) Name() string { return s.dialect }

// Version implements Source.
func (s *SQLSource) Version(ctx context.Context) (string, error) {
	if s.dialect == DialectSQLite && s.path != "" && s.path != ":memory:" {
		if fi, err := os.Stat(s.path); err == nil {
			return fmt.Sprintf("file:%d:%d", fi.ModTime().UnixNano(), fi.Size()), nil
		}
	}
	return s.contentVersion(ctx)
}

// contentVersion uses MAX(timestamp) and COUNT(*) of the table.
func (s *SQLSource) contentVersion(ctx context.Context) (string, error) {
	tsColumn, err := s.timestampColumn(ctx)
	if err != nil {
		return "", err
	}

	var (
		latest sql.NullString
		count  int64
	)
	row := s.db.WithContext(ctx).
		Table(s.table).
		Select("MAX(?), COUNT(*)", clause.Column{Name: tsColumn}).
		Row()
	if err := row.Scan(&latest, &count); err != nil {
		return "", loadError(err, "version", "table", s.table)
	}
	return fmt.Sprintf("rows:%s:%d", latest.String, count), nil
}

// timestampColumn resolves the configured collection column, or timestamp as fallback.
func (s *SQLSource) timestampColumn(ctx context.Context) (string, error) {
	migrator := s.db.WithContext(ctx).Migrator()
	if !migrator.HasTable(s.table) {
		return "", loadErrorf("version", "table %q does not exist", s.table)
	}
	col := s.opts.TimestampColumn
	if col == "" {
		col = detection.ColumnDateCollected
	}
	if migrator.HasColumn(s.table, col) {
		return col, nil
	}
	if migrator.HasColumn(s.table, detection.ColumnTimestamp) {
		return detection.ColumnTimestamp, nil
	}
	return "", loadErrorf("version", "table %q has no %s column", s.table, col)
}

// Load reads every row of the table.
func (s *SQLSource) Load(ctx context.Context) (*detection.Table, string, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return nil, "", err
	}

	rows, err := s.db.WithContext(ctx).Table(s.table).Rows()
	if err != nil {
		return nil, "", loadError(err, "query", "table", s.table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, "", loadError(err, "query", "table", s.table)
	}
	layout, err := newColumnLayout(columns, s.opts)
	if err != nil {
		return nil, "", loadError(err, "parse", "table", s.table)
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	row := make([]string, len(columns))

	var records []detection.Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, "", loadError(err, "scan", "table", s.table)
		}
		for i, v := range values {
			row[i] = v.String
		}
		rec, err := layout.record(row, len(records), len(records)+1)
		if err != nil {
			return nil, "", loadError(err, "parse", "table", s.table)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", loadError(err, "query", "table", s.table)
	}

	return detection.NewTable(records, layout.columns), version, nil
}

// Close closes the underlying database connection.
func (s *SQLSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
