package service

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
)

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Type     string `json:"type"` // "postgres"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"` // "disable", "require"
}

// DataSource is an alternative tabular source: an inventory table fetched
// from a database instead of an uploaded file. FetchTable returns ordered
// headers and stringified rows, the same shape the file loader feeds to
// the dataset builder.
type DataSource interface {
	Connect(config DataSourceConfig) error
	Close() error
	ListTables() ([]string, error)
	FetchTable(tableName string, limit int) (headers []string, rows [][]string, err error)
}

// PostgresDataSource implements DataSource for PostgreSQL
type PostgresDataSource struct {
	db *sql.DB
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (p *PostgresDataSource) Connect(config DataSourceConfig) error {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	p.db = db
	return nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables() ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// FetchTable reads up to limit rows from a table. The table name is
// interpolated into the query, so it is restricted to a plain identifier;
// callers should still validate it against ListTables.
func (p *PostgresDataSource) FetchTable(tableName string, limit int) ([]string, [][]string, error) {
	if !identPattern.MatchString(tableName) {
		return nil, nil, fmt.Errorf("invalid table name %q", tableName)
	}
	query := fmt.Sprintf(`SELECT * FROM %q LIMIT %d`, tableName, limit)

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var result [][]string
	for rows.Next() {
		values := make([]interface{}, len(headers))
		valuePtrs := make([]interface{}, len(headers))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		record := make([]string, len(headers))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				record[i] = ""
			case []byte:
				record[i] = string(v)
			default:
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		result = append(result, record)
	}

	return headers, result, rows.Err()
}
