package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteArchive keeps a queryable history of every processed invoice.
// The full document is stored as JSON alongside the columns used for
// listing and summaries.
type SQLiteArchive struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteArchive opens (or creates) the archive database.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteArchive{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}

// SaveInvoice upserts an invoice, keyed by its ID.
func (s *SQLiteArchive) SaveInvoice(ctx context.Context, inv *model.Invoice, warnings []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInvoice(inv); err != nil {
		return err
	}

	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshaling invoice %q: %w", inv.ID, err)
	}

	var deliveryDate any
	if inv.DeliveryDate != nil {
		deliveryDate = inv.DeliveryDate.UTC()
	}
	var warningText any
	if len(warnings) > 0 {
		warningText = strings.Join(warnings, "\n")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, supplier, document_number, document_date, delivery_date,
			imported_at, source_file_name, total_excl_tax, total_tax,
			total_incl_tax, line_count, payload, warnings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			supplier = excluded.supplier,
			document_number = excluded.document_number,
			document_date = excluded.document_date,
			delivery_date = excluded.delivery_date,
			imported_at = excluded.imported_at,
			source_file_name = excluded.source_file_name,
			total_excl_tax = excluded.total_excl_tax,
			total_tax = excluded.total_tax,
			total_incl_tax = excluded.total_incl_tax,
			line_count = excluded.line_count,
			payload = excluded.payload,
			warnings = excluded.warnings`,
		inv.ID, inv.Supplier, inv.DocumentNumber, inv.DocumentDate.UTC(), deliveryDate,
		inv.ImportedAt.UTC(), inv.SourceFileName, inv.TotalExclTax, inv.TotalTax,
		inv.TotalInclTax, len(inv.Lines), string(payload), warningText,
	)
	if err != nil {
		return fmt.Errorf("saving invoice %q: %w", inv.ID, err)
	}
	return nil
}

// GetInvoiceByID returns one archived invoice.
func (s *SQLiteArchive) GetInvoiceByID(ctx context.Context, id string) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM invoices WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading invoice %q: %w", id, err)
	}

	var inv model.Invoice
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		return nil, fmt.Errorf("decoding invoice %q: %w", id, err)
	}
	return &inv, nil
}

// ListInvoices returns archived invoices, newest import first. An empty
// supplier lists every supplier; limit <= 0 means no limit.
func (s *SQLiteArchive) ListInvoices(ctx context.Context, supplier string, limit int) ([]*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT payload FROM invoices`
	args := []any{}
	if supplier != "" {
		query += ` WHERE supplier = ?`
		args = append(args, supplier)
	}
	query += ` ORDER BY imported_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []*model.Invoice
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning invoice row: %w", err)
		}
		var inv model.Invoice
		if err := json.Unmarshal([]byte(payload), &inv); err != nil {
			return nil, fmt.Errorf("decoding archived invoice: %w", err)
		}
		invoices = append(invoices, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}
	return invoices, nil
}

// SupplierSummary aggregates the archive per supplier.
type SupplierSummary struct {
	LastImportedAt time.Time
	Supplier       string
	InvoiceCount   int
	TotalExclTax   float64
}

// GetSupplierSummary returns per-supplier invoice counts and totals.
func (s *SQLiteArchive) GetSupplierSummary(ctx context.Context) ([]SupplierSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT supplier, COUNT(*), COALESCE(SUM(total_excl_tax), 0), MAX(imported_at)
		FROM invoices
		GROUP BY supplier
		ORDER BY supplier`)
	if err != nil {
		return nil, fmt.Errorf("summarizing archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []SupplierSummary
	for rows.Next() {
		var summary SupplierSummary
		var lastImported string
		if err := rows.Scan(&summary.Supplier, &summary.InvoiceCount, &summary.TotalExclTax, &lastImported); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		// MAX() strips the column's declared type, so the driver hands
		// the timestamp back as text.
		for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", time.RFC3339Nano} {
			if ts, perr := time.Parse(layout, lastImported); perr == nil {
				summary.LastImportedAt = ts
				break
			}
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}
	return summaries, nil
}
