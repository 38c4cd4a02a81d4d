// Package loader reads the document the engine indexes, either from a file
// in a configured charset or from the documents table in PostgreSQL. Every
// loader returns NFC-normalized UTF-8.
package loader

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/resilience"
)

// Loader returns the document text and a short description of where it
// came from.
type Loader interface {
	Load(ctx context.Context) (text string, source string, err error)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw bytes in charset to NFC-normalized UTF-8.
func Decode(data []byte, charset string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	var enc encoding.Encoding
	switch name {
	case "", "utf-8", "utf8":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("decoding document: invalid utf-8: %w", apperrors.ErrDocumentLoad)
		}
		return norm.NFC.String(string(data)), nil
	case "utf-16", "utf16":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf-16le":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf-16be":
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "windows-1251", "cp1251":
		enc = charmap.Windows1251
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	case "koi8-r", "koi8r":
		enc = charmap.KOI8R
	case "iso-8859-1", "latin1", "latin-1":
		enc = charmap.ISO8859_1
	case "iso-8859-5":
		enc = charmap.ISO8859_5
	default:
		return "", fmt.Errorf("charset %q: %w", charset, apperrors.ErrUnknownCharset)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding document as %s: %v: %w", name, err, apperrors.ErrDocumentLoad)
	}
	return norm.NFC.String(string(out)), nil
}

// FileLoader reads a document from disk.
type FileLoader struct {
	Path    string
	Charset string
}

func (l *FileLoader) Load(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %v: %w", l.Path, err, apperrors.ErrDocumentLoad)
	}
	text, err := Decode(data, l.Charset)
	if err != nil {
		return "", "", err
	}
	return text, "file:" + l.Path, nil
}

// Querier is the part of *sql.DB the Postgres loader uses.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresLoader reads the body of one row of the documents table. Bodies
// are stored as UTF-8 text, so only normalization is applied.
type PostgresLoader struct {
	DB         Querier
	DocumentID string
	Timeout    time.Duration
	Retry      resilience.RetryConfig
	logger     *slog.Logger
}

func NewPostgresLoader(db Querier, documentID string, timeout time.Duration) *PostgresLoader {
	return &PostgresLoader{
		DB:         db,
		DocumentID: documentID,
		Timeout:    timeout,
		Retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
			Retryable: func(err error) bool {
				return !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, apperrors.ErrEmptyDocument)
			},
		},
		logger: slog.Default().With("component", "postgres-loader"),
	}
}

// Schema creates the documents table the loader reads from.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (l *PostgresLoader) Load(ctx context.Context) (string, string, error) {
	var body string
	err := resilience.Retry(ctx, "load-document", l.Retry, func() error {
		return resilience.WithTimeout(ctx, l.Timeout, "load-document", func(ctx context.Context) error {
			return l.DB.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = $1`, l.DocumentID).Scan(&body)
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("document %q not found: %w", l.DocumentID, apperrors.ErrDocumentLoad)
	}
	if err != nil {
		return "", "", fmt.Errorf("loading document %q: %v: %w", l.DocumentID, err, apperrors.ErrDocumentLoad)
	}
	l.logger.Info("document loaded", "id", l.DocumentID, "bytes", len(body))
	return norm.NFC.String(body), "postgres:" + l.DocumentID, nil
}

// New picks the loader named by cfg.Source. db may be nil for file sources.
func New(cfg config.DocumentConfig, db Querier) (Loader, error) {
	switch cfg.Source {
	case "file":
		return &FileLoader{Path: cfg.Path, Charset: cfg.Charset}, nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres document source without a database: %w", apperrors.ErrInvalidInput)
		}
		if cfg.DocumentID == "" {
			return nil, fmt.Errorf("postgres document source needs documentId: %w", apperrors.ErrInvalidInput)
		}
		return NewPostgresLoader(db, cfg.DocumentID, cfg.LoadTimeout), nil
	default:
		return nil, fmt.Errorf("document source %q: %w", cfg.Source, apperrors.ErrInvalidInput)
	}
}
