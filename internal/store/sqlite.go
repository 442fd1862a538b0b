package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/ragwire/internal/embedding"
	"github.com/rcliao/ragwire/internal/model"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	entropyMu sync.Mutex
	entropy   *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		content      TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		processed_at TEXT,
		chunk_count  INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_documents_pending ON documents(processed_at, created_at);

	CREATE TABLE IF NOT EXISTS chunks (
		id          TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id),
		seq         INTEGER NOT NULL,
		text        TEXT NOT NULL,
		byte_offset INTEGER NOT NULL DEFAULT 0,
		embedding   BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AddDocument(ctx context.Context, p AddDocumentParams) (*model.Document, error) {
	now := time.Now().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content, created_at) VALUES (?, ?, ?, ?)`,
		id, p.Filename, p.Content, now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return &model.Document{
		ID:        id,
		Filename:  p.Filename,
		Content:   p.Content,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) PendingDocuments(ctx context.Context) ([]model.Document, error) {
	return s.List(ctx, ListParams{PendingOnly: true})
}

func (s *SQLiteStore) IndexDocument(ctx context.Context, documentID string, chunks []ChunkParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, document_id, seq, text, byte_offset, embedding)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.newID(), documentID, i, c.Text, c.Offset, encodeVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET processed_at = ?, chunk_count = ? WHERE id = ? AND processed_at IS NULL`,
		time.Now().UTC().Format(timeLayout), len(chunks), documentID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending document %s: %w", documentID, ErrNotFound)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.seq, c.text, c.byte_offset, c.embedding, d.filename
		FROM chunks c JOIN documents d ON d.id = c.document_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var blob []byte
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Seq, &r.Text, &r.Offset, &blob, &r.Filename); err != nil {
			return nil, err
		}
		vec := decodeVector(blob)
		if len(vec) != len(p.Vector) {
			return nil, fmt.Errorf("%w: chunk %s has %d dims, query has %d",
				embedding.ErrDimensionMismatch, r.ID, len(vec), len(p.Vector))
		}
		r.Score = embedding.CosineSimilarity(p.Vector, vec)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteStore) ChunkCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Document, error) {
	query := `SELECT id, filename, content, created_at, processed_at, chunk_count FROM documents`
	var args []interface{}
	if p.PendingOnly {
		query += ` WHERE processed_at IS NULL`
	}
	query += ` ORDER BY created_at, id`
	if p.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (model.Document, error) {
	var d model.Document
	var createdAt string
	var processedAt sql.NullString

	if err := row.Scan(&d.ID, &d.Filename, &d.Content, &createdAt, &processedAt, &d.ChunkCount); err != nil {
		return d, err
	}
	d.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if processedAt.Valid {
		t, _ := time.Parse(timeLayout, processedAt.String)
		d.ProcessedAt = &t
	}
	return d, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v embedding.Vector) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) embedding.Vector {
	v := make(embedding.Vector, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
