// Package sqlstore implements storage.Driver over database/sql. The sqlite and
// postgres drivers embed it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/storage"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Numbered selects $1-style placeholders instead of ?.
	Numbered bool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS turns (
		hash        TEXT PRIMARY KEY,
		parent_hash TEXT,
		chat_id     TEXT NOT NULL,
		bucket      TEXT NOT NULL,
		created_at  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_turns_chat_id ON turns(chat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_turns_parent_hash ON turns(parent_hash)`,
}

const nodeColumns = `n.hash, n.parent_hash, n.bucket, n.created_at`

// Driver implements storage.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New wraps db and creates the schema when missing.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{DB: db, dialect: dialect}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}

	return d, nil
}

// Put stores a node. If the node already exists (by hash), this is a no-op.
func (d *Driver) Put(ctx context.Context, node *merkle.Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	bucketJSON, err := json.Marshal(node.Bucket)
	if err != nil {
		return false, fmt.Errorf("failed to marshal bucket: %w", err)
	}

	createdAt := node.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := d.DB.ExecContext(ctx, d.bind(
		`INSERT INTO turns (hash, parent_hash, chat_id, bucket, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO NOTHING`),
		node.Hash, node.ParentHash, node.Bucket.ChatID, string(bucketJSON), createdAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert node: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	return n > 0, nil
}

// Get retrieves a node by its hash.
func (d *Driver) Get(ctx context.Context, hash string) (*merkle.Node, error) {
	row := d.DB.QueryRowContext(ctx, d.bind(
		`SELECT `+nodeColumns+` FROM turns n WHERE n.hash = ?`), hash)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Hash: hash}
	}
	return node, err
}

// Head returns the newest node of the chat without children.
func (d *Driver) Head(ctx context.Context, chatID string) (*merkle.Node, error) {
	row := d.DB.QueryRowContext(ctx, d.bind(
		`SELECT `+nodeColumns+`
		FROM turns n
		WHERE n.chat_id = ?
		  AND NOT EXISTS (SELECT 1 FROM turns c WHERE c.parent_hash = n.hash)
		ORDER BY n.created_at DESC
		LIMIT 1`), chatID)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ChatID: chatID}
	}
	return node, err
}

func (d *Driver) List(ctx context.Context, chatID string) ([]*merkle.Node, error) {
	head, err := d.Head(ctx, chatID)
	if err != nil {
		if storage.IsNotFound(err) {
			return []*merkle.Node{}, nil
		}
		return nil, err
	}
	return storage.Chain(ctx, d, head)
}

// Ancestry returns the path from a node back to its root (node first, root last).
func (d *Driver) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	return storage.Ancestry(ctx, d.Get, hash)
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.DB.Close()
}

// bind rewrites ? placeholders for dialects that number them.
func (d *Driver) bind(query string) string {
	if !d.dialect.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func scanNode(row *sql.Row) (*merkle.Node, error) {
	var (
		node       merkle.Node
		parentHash sql.NullString
		bucketJSON string
		createdAt  int64
	)

	if err := row.Scan(&node.Hash, &parentHash, &bucketJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}

	if parentHash.Valid {
		node.ParentHash = &parentHash.String
	}

	if err := json.Unmarshal([]byte(bucketJSON), &node.Bucket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bucket: %w", err)
	}

	node.CreatedAt = time.Unix(0, createdAt).UTC()

	return &node, nil
}

var _ storage.Driver = (*Driver)(nil)
