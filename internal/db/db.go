package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"legal-ai/internal/config"
)

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a pooled connection to Postgres using either the bun
// pgdriver (default) or lib/pq, and checks it within the connect timeout.
func ConnectDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	var sqldb *sql.DB
	switch cfg.Driver {
	case "pq":
		connector, err := pq.NewConnector(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database url: %w", err)
		}
		sqldb = sql.OpenDB(connector)
	default:
		sqldb = sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.URL),
			pgdriver.WithDialTimeout(cfg.ConnectTimeout),
		))
	}
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetMaxOpenConns(cfg.MaxIdleConns + cfg.MaxOverflow)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqldb, nil
}

// InitDB creates the tables if they do not exist yet.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*Conversation)(nil)).IfNotExists().
		ForeignKey(`("usuario_id") REFERENCES "usuarios" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*Message)(nil)).IfNotExists().
		ForeignKey(`("conversa_id") REFERENCES "conversas" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	if _, err := db.NewCreateIndex().Model((*Message)(nil)).IfNotExists().
		Index("idx_mensagens_conversa_id").Column("conversa_id", "criado_em").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}
	return nil
}

// DropTables removes every table, children first.
func DropTables(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*Message)(nil), (*Conversation)(nil), (*Document)(nil), (*User)(nil)} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
