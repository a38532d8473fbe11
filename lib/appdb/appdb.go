// Package appdb persists settings, the user, the tag translator, resolved
// image urls, reading progress and the viewing history in sqlite. A libsql url can be given instead of a local file.
package appdb

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ehclient/lib/gallery"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("ehclient/lib/appdb")

//go:embed schema.sql
var Schema string

type Config struct {
	// File is a local sqlite database, ":memory:" keeps it in memory.
	File string `json:"file" env:"DB_FILE"`
	// URL is a libsql:// (or http(s)://) database url, it takes precedence
	// over File.
	URL string `json:"url" env:"DB_URL"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.URL != "" {
		if !strings.HasPrefix(config.URL, "libsql://") &&
			!strings.HasPrefix(config.URL, "http://") &&
			!strings.HasPrefix(config.URL, "https://") {
			return nil, fmt.Errorf("unsupported database url: %s", config.URL)
		}
		return sql.Open("libsql", config.URL)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if config.File == ":memory:" {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, err
		}
		// every connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
		return db, nil
	}

	dbpath, err := filepath.Abs(config.File)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(dbpath)
	if os.IsNotExist(statErr) {
		err = os.MkdirAll(filepath.Dir(dbpath), 0755)
		if err != nil {
			return nil, err
		}
		f, err := os.Create(dbpath)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, nil
}

type DB struct {
	db *sql.DB
}

// New applies the schema to db.
func New(ctx context.Context, db *sql.DB) (DB, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return DB{}, fmt.Errorf("apply schema: %w", err)
	}
	return DB{db: db}, nil
}

func (d DB) Close() error {
	return d.db.Close()
}

// FetchAppEnv loads everything persisted, missing parts come back as their
// defaults.
func (d DB) FetchAppEnv(ctx context.Context) (gallery.AppEnv, error) {
	ctx, span := tracer.Start(ctx, "appdb:FetchAppEnv")
	defer span.End()

	env := gallery.AppEnv{Setting: gallery.DefaultSetting()}

	var setting, user, translator sql.NullString
	err := d.db.QueryRowContext(
		ctx,
		"select setting, user_info, tag_translator from app_env where id = 1",
	).Scan(&setting, &user, &translator)
	if errors.Is(err, sql.ErrNoRows) {
		return env, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return gallery.AppEnv{}, err
	}

	for _, column := range []struct {
		name  string
		value sql.NullString
		out   any
	}{
		{name: "setting", value: setting, out: &env.Setting},
		{name: "user_info", value: user, out: &env.User},
		{name: "tag_translator", value: translator, out: &env.TagTranslator},
	} {
		if !column.value.Valid || column.value.String == "" {
			continue
		}
		err = json.Unmarshal([]byte(column.value.String), column.out)
		if err != nil {
			slog.WarnContext(ctx, "discarding unreadable column", "column", column.name, "err", err)
		}
	}
	return env, nil
}

func (d DB) updateColumn(ctx context.Context, column string, value any) error {
	ctx, span := tracer.Start(ctx, "appdb:update:"+column)
	defer span.End()

	serialized, err := json.Marshal(value)
	if err != nil {
		return err
	}
	// column is never user input
	_, err = d.db.ExecContext(
		ctx,
		fmt.Sprintf(
			"insert into app_env (id, %[1]s) values (1, ?) on conflict (id) do update set %[1]s = excluded.%[1]s",
			column,
		),
		string(serialized),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update")
	}
	return err
}

func (d DB) UpdateSetting(ctx context.Context, setting gallery.Setting) error {
	return d.updateColumn(ctx, "setting", setting)
}

func (d DB) UpdateUser(ctx context.Context, user gallery.User) error {
	return d.updateColumn(ctx, "user_info", user)
}

func (d DB) UpdateTagTranslator(ctx context.Context, translator gallery.TagTranslator) error {
	return d.updateColumn(ctx, "tag_translator", translator)
}

// SaveImageURLs records the resolved image urls of gallery gid.
func (d DB) SaveImageURLs(ctx context.Context, gid string, contents []gallery.GalleryContent) error {
	ctx, span := tracer.Start(ctx, "appdb:SaveImageURLs")
	defer span.End()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, content := range contents {
		_, err = tx.ExecContext(
			ctx,
			"insert into image_url (gid, page, url) values (?, ?, ?) on conflict (gid, page) do update set url = excluded.url",
			gid, content.Tag, content.URL,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save")
			return err
		}
	}
	return tx.Commit()
}

// ImageURLs returns the stored image urls of gid ordered by page.
func (d DB) ImageURLs(ctx context.Context, gid string) ([]gallery.GalleryContent, error) {
	rows, err := d.db.QueryContext(ctx, "select page, url from image_url where gid = ? order by page", gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gallery.GalleryContent
	for rows.Next() {
		var content gallery.GalleryContent
		err = rows.Scan(&content.Tag, &content.URL)
		if err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, rows.Err()
}

func (d DB) RemoveImageURLs(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "delete from image_url")
	return err
}

func (d DB) SaveReadingProgress(ctx context.Context, gid string, page int) error {
	ctx, span := tracer.Start(ctx, "appdb:SaveReadingProgress")
	defer span.End()

	_, err := d.db.ExecContext(
		ctx,
		"insert into reading_progress (gid, page) values (?, ?) on conflict (gid) do update set page = excluded.page",
		gid, page,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save")
	}
	return err
}

// ReadingProgress is the last page read of gid, 0 when it was never read.
func (d DB) ReadingProgress(ctx context.Context, gid string) (int, error) {
	var page int
	err := d.db.QueryRowContext(ctx, "select page from reading_progress where gid = ?", gid).Scan(&page)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return page, err
}

// UpdateHistoryItem records g as opened at openedAt.
func (d DB) UpdateHistoryItem(ctx context.Context, g gallery.Gallery, openedAt time.Time) error {
	ctx, span := tracer.Start(ctx, "appdb:UpdateHistoryItem")
	defer span.End()

	serialized, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(
		ctx,
		`insert into history_item (gid, gallery, last_open_time) values (?, ?, ?)
		on conflict (gid) do update set gallery = excluded.gallery, last_open_time = excluded.last_open_time`,
		g.GID, string(serialized), openedAt.UnixMilli(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update")
	}
	return err
}

// HistoryItems lists the opened galleries, most recently opened first.
func (d DB) HistoryItems(ctx context.Context) ([]gallery.HistoryItem, error) {
	ctx, span := tracer.Start(ctx, "appdb:HistoryItems")
	defer span.End()

	rows, err := d.db.QueryContext(ctx, `
		select h.gallery, h.last_open_time, coalesce(p.page, 0)
		from history_item h
		left join reading_progress p on p.gid = h.gid
		order by h.last_open_time desc`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return nil, err
	}
	defer rows.Close()

	out := []gallery.HistoryItem{}
	for rows.Next() {
		var serialized string
		var openedAt int64
		var item gallery.HistoryItem
		err = rows.Scan(&serialized, &openedAt, &item.ReadingProgress)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal([]byte(serialized), &item.Gallery)
		if err != nil {
			slog.WarnContext(ctx, "discarding unreadable history item", "err", err)
			continue
		}
		item.LastOpenTime = time.UnixMilli(openedAt)
		out = append(out, item)
	}
	return out, rows.Err()
}

// ClearHistoryItems forgets every opened gallery, reading progress is kept.
func (d DB) ClearHistoryItems(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "delete from history_item")
	return err
}

// UserDefaults is a small key/value store on the same database. Errors are
// logged since callers fire and forget.
type UserDefaults struct {
	db *sql.DB
}

func (d DB) UserDefaults() UserDefaults {
	return UserDefaults{db: d.db}
}

func (u UserDefaults) SetValue(key, value string) {
	_, err := u.db.Exec(
		"insert into user_default (key, value) values (?, ?) on conflict (key) do update set value = excluded.value",
		key, value,
	)
	if err != nil {
		slog.Warn("failed to set user default", "key", key, "err", err)
	}
}

func (u UserDefaults) Value(key string) (string, bool) {
	var value string
	err := u.db.QueryRow("select value from user_default where key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.Warn("failed to read user default", "key", key, "err", err)
		return "", false
	}
	return value, true
}
