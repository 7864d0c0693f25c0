package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-notes/internal/models"
)

var noteColumns = []string{
	"id",
	"user_id",
	"title",
	"COALESCE(content, '') AS content",
	"image_filename",
	"created_at",
	"updated_at",
}

// noteFilter scopes every note query to its owner. Search is a case-sensitive
// substring match on title or content; strpos keeps % and _ literal.
func noteFilter(userID int64, search string) squirrel.And {
	filter := squirrel.And{squirrel.Eq{"user_id": userID}}
	if search != "" {
		filter = append(filter, squirrel.Or{
			squirrel.Expr("strpos(title, ?) > 0", search),
			squirrel.Expr("strpos(COALESCE(content, ''), ?) > 0", search),
		})
	}
	return filter
}

// NoteReadRepository handles note read operations
type NoteReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewNoteReadRepository(db *sqlx.DB, txGetter TxGetter) *NoteReadRepository {
	return &NoteReadRepository{db: db, txGetter: txGetter}
}

// List returns one window of the user's notes, most recently updated first.
func (r *NoteReadRepository) List(ctx context.Context, userID int64, search string, limit, offset int) ([]models.NoteDB, error) {
	query, args, err := squirrel.
		Select(noteColumns...).
		From("notes").
		Where(noteFilter(userID, search)).
		OrderBy("updated_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	notes := make([]models.NoteDB, 0, limit)
	err = sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &notes, query, args...)

	logQuery(ctx, query, args, len(notes), err)

	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Count returns how many notes match the same filter as List.
func (r *NoteReadRepository) Count(ctx context.Context, userID int64, search string) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("notes").
		Where(noteFilter(userID, search)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var total int
	err = sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &total, query, args...)

	logQuery(ctx, query, args, total, err)

	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return total, nil
}

// Get returns the note only when it belongs to userID.
func (r *NoteReadRepository) Get(ctx context.Context, id, userID int64) (*models.NoteDB, error) {
	query, args, err := squirrel.
		Select(noteColumns...).
		From("notes").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var note models.NoteDB
	err = sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &note, query, args...)

	logQuery(ctx, query, args, note.ID, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &note, nil
}

// ListImageFilenames returns the stored image names of all the user's notes.
func (r *NoteReadRepository) ListImageFilenames(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT image_filename
		FROM notes
		WHERE user_id = $1 AND image_filename IS NOT NULL AND image_filename <> ''
	`

	var names []string
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &names, query, userID)

	logQuery(ctx, query, []any{userID}, names, err)

	if err != nil {
		return nil, fmt.Errorf("list note images: %w", err)
	}
	return names, nil
}

// NoteWriteRepository handles note write operations
type NoteWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewNoteWriteRepository(db *sqlx.DB, txGetter TxGetter) *NoteWriteRepository {
	return &NoteWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts the note and fills in its id and timestamps.
func (r *NoteWriteRepository) Create(ctx context.Context, note *models.NoteDB) error {
	const query = `
		INSERT INTO notes (user_id, title, content, image_filename, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	args := []any{note.UserID, note.Title, note.Content, note.ImageFilename}

	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	logQuery(ctx, query, []any{note.UserID, note.Title, note.ImageFilename}, note.ID, err)

	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Update stores title, content and image of a note owned by note.UserID.
func (r *NoteWriteRepository) Update(ctx context.Context, note *models.NoteDB) error {
	const query = `
		UPDATE notes
		SET title = $1, content = $2, image_filename = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING updated_at
	`
	args := []any{note.Title, note.Content, note.ImageFilename, note.ID, note.UserID}

	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&note.UpdatedAt)

	logQuery(ctx, query, []any{note.Title, note.ImageFilename, note.ID, note.UserID}, note.UpdatedAt, err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete removes a note owned by userID.
func (r *NoteWriteRepository) Delete(ctx context.Context, id, userID int64) error {
	const query = `DELETE FROM notes WHERE id = $1 AND user_id = $2`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, id, userID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(ctx, query, []any{id, userID}, rowsAffected, err)

	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
