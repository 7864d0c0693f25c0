package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-notes/internal/models"
)

func TestUserWriteRepository_Save(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	repo := NewUserWriteRepository(db, nil)
	ctx := context.Background()

	id, err := repo.Save(ctx, "alice", "alice@example.com", "hash123")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	var user models.UserDB
	err = db.Get(&user, "SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id=$1", id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "hash123", user.PasswordHash)

	_, err = repo.Save(ctx, "alice", "other@example.com", "hash")
	assert.ErrorIs(t, err, ErrDuplicateEntry, "duplicate username")

	_, err = repo.Save(ctx, "alice2", "alice@example.com", "hash")
	assert.ErrorIs(t, err, ErrDuplicateEntry, "duplicate email")
}

func TestUserReadRepository_Lookups(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	writeRepo := NewUserWriteRepository(db, nil)
	readRepo := NewUserReadRepository(db, nil)
	ctx := context.Background()

	charlieID, err := writeRepo.Save(ctx, "charlie", "charlie@example.com", "secret")
	require.NoError(t, err)
	_, err = writeRepo.Save(ctx, "dave", "dave@example.com", "secret2")
	require.NoError(t, err)

	t.Run("ByUsername", func(t *testing.T) {
		user, err := readRepo.GetByUsernameOrEmail(ctx, "charlie")
		require.NoError(t, err)
		assert.Equal(t, charlieID, user.ID)
	})

	t.Run("ByEmail", func(t *testing.T) {
		user, err := readRepo.GetByUsernameOrEmail(ctx, "Dave@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "dave", user.Username)
	})

	t.Run("ByID", func(t *testing.T) {
		user, err := readRepo.GetByID(ctx, charlieID)
		require.NoError(t, err)
		assert.Equal(t, "charlie", user.Username)
	})

	t.Run("NotFound", func(t *testing.T) {
		user, err := readRepo.GetByUsernameOrEmail(ctx, "nonexistent")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, user)
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := readRepo.ExistsByUsername(ctx, "charlie")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = readRepo.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestUserWriteRepository_DeleteCascadesNotes(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	users := NewUserWriteRepository(db, nil)
	notesWrite := NewNoteWriteRepository(db, nil)
	notesRead := NewNoteReadRepository(db, nil)
	ctx := context.Background()

	id, err := users.Save(ctx, "erin", "erin@example.com", "h")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, notesWrite.Create(ctx, &models.NoteDB{UserID: id, Title: "t"}))
	}

	require.NoError(t, users.Delete(ctx, id))

	total, err := notesRead.Count(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	assert.ErrorIs(t, users.Delete(ctx, id), ErrNotFound)
}

func TestUserWriteRepository_Save_MapsUniqueViolation(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db := sqlx.NewDb(sqlDB, "sqlmock")

	repo := NewUserWriteRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("bob", "bob@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Save(context.Background(), "bob", "bob@example.com", "hash")
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("connection reset"))

	_, err = repo.Save(context.Background(), "bob", "bob@example.com", "hash")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserReadRepository_UsesRequestTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db := sqlx.NewDb(sqlDB, "sqlmock")

	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	called := false
	repo := NewUserReadRepository(db, func(ctx context.Context) *sqlx.Tx {
		called = true
		return tx
	})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("frank").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsername(context.Background(), "frank")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
