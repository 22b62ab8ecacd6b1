package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWorkCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	postID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT category_id FROM post_categories WHERE post_id = \$1`).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
	mock.ExpectCommit()

	err = NewUnitOfWork(db).Do(context.Background(), func(s *Stores) error {
		ids, err := s.PostCategories.IDs(context.Background(), postID)
		assert.Empty(t, ids)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewUnitOfWork(db).Do(context.Background(), func(*Stores) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationAddIgnoresExistingPairs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	postID, a, b := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO post_tags \(post_id, tag_id\).*VALUES \(\$2::uuid\), \(\$3::uuid\).*ON CONFLICT DO NOTHING`).
		WithArgs(postID, a, b).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, NewPostTagStore(db).Add(context.Background(), postID, []uuid.UUID{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationEmptyInputIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostCategoryStore(db)
	require.NoError(t, s.Add(context.Background(), uuid.New(), nil))
	require.NoError(t, s.Remove(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
