package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/user-auth-service/internal/core/domain"
)

var userColumns = []string{"id", "username", "password_hash", "first_name", "last_name", "dob", "created_at", "updated_at", "roles"}

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func sampleUser() *domain.User {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           "7f0c2f4e-1b7e-4c61-9d3a-0a4f8c1e2b3d",
		Username:     "alice1",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		Roles:        domain.NewRoles(domain.RoleUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Username, user.PasswordHash, user.FirstName, user.LastName, pgxmock.AnyArg(), user.CreatedAt, user.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs(user.ID, []string{domain.RoleUser}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.ID)
	assert.Equal(t, domain.Roles{domain.RoleUser}, created.Roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_NoRoles(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()
	user.Roles = domain.NewRoles()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_RolesFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), sampleUser())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUserExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(userColumns).AddRow(
		user.ID, user.Username, user.PasswordHash, user.FirstName, "", pgtype.Date{Time: dob, Valid: true},
		user.CreatedAt, user.UpdatedAt, []string{domain.RoleUser, domain.RoleAdmin},
	)
	mock.ExpectQuery("FROM users u").WithArgs("alice1").WillReturnRows(rows)

	found, err := repo.FindByUsername(context.Background(), "alice1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, domain.Roles{domain.RoleAdmin, domain.RoleUser}, found.Roles)
	require.NotNil(t, found.DOB)
	assert.True(t, found.DOB.Equal(dob))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM users u").WithArgs("ghost").WillReturnRows(pgxmock.NewRows(userColumns))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NoRolesNoDOB(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	rows := pgxmock.NewRows(userColumns).AddRow(
		user.ID, user.Username, user.PasswordHash, "", "", nil,
		user.CreatedAt, user.UpdatedAt, []string{},
	)
	mock.ExpectQuery("FROM users u").WithArgs(user.ID).WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, found.DOB)
	assert.NotNil(t, found.Roles)
	assert.Empty(t, found.Roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_UsesPrimaryKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	rows := pgxmock.NewRows(userColumns).AddRow(
		user.ID, user.Username, user.PasswordHash, "", "", nil,
		user.CreatedAt, user.UpdatedAt, []string{domain.RoleUser},
	)
	mock.ExpectQuery(`WHERE u\.id = \$1::uuid`).WithArgs(user.ID).WillReturnRows(rows)

	_, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotAUUID(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(userColumns).
		AddRow("id-1", "alice1", "h1", "", "", nil, now, now, []string{domain.RoleUser}).
		AddRow("id-2", "bob1", "h2", "", "", nil, now, now, []string{domain.RoleAdmin})
	mock.ExpectQuery("ORDER BY u.username").WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice1", users[0].Username)
	assert.True(t, users[1].Roles.Has(domain.RoleAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()
	user.Roles = domain.NewRoles(domain.RoleAdmin, domain.RoleUser)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WithArgs(user.ID, user.PasswordHash, user.FirstName, user.LastName, pgxmock.AnyArg(), user.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM user_roles").WithArgs(user.ID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs(user.ID, []string{domain.RoleAdmin, domain.RoleUser}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user.Roles, updated.Roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), sampleUser())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Ping(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectPing()
	assert.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
