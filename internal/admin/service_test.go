package admin

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewService(conn, testSecret), mock
}

func adminRow(t *testing.T, username, password string, permissions []string, active bool) *sqlmock.Rows {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"username", "password", "display_name", "permissions", "active"}).
		AddRow(username, string(hashed), username, pq.Array(permissions), active)
}

func expectAccount(mock sqlmock.Sqlmock, username string, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT username, password, display_name, permissions, active`).
		WithArgs(username).
		WillReturnRows(rows)
}

func TestLoginAndVerify(t *testing.T) {
	svc, mock := newTestService(t)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", []string{}, true))
	token, err := svc.Login("marshal", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", []string{}, true))
	id, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "marshal", id.Username)
	require.False(t, id.Super)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newTestService(t)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", nil, true))
	_, err := svc.Login("marshal", "wrong")
	require.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestLoginUnknownAccount(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT username, password, display_name, permissions, active`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password", "display_name", "permissions", "active"}))
	_, err := svc.Login("ghost", "hunter2")
	require.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, mock := newTestService(t)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", nil, false))
	_, err := svc.Login("marshal", "hunter2")
	require.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestVerifyTokenSuperadmin(t *testing.T) {
	svc, mock := newTestService(t)

	expectAccount(mock, "root", adminRow(t, "root", "toor", []string{PermSuperadmin}, true))
	token, err := svc.Login("root", "toor")
	require.NoError(t, err)

	expectAccount(mock, "root", adminRow(t, "root", "toor", []string{PermSuperadmin}, true))
	id, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.True(t, id.Super)
}

func TestVerifyTokenDeactivatedAfterIssue(t *testing.T) {
	svc, mock := newTestService(t)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", nil, true))
	token, err := svc.Login("marshal", "hunter2")
	require.NoError(t, err)

	expectAccount(mock, "marshal", adminRow(t, "marshal", "hunter2", nil, false))
	_, err = svc.VerifyToken(token)
	require.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.VerifyToken("not-a-token")
	require.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestRegister(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec(`INSERT INTO admins`).
		WithArgs("newbie", sqlmock.AnyArg(), "Newbie", pq.Array([]string{})).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, svc.Register("newbie", "secret", "Newbie", nil))

	err := svc.Register("", "secret", "", nil)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec(`INSERT INTO admins`).
		WillReturnError(&pq.Error{Code: "23505"})
	err := svc.Register("marshal", "secret", "", nil)
	require.True(t, apperr.Is(err, apperr.KindConflict))
}
