package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "jobboard/internal/db"
	"jobboard/internal/domain"
)

type repos struct {
	users    *UserRepo
	profiles *ProfileRepo
	subs     *SubscriptionRepo
	anon     *ProfileRepo
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	admin, anon := internaldb.OpenTestSQLite(t)
	return repos{
		users:    NewUserRepo(admin.DB),
		profiles: NewProfileRepo(admin.DB),
		subs:     NewSubscriptionRepo(admin.DB),
		anon:     NewProfileRepo(anon.DB),
	}
}

func TestProfileRepo_CRUD(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	p, err := r.users.Create(ctx, "user-1", "alice@example.com", domain.RoleCandidate)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, domain.RoleCandidate, p.Role)
	assert.False(t, p.UpdatedAt.IsZero())

	role, err := r.profiles.GetRole(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCandidate, role)

	require.NoError(t, r.profiles.SetRole(ctx, "user-1", domain.RoleAdmin))

	// The anonymous pool sees the committed change immediately.
	role, err = r.anon.GetRole(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	_, err = r.users.Create(ctx, "user-2", "bob@example.com", domain.RoleFree)
	require.NoError(t, err)

	list, total, err := r.profiles.List(ctx, domain.PageRequest{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, "alice@example.com", list[0].Email)
}

func TestProfileRepo_NotFound(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	_, err := r.profiles.GetRole(ctx, "ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	err = r.profiles.SetRole(ctx, "ghost", domain.RoleAdmin)
	require.ErrorAs(t, err, &nf)

	err = r.users.Delete(ctx, "ghost")
	require.ErrorAs(t, err, &nf)
}

func TestProfileRepo_NullRole(t *testing.T) {
	admin, _ := internaldb.OpenTestSQLite(t)
	ctx := context.Background()

	_, err := admin.ExecContext(ctx, `INSERT INTO users (id, email) VALUES ($1, $2)`, "u", "u@example.com")
	require.NoError(t, err)
	_, err = admin.ExecContext(ctx, `INSERT INTO profiles (id, email, role) VALUES ($1, $2, NULL)`, "u", "u@example.com")
	require.NoError(t, err)

	role, err := NewProfileRepo(admin.DB).GetRole(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, domain.Role(""), role)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	_, err := r.users.Create(ctx, "a", "same@example.com", domain.RoleFree)
	require.NoError(t, err)
	_, err = r.users.Create(ctx, "b", "same@example.com", domain.RoleFree)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

// Deleting a user through the admin pool removes its profile and
// subscriptions.
func TestUserRepo_DeleteCascades(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	_, err := r.users.Create(ctx, "user-1", "alice@example.com", domain.RolePro)
	require.NoError(t, err)
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.subs.Upsert(ctx, &domain.Subscription{
		UserID:               "user-1",
		PlanID:               "price_pro",
		Status:               "active",
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		CurrentPeriodEnd:     &end,
	}))

	require.NoError(t, r.users.Delete(ctx, "user-1"))

	_, err = r.profiles.Get(ctx, "user-1")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	subs, err := r.subs.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = r.subs.GetByStripeID(ctx, "sub_1")
	require.ErrorAs(t, err, &nf)
}

func TestSubscriptionRepo_Upsert(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	_, err := r.users.Create(ctx, "user-1", "alice@example.com", domain.RoleFree)
	require.NoError(t, err)

	s := &domain.Subscription{
		UserID: "user-1", PlanID: "price_pro", Status: "trialing",
		StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1",
	}
	require.NoError(t, r.subs.Upsert(ctx, s))
	assert.NotEmpty(t, s.ID)

	require.NoError(t, r.subs.Upsert(ctx, &domain.Subscription{
		UserID: "user-1", PlanID: "price_pro", Status: "canceled",
		StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1",
	}))

	got, err := r.subs.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "canceled", got.Status)
	assert.Nil(t, got.CurrentPeriodEnd)

	uid, err := r.subs.UserIDByCustomer(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	_, err = r.subs.UserIDByCustomer(ctx, "cus_unknown")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSubscriptionRepo_UnknownUser(t *testing.T) {
	r := setupRepos(t)
	err := r.subs.Upsert(context.Background(), &domain.Subscription{
		UserID: "nobody", Status: "active", StripeSubscriptionID: "sub_x",
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestProfileRepo_StoreErrorPassesThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset by peer")
	mock.ExpectQuery(`SELECT role FROM profiles WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnError(boom)

	_, err = NewProfileRepo(db).GetRole(context.Background(), "user-1")
	require.ErrorIs(t, err, boom)
	var nf *domain.NotFoundError
	assert.False(t, errors.As(err, &nf))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_GetRoleReadsEveryCall(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT role FROM profiles`).WithArgs("u").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("pro"))
	mock.ExpectQuery(`SELECT role FROM profiles`).WithArgs("u").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("free"))

	repo := NewProfileRepo(db)
	first, err := repo.GetRole(context.Background(), "u")
	require.NoError(t, err)
	second, err := repo.GetRole(context.Background(), "u")
	require.NoError(t, err)

	assert.Equal(t, domain.RolePro, first)
	assert.Equal(t, domain.RoleFree, second)
	require.NoError(t, mock.ExpectationsWereMet())
}
