package session

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *GormStore {
	sealer, err := NewSealer([]byte("test-session-secret"))
	require.NoError(t, err)
	return &GormStore{DB: InitTestDB(t), Sealer: sealer}
}

func TestGormStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	assert.False(t, store.IsActive(ctx, "sid-1"))

	user := models.User{ID: 1, Email: "admin@example.com", Name: "Admin"}
	require.NoError(t, store.Save(ctx, "sid-1", Session{Token: "tok-1", User: user}))

	assert.True(t, store.IsActive(ctx, "sid-1"))
	token, err := store.CurrentToken(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	got, err := store.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, user, *got)

	assert.False(t, store.IsActive(ctx, "sid-2"))
}

func TestGormStore_TokenIsEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, "sid", Session{Token: "plain-token"}))

	var e Entry
	require.NoError(t, store.DB.Where("session_id = ? AND entry_key = ?", "sid", KeyToken).First(&e).Error)
	assert.NotContains(t, e.Value, "plain-token")
}

func TestGormStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Save(ctx, "sid", Session{Token: "old", User: models.User{ID: 1}}))
	require.NoError(t, store.Save(ctx, "sid", Session{Token: "new", User: models.User{ID: 2}}))

	token, err := store.CurrentToken(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "new", token)

	var count int64
	require.NoError(t, store.DB.Model(&Entry{}).Where("session_id = ?", "sid").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGormStore_ClearRemovesTokenAndUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Save(ctx, "sid", Session{Token: "tok", User: models.User{ID: 1}}))
	require.NoError(t, store.Save(ctx, "other", Session{Token: "tok2"}))
	require.NoError(t, store.Clear(ctx, "sid"))

	assert.False(t, store.IsActive(ctx, "sid"))
	_, err := store.CurrentToken(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = store.CurrentUser(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)

	assert.True(t, store.IsActive(ctx, "other"))

	require.NoError(t, store.Clear(ctx, "never-existed"))
}

func TestGormStore_EmptyTokenIsInactive(t *testing.T) {
	ctx := context.Background()
	store := &GormStore{DB: InitTestDB(t)}

	require.NoError(t, store.Save(ctx, "sid", Session{Token: ""}))
	assert.False(t, store.IsActive(ctx, "sid"))
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p := Provider{Store: store, SessionID: "sid"}
	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "sid", Session{Token: "tok"}))
	token, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, p.Clear(ctx))
	assert.False(t, store.IsActive(ctx, "sid"))

	empty := Provider{Store: store}
	token, err = empty.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	require.NoError(t, empty.Clear(ctx))
}

func TestProvider_UnreadableTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, "sid", Session{Token: "tok", User: models.User{ID: 1}}))

	rotated, err := NewSealer([]byte("another-session-secret"))
	require.NoError(t, err)
	after := &GormStore{DB: store.DB, Sealer: rotated}

	_, err = after.CurrentToken(ctx, "sid")
	require.ErrorIs(t, err, ErrSealed)

	token, err := Provider{Store: after, SessionID: "sid"}.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = after.CurrentUser(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, store.IsActive(ctx, "sid"))
}
