package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/avatars"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type avatarFixture struct {
	svc   *AvatarService
	mock  sqlmock.Sqlmock
	rm    *repomanager.MemoryRepositoryManager
	store *avatars.FileStore
}

func newAvatarFixture(t *testing.T) *avatarFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := repomanager.NewMemoryRepositoryManager()
	store, err := avatars.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = rm.Users(nil).Create(context.Background(), &models.User{UserName: "alice", PasswordHash: []byte("h")})
	require.NoError(t, err)

	return &avatarFixture{
		svc:   NewAvatarService(db, rm, store, logging.Nop()),
		mock:  mock,
		rm:    rm,
		store: store,
	}
}

func (f *avatarFixture) exists(key string) bool {
	_, err := os.Stat(filepath.Join(f.store.Root(), filepath.FromSlash(key)))
	return err == nil
}

func (f *avatarFixture) recorded(t *testing.T) string {
	t.Helper()
	u, err := f.rm.Users(nil).GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	return u.AvatarPath
}

func TestUpload_ReplacesPreviousAvatar(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	key, err := f.svc.Upload(ctx, "alice", "x.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "alice/alice.png", key)
	assert.Equal(t, "alice/alice.png", f.recorded(t))
	assert.True(t, f.exists("alice/alice.png"))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	key, err = f.svc.Upload(ctx, "alice", "y.JPG", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "alice/alice.jpg", key)
	assert.Equal(t, "alice/alice.jpg", f.recorded(t))
	assert.True(t, f.exists("alice/alice.jpg"))
	assert.False(t, f.exists("alice/alice.png"), "previous avatar must be removed")

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_SameExtensionOverwrites(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		_, err := f.svc.Upload(ctx, "alice", "a.gif", strings.NewReader(body))
		require.NoError(t, err)
	}

	a, err := f.svc.Get(ctx, "alice")
	require.NoError(t, err)
	defer a.Body.Close()
	b, _ := io.ReadAll(a.Body)
	assert.Equal(t, "second", string(b))
}

// saveHookStore runs hook once, right after the first Save of hookKey.
type saveHookStore struct {
	avatars.Store
	hookKey string
	once    sync.Once
	hook    func()
}

func (s *saveHookStore) Save(ctx context.Context, key string, r io.Reader) error {
	if err := s.Store.Save(ctx, key, r); err != nil {
		return err
	}
	if key == s.hookKey {
		s.once.Do(s.hook)
	}
	return nil
}

func TestUpload_OverlappingUploadsKeepOneFile(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Upload(ctx, "alice", "old.png", strings.NewReader("old"))
	require.NoError(t, err)

	// A second upload starts while the first is between writing its file
	// and committing. It must not get to run until the first is done.
	var (
		secondErr  error
		secondDone = make(chan struct{})
	)
	hooked := &saveHookStore{Store: f.store, hookKey: "alice/alice.png"}
	hooked.hook = func() {
		go func() {
			defer close(secondDone)
			_, secondErr = f.svc.Upload(ctx, "alice", "new.jpg", strings.NewReader("jpg"))
		}()
		select {
		case <-secondDone:
		case <-time.After(100 * time.Millisecond):
		}
	}
	f.svc.store = hooked

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err = f.svc.Upload(ctx, "alice", "again.png", strings.NewReader("png"))
	require.NoError(t, err)
	<-secondDone
	require.NoError(t, secondErr)

	assert.Equal(t, "alice/alice.jpg", f.recorded(t))
	assert.True(t, f.exists("alice/alice.jpg"))
	assert.False(t, f.exists("alice/alice.png"))

	a, err := f.svc.Get(ctx, "alice")
	require.NoError(t, err)
	b, _ := io.ReadAll(a.Body)
	_ = a.Body.Close()
	assert.Equal(t, "jpg", string(b))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_SaveFailureLeavesRecordUntouched(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Upload(ctx, "alice", "x.png", strings.NewReader("png"))
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Upload(ctx, "alice", "y.gif", iotest.ErrReader(errors.New("client went away")))
	require.Error(t, err)

	assert.Equal(t, "alice/alice.png", f.recorded(t))
	assert.True(t, f.exists("alice/alice.png"))
	assert.False(t, f.exists("alice/alice.gif"))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_CanceledWhileWaiting(t *testing.T) {
	f := newAvatarFixture(t)

	unlock, err := f.svc.locks.lock(context.Background(), "alice")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.Upload(ctx, "alice", "x.png", strings.NewReader("png"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.exists("alice/alice.png"))
}

func TestUpload_RejectsExtension(t *testing.T) {
	f := newAvatarFixture(t)

	for _, name := range []string{"x.exe", "x", "x.png.exe", "x."} {
		_, err := f.svc.Upload(context.Background(), "alice", name, strings.NewReader("data"))
		require.ErrorIs(t, err, common.ErrorValidation, name)
	}
	assert.Empty(t, f.recorded(t))
	assert.False(t, f.exists("alice"))
}

func TestUpload_UnknownUser(t *testing.T) {
	f := newAvatarFixture(t)

	_, err := f.svc.Upload(context.Background(), "ghost", "x.png", strings.NewReader("png"))
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, "User not found in the database", detailOf(t, err))
	assert.False(t, f.exists("ghost/ghost.png"))
}

func TestUpload_BeginFailureWritesNothing(t *testing.T) {
	f := newAvatarFixture(t)

	f.mock.ExpectBegin().WillReturnError(errors.New("begin failed"))
	_, err := f.svc.Upload(context.Background(), "alice", "x.png", strings.NewReader("png"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound))

	assert.False(t, f.exists("alice/alice.png"))
	assert.Empty(t, f.recorded(t))
}

func TestUpload_TxFailureKeepsRecordedFile(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Upload(ctx, "alice", "x.png", strings.NewReader("png"))
	require.NoError(t, err)

	f.mock.ExpectBegin().WillReturnError(errors.New("begin failed"))
	_, err = f.svc.Upload(ctx, "alice", "y.png", strings.NewReader("png2"))
	require.Error(t, err)

	assert.True(t, f.exists("alice/alice.png"), "recorded avatar must survive")
	assert.Equal(t, "alice/alice.png", f.recorded(t))
}

// setFailsRepoManager serves the in-memory users but refuses to record avatars.
type setFailsRepoManager struct {
	*repomanager.MemoryRepositoryManager
}

type setFailsRepo struct {
	users.Repository
}

func (setFailsRepo) SetAvatarPath(context.Context, string, string) error { return errDB }

func (m setFailsRepoManager) Users(db dbx.DBTX) users.Repository {
	return setFailsRepo{m.MemoryRepositoryManager.Users(db)}
}

func TestUpload_RecordFailureRemovesNewFile(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Upload(ctx, "alice", "x.png", strings.NewReader("png"))
	require.NoError(t, err)

	f.svc.repomanager = setFailsRepoManager{f.rm}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Upload(ctx, "alice", "y.jpg", strings.NewReader("jpg"))
	require.ErrorIs(t, err, errDB)

	assert.False(t, f.exists("alice/alice.jpg"), "unrecorded file must be removed")
	assert.True(t, f.exists("alice/alice.png"))
	assert.Equal(t, "alice/alice.png", f.recorded(t))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpload_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	store, err := avatars.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewAvatarService(db, brokenRepoManager{}, store, logging.Nop())

	_, err = svc.Upload(context.Background(), "alice", "x.png", strings.NewReader("png"))
	assert.ErrorIs(t, err, errDB)
}

func TestGet(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, "Avatar not found for the user", detailOf(t, err))

	_, err = f.svc.Get(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err = f.svc.Upload(ctx, "alice", "me.png", strings.NewReader("PNG"))
	require.NoError(t, err)

	a, err := f.svc.Get(ctx, "alice")
	require.NoError(t, err)
	b, _ := io.ReadAll(a.Body)
	_ = a.Body.Close()
	assert.Equal(t, "PNG", string(b))
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, "alice/alice.png", a.Key)
}

func TestGet_StoredFileMissing(t *testing.T) {
	f := newAvatarFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Upload(ctx, "alice", "me.png", strings.NewReader("PNG"))
	require.NoError(t, err)
	require.NoError(t, f.store.Remove(ctx, "alice/alice.png"))

	_, err = f.svc.Get(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
