package playlist

import (
	"context"
	"testing"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memPlaylistRepo is a map-backed playlist store.
type memPlaylistRepo struct {
	lists map[id.ID]*Playlist
	songs map[id.ID][]id.ID
}

func newMemPlaylistRepo() *memPlaylistRepo {
	return &memPlaylistRepo{
		lists: make(map[id.ID]*Playlist),
		songs: make(map[id.ID][]id.ID),
	}
}

func (r *memPlaylistRepo) Create(ctx context.Context, p *Playlist) error {
	r.lists[p.ID] = p
	return nil
}

func (r *memPlaylistRepo) GetByID(ctx context.Context, listID id.ID) (*Playlist, error) {
	p, ok := r.lists[listID]
	if !ok {
		return nil, apperror.NewNotFound("playlist", listID.String())
	}
	return p, nil
}

func (r *memPlaylistRepo) GetBySlug(ctx context.Context, slug string) (*Playlist, error) {
	for _, p := range r.lists {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("playlist", slug)
}

func (r *memPlaylistRepo) Update(ctx context.Context, p *Playlist) error {
	r.lists[p.ID] = p
	return nil
}

func (r *memPlaylistRepo) Delete(ctx context.Context, listID id.ID) error {
	delete(r.lists, listID)
	return nil
}

func (r *memPlaylistRepo) SetDeletionMark(ctx context.Context, listID id.ID, marked bool) error {
	p, ok := r.lists[listID]
	if !ok {
		return apperror.NewNotFound("playlist", listID.String())
	}
	p.DeletionMark = marked
	return nil
}

func (r *memPlaylistRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Playlist], error) {
	return domain.ListResult[*Playlist]{}, nil
}

func (r *memPlaylistRepo) Exists(ctx context.Context, listID id.ID) (bool, error) {
	_, ok := r.lists[listID]
	return ok, nil
}

func (r *memPlaylistRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (r *memPlaylistRepo) ReplaceSongs(ctx context.Context, listID id.ID, songIDs []id.ID) error {
	r.songs[listID] = append([]id.ID(nil), songIDs...)
	return nil
}

func (r *memPlaylistRepo) LoadSongs(ctx context.Context, listID id.ID) ([]id.ID, error) {
	return r.songs[listID], nil
}

// staticSongs reports a fixed song id set as existing.
type staticSongs map[id.ID]bool

func (r staticSongs) Exists(ctx context.Context, songID id.ID) (bool, error) {
	return r[songID], nil
}

func TestCreateWithSongs_UnknownSongIsInvalidReference(t *testing.T) {
	ctx := context.Background()
	known := id.New()
	unknown := id.New()

	repo := newMemPlaylistRepo()
	svc := NewService(repo, staticSongs{known: true}, nopTxManager{})

	list := New("Mix", "mix", []id.ID{known, unknown})
	err := svc.CreateWithSongs(ctx, list)
	if !apperror.HasCode(err, apperror.CodeInvalidReference) {
		t.Fatalf("err = %v, want CodeInvalidReference", err)
	}
	if len(repo.lists) != 0 {
		t.Error("playlist persisted despite invalid reference")
	}
}

func TestCreateWithSongs_StoresOrderedList(t *testing.T) {
	ctx := context.Background()
	first := id.New()
	second := id.New()

	repo := newMemPlaylistRepo()
	svc := NewService(repo, staticSongs{first: true, second: true}, nopTxManager{})

	list := New("Mix", "mix", []id.ID{second, first})
	if err := svc.CreateWithSongs(ctx, list); err != nil {
		t.Fatalf("CreateWithSongs: %v", err)
	}

	stored, _ := repo.LoadSongs(ctx, list.ID)
	if len(stored) != 2 || stored[0] != second || stored[1] != first {
		t.Errorf("stored order %v, want [%s %s]", stored, second, first)
	}
}

func TestReplaceSongs_UnknownPlaylistIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemPlaylistRepo(), staticSongs{}, nopTxManager{})

	err := svc.ReplaceSongs(ctx, id.New(), nil)
	if !apperror.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestGetWithSongs_LoadsOrderedList(t *testing.T) {
	ctx := context.Background()
	songID := id.New()

	repo := newMemPlaylistRepo()
	svc := NewService(repo, staticSongs{songID: true}, nopTxManager{})

	list := New("Mix", "mix", []id.ID{songID})
	if err := svc.CreateWithSongs(ctx, list); err != nil {
		t.Fatalf("CreateWithSongs: %v", err)
	}

	got, err := svc.GetWithSongs(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetWithSongs: %v", err)
	}
	if len(got.SongIDs) != 1 || got.SongIDs[0] != songID {
		t.Errorf("song ids %v, want [%s]", got.SongIDs, songID)
	}
}
