package song

import (
	"context"
	"sort"
	"testing"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memSongRepo is a map-backed song store.
type memSongRepo struct {
	songs map[id.ID]*Song
}

func newMemSongRepo(songs ...*Song) *memSongRepo {
	m := make(map[id.ID]*Song)
	for _, s := range songs {
		m[s.ID] = s
	}
	return &memSongRepo{songs: m}
}

func (r *memSongRepo) Create(ctx context.Context, s *Song) error {
	r.songs[s.ID] = s
	return nil
}

func (r *memSongRepo) GetByID(ctx context.Context, songID id.ID) (*Song, error) {
	s, ok := r.songs[songID]
	if !ok {
		return nil, apperror.NewNotFound("song", songID.String())
	}
	return s, nil
}

func (r *memSongRepo) GetBySlug(ctx context.Context, slug string) (*Song, error) {
	for _, s := range r.songs {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("song", slug)
}

func (r *memSongRepo) Update(ctx context.Context, s *Song) error {
	if _, ok := r.songs[s.ID]; !ok {
		return apperror.NewNotFound("song", s.ID.String())
	}
	r.songs[s.ID] = s
	return nil
}

func (r *memSongRepo) Delete(ctx context.Context, songID id.ID) error {
	delete(r.songs, songID)
	return nil
}

func (r *memSongRepo) SetDeletionMark(ctx context.Context, songID id.ID, marked bool) error {
	s, ok := r.songs[songID]
	if !ok {
		return apperror.NewNotFound("song", songID.String())
	}
	s.DeletionMark = marked
	return nil
}

func (r *memSongRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Song], error) {
	return domain.ListResult[*Song]{}, nil
}

func (r *memSongRepo) Exists(ctx context.Context, songID id.ID) (bool, error) {
	_, ok := r.songs[songID]
	return ok, nil
}

func (r *memSongRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	for _, s := range r.songs {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSongRepo) MaxPosition(ctx context.Context, singerID id.ID) (int, error) {
	max := 0
	for _, s := range r.songs {
		if s.SingerID == singerID && s.Position > max {
			max = s.Position
		}
	}
	return max, nil
}

func (r *memSongRepo) ListBySinger(ctx context.Context, singerID id.ID) ([]*Song, error) {
	var out []*Song
	for _, s := range r.songs {
		if s.SingerID == singerID && !s.DeletionMark {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memSongRepo) IncrementListen(ctx context.Context, songID id.ID) error {
	s, ok := r.songs[songID]
	if !ok {
		return apperror.NewNotFound("song", songID.String())
	}
	s.ListenCount++
	return nil
}

func (r *memSongRepo) AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error {
	s, ok := r.songs[songID]
	if !ok {
		return apperror.NewNotFound("song", songID.String())
	}
	s.LikeCount += int64(delta)
	if s.LikeCount < 0 {
		s.LikeCount = 0
	}
	return nil
}

func (r *memSongRepo) RenumberBySinger(ctx context.Context, singerID id.ID) (int64, error) {
	list, _ := r.ListBySinger(ctx, singerID)
	var touched int64
	for i, s := range list {
		if s.Position != i+1 {
			s.Position = i + 1
			touched++
		}
	}
	return touched, nil
}

// staticRegistry reports a fixed id set as existing.
type staticRegistry map[id.ID]bool

func (r staticRegistry) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r[entityID], nil
}

func newTestService(repo *memSongRepo, singers, topics staticRegistry) *Service {
	return NewService(repo, topics, singers, nopTxManager{})
}

func TestPublish_AppendsAtNextPosition(t *testing.T) {
	ctx := context.Background()
	singerID := id.New()
	existing := New("First", "first", singerID)
	existing.Position = 3

	repo := newMemSongRepo(existing)
	svc := newTestService(repo, staticRegistry{singerID: true}, staticRegistry{})

	track, err := svc.Publish(ctx, singerID, CreateInput{Name: "Second", Slug: "second"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if track.Position != 4 {
		t.Errorf("position = %d, want 4", track.Position)
	}
}

func TestPublish_UnknownSingerIsInvalidReference(t *testing.T) {
	ctx := context.Background()
	repo := newMemSongRepo()
	svc := newTestService(repo, staticRegistry{}, staticRegistry{})

	_, err := svc.Publish(ctx, id.New(), CreateInput{Name: "Track", Slug: "track"})
	if !apperror.HasCode(err, apperror.CodeInvalidReference) {
		t.Errorf("err = %v, want CodeInvalidReference", err)
	}
}

func TestPublish_UnknownTopicIsInvalidReference(t *testing.T) {
	ctx := context.Background()
	singerID := id.New()
	topicID := id.New()
	repo := newMemSongRepo()
	svc := newTestService(repo, staticRegistry{singerID: true}, staticRegistry{})

	_, err := svc.Publish(ctx, singerID, CreateInput{Name: "Track", Slug: "track", TopicID: &topicID})
	if !apperror.HasCode(err, apperror.CodeInvalidReference) {
		t.Errorf("err = %v, want CodeInvalidReference", err)
	}
}

func TestPublish_NilSingerIsForbidden(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemSongRepo(), staticRegistry{}, staticRegistry{})

	_, err := svc.Publish(ctx, id.Nil(), CreateInput{Name: "Track", Slug: "track"})
	if !apperror.HasCode(err, apperror.CodeForbidden) {
		t.Errorf("err = %v, want CodeForbidden", err)
	}
}

func TestUpdateOwned_RejectsForeignSinger(t *testing.T) {
	ctx := context.Background()
	owner := id.New()
	other := id.New()
	track := New("Track", "track", owner)

	repo := newMemSongRepo(track)
	svc := newTestService(repo, staticRegistry{owner: true, other: true}, staticRegistry{})

	_, err := svc.UpdateOwned(ctx, other, track.ID, CreateInput{Name: "Renamed", Slug: "renamed"})
	if !apperror.HasCode(err, apperror.CodeForbidden) {
		t.Errorf("err = %v, want CodeForbidden", err)
	}
	if got, _ := repo.GetByID(ctx, track.ID); got.Name != "Track" {
		t.Errorf("name changed despite forbidden update: %q", got.Name)
	}
}

func TestDeleteOwned_SoftDeletes(t *testing.T) {
	ctx := context.Background()
	owner := id.New()
	track := New("Track", "track", owner)

	repo := newMemSongRepo(track)
	svc := newTestService(repo, staticRegistry{owner: true}, staticRegistry{})

	if err := svc.DeleteOwned(ctx, owner, track.ID); err != nil {
		t.Fatalf("DeleteOwned: %v", err)
	}
	if got, _ := repo.GetByID(ctx, track.ID); !got.DeletionMark {
		t.Error("song row removed or mark not set, want soft delete")
	}
}

func TestListen_UnknownSongIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemSongRepo(), staticRegistry{}, staticRegistry{})

	err := svc.Listen(ctx, id.New())
	if !apperror.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestNormalizePositions_MakesDenseSequence(t *testing.T) {
	ctx := context.Background()
	singerID := id.New()

	a := New("A", "a", singerID)
	a.Position = 2
	b := New("B", "b", singerID)
	b.Position = 5
	c := New("C", "c", singerID)
	c.Position = 9

	repo := newMemSongRepo(a, b, c)
	svc := newTestService(repo, staticRegistry{singerID: true}, staticRegistry{})

	touched, err := svc.NormalizePositions(ctx, singerID)
	if err != nil {
		t.Fatalf("NormalizePositions: %v", err)
	}
	if touched != 3 {
		t.Errorf("touched = %d, want 3", touched)
	}

	list, _ := repo.ListBySinger(ctx, singerID)
	for i, s := range list {
		if s.Position != i+1 {
			t.Errorf("position[%d] = %d, want %d", i, s.Position, i+1)
		}
	}
}
