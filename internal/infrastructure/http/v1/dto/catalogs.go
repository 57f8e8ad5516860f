package dto

import (
	"melodia/internal/domain/catalogs/playlist"
	"melodia/internal/domain/catalogs/singer"
	"melodia/internal/domain/catalogs/song"
	"melodia/internal/domain/catalogs/topic"
)

// --- Songs ---

// SongRequest publishes or updates a track.
type SongRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug,omitempty"`
	TopicID  string `json:"topicId,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// SongResponse represents a song in API responses.
type SongResponse struct {
	CatalogResponse
	SingerID    string `json:"singerId"`
	TopicID     string `json:"topicId,omitempty"`
	Position    int    `json:"position"`
	ListenCount int64  `json:"listenCount"`
	LikeCount   int64  `json:"likeCount"`
	AudioURL    string `json:"audioUrl,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
}

// FromSong creates response from domain song.
func FromSong(s *song.Song) *SongResponse {
	resp := &SongResponse{
		CatalogResponse: FromCatalog(s.Catalog),
		SingerID:        s.SingerID.String(),
		Position:        s.Position,
		ListenCount:     s.ListenCount,
		LikeCount:       s.LikeCount,
		AudioURL:        s.AudioURL,
		CoverURL:        s.CoverURL,
	}
	if s.TopicID != nil {
		resp.TopicID = s.TopicID.String()
	}
	return resp
}

// --- Singers ---

// SingerRequest creates or updates a singer profile.
type SingerRequest struct {
	Name      string `json:"name" binding:"required"`
	Slug      string `json:"slug,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// SingerResponse represents a singer in API responses.
type SingerResponse struct {
	CatalogResponse
	Status        string `json:"status"`
	Bio           string `json:"bio,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	ManagerUserID string `json:"managerUserId,omitempty"`
}

// FromSinger creates response from domain singer.
func FromSinger(s *singer.Singer) *SingerResponse {
	resp := &SingerResponse{
		CatalogResponse: FromCatalog(s.Catalog),
		Status:          s.Status,
		Bio:             s.Bio,
		AvatarURL:       s.AvatarURL,
	}
	if s.ManagerUserID != nil {
		resp.ManagerUserID = s.ManagerUserID.String()
	}
	return resp
}

// --- Topics ---

// TopicRequest creates or updates a topic.
type TopicRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// TopicResponse represents a topic in API responses.
type TopicResponse struct {
	CatalogResponse
	Description string `json:"description,omitempty"`
}

// FromTopic creates response from domain topic.
func FromTopic(t *topic.Topic) *TopicResponse {
	return &TopicResponse{
		CatalogResponse: FromCatalog(t.Catalog),
		Description:     t.Description,
	}
}

// --- Playlists ---

// PlaylistRequest creates or updates a playlist with its ordered song list.
type PlaylistRequest struct {
	Name     string   `json:"name" binding:"required"`
	Slug     string   `json:"slug,omitempty"`
	CoverURL string   `json:"coverUrl,omitempty"`
	SongIDs  []string `json:"songIds"`
}

// PlaylistResponse represents a playlist in API responses.
type PlaylistResponse struct {
	CatalogResponse
	CoverURL string   `json:"coverUrl,omitempty"`
	SongIDs  []string `json:"songIds"`
}

// FromPlaylist creates response from domain playlist.
func FromPlaylist(p *playlist.Playlist) *PlaylistResponse {
	resp := &PlaylistResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		CoverURL:        p.CoverURL,
		SongIDs:         idStrings(p.SongIDs),
	}
	if resp.SongIDs == nil {
		resp.SongIDs = []string{}
	}
	return resp
}
