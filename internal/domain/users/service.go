// Package users orchestrates account operations across the credential store
// and the surrounding registries. The credential store itself never calls
// other registries; every cross-entity sequence lives here.
package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/internal/domain/access"
	"melodia/internal/domain/auth"
	"melodia/pkg/logger"
)

// RoleRegistry is the slice of the access service the user service needs.
type RoleRegistry interface {
	RoleExists(ctx context.Context, roleID id.ID) (bool, error)
	FindRoleByName(ctx context.Context, name string) (*access.Role, error)
	FindWithPermissions(ctx context.Context, roleID id.ID) (*access.Role, error)
}

// SingerRegistry lets the orchestrator check and clear singer back-references.
type SingerRegistry interface {
	Exists(ctx context.Context, singerID id.ID) (bool, error)
	ClearManager(ctx context.Context, singerID id.ID) error
}

// SongRegistry is consulted when favorites move, to keep like counters honest.
type SongRegistry interface {
	Exists(ctx context.Context, songID id.ID) (bool, error)
	AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error
}

// PlaylistRegistry validates playlist references before they are attached.
type PlaylistRegistry interface {
	Exists(ctx context.Context, playlistID id.ID) (bool, error)
}

// AuditRecorder records administrative mutations.
type AuditRecorder interface {
	Record(ctx context.Context, action, entity string, entityID string, payload any) error
}

// ListenerRoleName is the role assigned to self-registered accounts.
const ListenerRoleName = "listener"

// RegisterInput carries the fields a caller may set on self-registration.
// Type and role are fixed server side.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// CreateUserInput carries everything needed to register an account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Type     string
	RoleID   id.ID
}

// UpdateProfileInput carries mutable profile fields.
type UpdateProfileInput struct {
	FullName  *string
	AvatarURL *string
	Email     *string
}

// Profile is a user with role and relations expanded for reads.
type Profile struct {
	auth.User
	Role *access.Role `json:"role,omitempty"`
}

// Service sequences all account operations.
type Service struct {
	users     auth.UserRepository
	roles     RoleRegistry
	singers   SingerRegistry
	songs     SongRegistry
	playlists PlaylistRegistry
	audit     AuditRecorder
	txManager tx.Manager
}

// NewService creates the orchestrating user service.
func NewService(
	users auth.UserRepository,
	roles RoleRegistry,
	singers SingerRegistry,
	songs SongRegistry,
	playlists PlaylistRegistry,
	audit AuditRecorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		users:     users,
		roles:     roles,
		singers:   singers,
		songs:     songs,
		playlists: playlists,
		audit:     audit,
		txManager: txManager,
	}
}

// Register creates a listener account. The role is resolved by its well-known
// name so callers cannot pick their own.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*auth.User, error) {
	role, err := s.roles.FindRoleByName(ctx, ListenerRoleName)
	if err != nil {
		return nil, fmt.Errorf("resolve %s role: %w", ListenerRoleName, err)
	}
	return s.Create(ctx, CreateUserInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Type:     auth.TypeListener,
		RoleID:   role.ID,
	})
}

// Create registers a new account. The role reference is validated eagerly and
// the login name must be free within the account type.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*auth.User, error) {
	if in.Password == "" || len(in.Password) < 6 {
		return nil, apperror.NewValidation("password must be at least 6 characters").WithDetail("field", "password")
	}
	if in.Type == "" {
		in.Type = auth.TypeListener
	}

	ok, err := s.roles.RoleExists(ctx, in.RoleID)
	if err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return nil, apperror.NewInvalidReference("role", in.RoleID.String())
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username, in.Type)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperror.NewDuplicate("user", "username", in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := auth.NewUser(in.Username, in.Type, string(hash), in.RoleID)
	user.Email = in.Email
	user.FullName = in.FullName
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "type", user.Type)
	return user, nil
}

// GetProfile returns the user with role, favorites and playlists expanded.
func (s *Service) GetProfile(ctx context.Context, userID id.ID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.userErr(err, userID)
	}

	role, err := s.roles.FindWithPermissions(ctx, user.RoleID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("expand role: %w", err)
	}

	favorites, err := s.users.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	playlists, err := s.users.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	user.FavoriteSongIDs = favorites
	user.PlaylistIDs = playlists
	return &Profile{User: *user, Role: role}, nil
}

// UpdateProfile applies the provided fields only.
func (s *Service) UpdateProfile(ctx context.Context, userID id.ID, in UpdateProfileInput) (*auth.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.userErr(err, userID)
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.Email != nil {
		user.Email = *in.Email
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// SetStatus toggles the account status.
func (s *Service) SetStatus(ctx context.Context, userID id.ID, status string) error {
	if status != auth.StatusActive && status != auth.StatusInactive {
		return apperror.NewValidation("unknown status").WithDetail("field", "status")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return s.userErr(err, userID)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.UpdateStatus(ctx, userID, status)
	})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.record(ctx, "user.status", userID, map[string]string{"status": status})
	return nil
}

// ChangeRole reassigns the account's role after eager validation.
func (s *Service) ChangeRole(ctx context.Context, userID, roleID id.ID) error {
	ok, err := s.roles.RoleExists(ctx, roleID)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return apperror.NewInvalidReference("role", roleID.String())
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return s.userErr(err, userID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.UpdateRole(ctx, userID, roleID)
	})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.record(ctx, "user.role", userID, map[string]string{"role_id": roleID.String()})
	return nil
}

// LinkSinger attaches a singer profile to the account. The link is immutable
// once set; only UnlinkSinger can release it.
func (s *Service) LinkSinger(ctx context.Context, userID, singerID id.ID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.userErr(err, userID)
	}
	if user.HasSinger() {
		return apperror.NewConflict("account already linked to a singer").
			WithDetail("singer_id", user.SingerID.String())
	}

	ok, err := s.singers.Exists(ctx, singerID)
	if err != nil {
		return fmt.Errorf("check singer: %w", err)
	}
	if !ok {
		return apperror.NewInvalidReference("singer", singerID.String())
	}

	user.SingerID = &singerID
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("link singer: %w", err)
	}
	return nil
}

// UnlinkSinger releases the singer link and clears the back-reference.
func (s *Service) UnlinkSinger(ctx context.Context, userID id.ID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.userErr(err, userID)
	}
	if !user.HasSinger() {
		return nil
	}

	singerID := *user.SingerID
	user.SingerID = nil
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("unlink singer: %w", err)
		}
		return s.singers.ClearManager(ctx, singerID)
	})
}

// AddFavorite adds a song to the user's favorite set and bumps its like
// counter. Duplicates are rejected, the set stays unique.
func (s *Service) AddFavorite(ctx context.Context, userID, songID id.ID) error {
	ok, err := s.songs.Exists(ctx, songID)
	if err != nil {
		return fmt.Errorf("check song: %w", err)
	}
	if !ok {
		return apperror.NewInvalidReference("song", songID.String())
	}

	favorites, err := s.users.ListFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}
	for _, fid := range favorites {
		if fid == songID {
			return apperror.NewValidation("song already in favorites").WithDetail("song_id", songID.String())
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.AddFavorite(ctx, userID, songID); err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		return s.songs.AdjustLikeCount(ctx, songID, 1)
	})
}

// RemoveFavorite removes a song from the favorite set. Removing a song that
// is not in the set is a no-op.
func (s *Service) RemoveFavorite(ctx context.Context, userID, songID id.ID) error {
	favorites, err := s.users.ListFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}
	present := false
	for _, fid := range favorites {
		if fid == songID {
			present = true
			break
		}
	}
	if !present {
		return nil
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.RemoveFavorite(ctx, userID, songID); err != nil {
			return fmt.Errorf("remove favorite: %w", err)
		}
		return s.songs.AdjustLikeCount(ctx, songID, -1)
	})
}

// ListFavorites returns the favorite song ids.
func (s *Service) ListFavorites(ctx context.Context, userID id.ID) ([]id.ID, error) {
	return s.users.ListFavorites(ctx, userID)
}

// AttachPlaylist appends a playlist reference to the user's ordered list.
func (s *Service) AttachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	ok, err := s.playlists.Exists(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("check playlist: %w", err)
	}
	if !ok {
		return apperror.NewInvalidReference("playlist", playlistID.String())
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.AttachPlaylist(ctx, userID, playlistID)
	})
}

// DetachPlaylist removes a playlist reference.
func (s *Service) DetachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.DetachPlaylist(ctx, userID, playlistID)
	})
}

// Delete removes the account permanently. The cascade is strictly sequenced:
// unlink the singer back-reference, detach playlist references, then delete
// the user record.
func (s *Service) Delete(ctx context.Context, userID id.ID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.userErr(err, userID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if user.HasSinger() {
			if err := s.singers.ClearManager(ctx, *user.SingerID); err != nil {
				return fmt.Errorf("clear singer back-reference: %w", err)
			}
		}
		if err := s.users.DetachAllPlaylists(ctx, userID); err != nil {
			return fmt.Errorf("detach playlists: %w", err)
		}
		if err := s.users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, "user.delete", userID, nil)
	logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

// List forwards the filter to the credential store.
func (s *Service) List(ctx context.Context, f auth.UserFilter) ([]auth.User, int64, error) {
	return s.users.List(ctx, f)
}

// ResetAllToActive flips every non-deleted account back to active. The
// affected count is returned and recorded, never a blind mutation.
func (s *Service) ResetAllToActive(ctx context.Context) (int64, error) {
	var affected int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		affected, err = s.users.ResetAllToActive(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("reset users: %w", err)
	}

	s.record(ctx, "user.reset_all_active", id.Nil(), map[string]int64{"affected": affected})
	logger.Info(ctx, "users reset to active", "affected", affected)
	return affected, nil
}

func (s *Service) record(ctx context.Context, action string, entityID id.ID, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, "user", entityID.String(), payload); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}

func (s *Service) userErr(err error, userID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("user", userID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", "user")
}
