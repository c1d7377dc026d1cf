package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mqttstack/acl-store/internal/repository"
)

// Service errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserNameTaken    = errors.New("user name already taken")
	ErrEntryNotFound    = errors.New("access-control entry not found")
	ErrValidationFailed = errors.New("validation failed")
)

// Error codes for API responses
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeUserNameTaken   = "USERNAME_TAKEN"
	CodeEntryNotFound   = "ENTRY_NOT_FOUND"
)

// CreateUserRequest represents the request to register a broker client
type CreateUserRequest struct {
	UserName         string `json:"username" validate:"required,min=1,max=128"`
	Password         string `json:"password" validate:"required,min=8,max=128"`
	ClientIDPrefix   string `json:"client_id_prefix" validate:"omitempty,max=128"`
	ClientID         string `json:"client_id" validate:"omitempty,max=128"`
	ValidateClientID bool   `json:"validate_client_id"`
	ThrottleUser     bool   `json:"throttle_user"`
	MonthlyByteLimit *int64 `json:"monthly_byte_limit,omitempty" validate:"omitempty,min=0"`
}

// UpdateUserRequest represents a full-row user update
type UpdateUserRequest struct {
	UserName         string `json:"username" validate:"required,min=1,max=128"`
	ClientIDPrefix   string `json:"client_id_prefix" validate:"omitempty,max=128"`
	ClientID         string `json:"client_id" validate:"omitempty,max=128"`
	ValidateClientID bool   `json:"validate_client_id"`
	ThrottleUser     bool   `json:"throttle_user"`
	MonthlyByteLimit *int64 `json:"monthly_byte_limit,omitempty" validate:"omitempty,min=0"`
}

// ResetPasswordRequest represents a credential-reset request
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// CreateEntryRequest represents the request to add one access-control entry
type CreateEntryRequest struct {
	ListKind string `json:"list_kind" validate:"required,oneof=blacklist whitelist"`
	Type     string `json:"type" validate:"required,oneof=publish subscribe"`
	Value    string `json:"value" validate:"required,min=1,max=512"`
}

// UserResponse represents user data in API responses. The password hash never
// leaves the service.
type UserResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserName         string     `json:"username"`
	ClientIDPrefix   string     `json:"client_id_prefix"`
	ClientID         string     `json:"client_id"`
	ValidateClientID bool       `json:"validate_client_id"`
	ThrottleUser     bool       `json:"throttle_user"`
	MonthlyByteLimit *int64     `json:"monthly_byte_limit,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// Service handles broker-user business logic on top of the repository layer.
type Service struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewService creates a new user Service instance
func NewService(userRepo repository.UserRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepo: userRepo,
		logger:   logger,
	}
}

// List returns all live users.
func (s *Service) List(ctx context.Context) ([]UserResponse, error) {
	users, err := s.userRepo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}

	return responses, nil
}

// Get returns one user by ID, soft-deleted included.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resp := toUserResponse(u)
	return &resp, nil
}

// Create registers a new broker user. The existence check is a fast path only;
// the unique index on username is what actually rejects a concurrent duplicate.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.UserNameExists(ctx, req.UserName)
	if err != nil {
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}
	if exists {
		return nil, ErrUserNameTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &repository.User{
		ID:               uuid.New(),
		UserName:         req.UserName,
		ClientIDPrefix:   req.ClientIDPrefix,
		ClientID:         req.ClientID,
		ValidateClientID: req.ValidateClientID,
		ThrottleUser:     req.ThrottleUser,
		MonthlyByteLimit: req.MonthlyByteLimit,
		PasswordHash:     hash,
	}

	inserted, err := s.userRepo.InsertUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrUserNameTaken) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("insert affected no rows for user %s", u.ID)
	}

	s.logger.Info("user created",
		slog.String("user_id", u.ID.String()),
		slog.String("username", u.UserName),
	)

	resp := toUserResponse(u)
	return &resp, nil
}

// Update applies a full-row update. A soft-deleted user is reported as not found.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	existing, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil || existing.DeletedAt != nil {
		return nil, ErrUserNotFound
	}

	u := &repository.User{
		ID:               id,
		UserName:         req.UserName,
		ClientIDPrefix:   req.ClientIDPrefix,
		ClientID:         req.ClientID,
		ValidateClientID: req.ValidateClientID,
		ThrottleUser:     req.ThrottleUser,
		MonthlyByteLimit: req.MonthlyByteLimit,
		PasswordHash:     existing.PasswordHash,
		CreatedAt:        existing.CreatedAt,
	}

	updated, err := s.userRepo.UpdateUser(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !updated {
		return nil, ErrUserNotFound
	}

	resp := toUserResponse(u)
	return &resp, nil
}

// ResetPassword replaces the stored credential for one user.
func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID, req ResetPasswordRequest) error {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	reset, err := s.userRepo.ResetPassword(ctx, id, hash)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if !reset {
		return ErrUserNotFound
	}

	s.logger.Info("password reset", slog.String("user_id", id.String()))
	return nil
}

// Delete soft-deletes a user; the username stays reserved.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.userRepo.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.logger.Info("user soft-deleted", slog.String("user_id", id.String()))
	return nil
}

// Purge hard-deletes a user. There is no way back; the username becomes free.
func (s *Service) Purge(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.userRepo.DeleteUserFromDatabase(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to purge user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.logger.Info("user purged", slog.String("user_id", id.String()))
	return nil
}

// ListEntries returns the live entries of one list kind and traffic direction for
// a user. Pattern evaluation against actual topics happens in the broker, not here.
func (s *Service) ListEntries(ctx context.Context, userID uuid.UUID, kind repository.ListKind, accessType repository.AccessType) ([]repository.AccessControlEntry, error) {
	var (
		entries []repository.AccessControlEntry
		err     error
	)

	switch kind {
	case repository.ListKindWhitelist:
		entries, err = s.userRepo.GetWhitelistItemsForUser(ctx, userID, accessType)
	default:
		entries, err = s.userRepo.GetBlacklistItemsForUser(ctx, userID, accessType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list access-control entries: %w", err)
	}

	return entries, nil
}

// AddEntry stores one access-control entry for a user.
func (s *Service) AddEntry(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*repository.AccessControlEntry, error) {
	entry := &repository.AccessControlEntry{
		ID:       uuid.New(),
		UserID:   userID,
		ListKind: repository.ListKind(req.ListKind),
		Type:     repository.AccessType(req.Type),
		Value:    req.Value,
	}

	inserted, err := s.userRepo.InsertAccessControlEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to insert access-control entry: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("insert affected no rows for entry %s", entry.ID)
	}

	return entry, nil
}

// RemoveEntry soft-deletes one access-control entry.
func (s *Service) RemoveEntry(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.userRepo.DeleteAccessControlEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete access-control entry: %w", err)
	}
	if !deleted {
		return ErrEntryNotFound
	}

	return nil
}

// PurgeEntry hard-deletes one access-control entry.
func (s *Service) PurgeEntry(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.userRepo.DeleteAccessControlEntryFromDatabase(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to purge access-control entry: %w", err)
	}
	if !deleted {
		return ErrEntryNotFound
	}

	return nil
}

// ClientIDPrefixes returns the non-empty prefixes of all live users.
func (s *Service) ClientIDPrefixes(ctx context.Context) ([]string, error) {
	prefixes, err := s.userRepo.GetAllClientIDPrefixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list client-id prefixes: %w", err)
	}

	return prefixes, nil
}

// toUserResponse maps a repository entity to the transfer shape.
func toUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		UserName:         u.UserName,
		ClientIDPrefix:   u.ClientIDPrefix,
		ClientID:         u.ClientID,
		ValidateClientID: u.ValidateClientID,
		ThrottleUser:     u.ThrottleUser,
		MonthlyByteLimit: u.MonthlyByteLimit,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		DeletedAt:        u.DeletedAt,
	}
}
