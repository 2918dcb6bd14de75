package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/decision-board/backend/internal/auth"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
	"github.com/emilythestrangee/decision-board/backend/internal/repository"
	"github.com/emilythestrangee/decision-board/backend/internal/storage"
)

type AccountService struct {
	users  *repository.UserRepo
	tokens *auth.Tokens
	images ImageStore
}

func NewAccountService(db *gorm.DB, tokens *auth.Tokens, images ImageStore) *AccountService {
	return &AccountService{users: repository.NewUserRepo(db), tokens: tokens, images: images}
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.users.Taken(ctx, req.Username, req.Email)
	if err != nil {
		return models.AuthResponse{}, err
	}
	if taken {
		return models.AuthResponse{}, ErrAccountExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.AuthResponse{}, err
	}
	u := models.User{Username: req.Username, Email: req.Email, Password: hash}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.AuthResponse{}, ErrAccountExists
		}
		return models.AuthResponse{}, err
	}
	return s.session(u, "User registered successfully")
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	if !auth.CheckPassword(u.Password, req.Password) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	return s.session(*u, "Login successful")
}

func (s *AccountService) session(u models.User, msg string) (models.AuthResponse, error) {
	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{Token: token, User: u, Message: msg}, nil
}

func (s *AccountService) Profile(ctx context.Context, id int) (models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return models.User{}, mapRepoErr(err)
	}
	return *u, nil
}

// UpdateProfile applies the non-nil fields of upd. An empty gender clears it.
func (s *AccountService) UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return models.User{}, mapRepoErr(err)
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Gender != nil {
		switch *upd.Gender {
		case "":
			u.Gender = nil
		case models.GenderMale, models.GenderFemale, models.GenderOther:
			g := *upd.Gender
			u.Gender = &g
		default:
			return models.User{}, ErrInvalidInput
		}
	}
	if upd.Country != nil {
		u.Country = *upd.Country
	}
	if upd.DateOfBirth != nil {
		u.DateOfBirth = upd.DateOfBirth
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if err := s.users.Save(ctx, u); err != nil {
		return models.User{}, err
	}
	return *u, nil
}

// UpdateAvatar uploads a new avatar and removes the previous one.
func (s *AccountService) UpdateAvatar(ctx context.Context, id int, img Upload) (models.User, error) {
	if s.images == nil {
		return models.User{}, ErrStorageDisabled
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return models.User{}, mapRepoErr(err)
	}
	url, err := s.images.Upload(ctx, storage.PrefixAvatars, img.Reader, img.Size, img.ContentType)
	if err != nil {
		return models.User{}, err
	}
	previous := u.Avatar
	u.Avatar = url
	if err := s.users.Save(ctx, u); err != nil {
		return models.User{}, err
	}
	if previous != "" {
		if err := s.images.Delete(ctx, previous); err != nil {
			logging.Logger.Warn().Err(err).Msg("storage: delete previous avatar")
		}
	}
	return *u, nil
}
