package usecase

import (
	"context"
	"errors"
	"time"

	"learnhub-backend/internal/domain"
	"learnhub-backend/pkg/mail"
	"learnhub-backend/pkg/utils"
)

type authUsecase struct {
	userRepo domain.UserRepository
	mailer   mail.Service
}

func NewAuthUsecase(ur domain.UserRepository, mailer mail.Service) domain.AuthUsecase {
	return &authUsecase{userRepo: ur, mailer: mailer}
}

func (uc *authUsecase) Register(ctx context.Context, user *domain.User) error {
	existing, _ := uc.userRepo.GetByEmail(ctx, user.Email)
	if existing != nil && existing.ID != 0 {
		return errors.New("email already exists")
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.Role = domain.RoleStudent
	user.CreatedAt = time.Now()

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return err
	}

	uc.mailer.Send(user.Name, user.Email, "Welcome to LearnHub",
		"<p>Hi "+user.Name+",</p><p>Your account is ready. Browse the catalog and enroll in your first course.</p>")
	return nil
}

func (uc *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil || user.ID == 0 {
		return "", errors.New("invalid credentials")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", errors.New("invalid credentials")
	}

	return utils.GenerateJWT(user.ID, string(user.Role))
}

func (uc *authUsecase) UpdateUser(ctx context.Context, user *domain.User) error {
	existing, err := uc.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return errors.New("user not found")
	}

	if user.Name != "" {
		existing.Name = user.Name
	}
	if user.Phone != "" {
		existing.Phone = user.Phone
	}
	if user.Password != "" {
		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			return err
		}
		existing.Password = hashed
	}

	return uc.userRepo.Update(ctx, existing)
}

func (uc *authUsecase) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
