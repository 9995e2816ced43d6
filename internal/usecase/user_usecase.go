package usecase

import (
	"context"
	"errors"

	"github.com/NasaVasa/mira/internal/domain"
)

type UserUsecase struct {
	users domain.UserRepository
}

func NewUserUsecase(users domain.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

// StartOrGetUser returns the user for telegramUserID, creating it on first contact.
// Two concurrent first messages from the same user both end up with the same row.
func (u *UserUsecase) StartOrGetUser(ctx context.Context, telegramUserID int64, firstName string) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	newUser := &domain.User{
		TelegramUserID: telegramUserID,
		FirstName:      firstName,
	}
	if err := u.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return u.users.GetByTelegramID(ctx, telegramUserID)
		}
		return nil, err
	}

	return newUser, nil
}
