package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"filehost/internal/domain"
)

type UserStore struct{ s *Store }

func (s *Store) Users() *UserStore { return &UserStore{s: s} }

func (u *UserStore) db() *gorm.DB { return u.s.DB }

func (u *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := u.db().WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storeErr(err, domain.ErrUserNotFound, nil)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db().WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, storeErr(err, domain.ErrUserNotFound, nil)
	}
	return &user, nil
}

// Create inserts a new user and returns its id. A duplicate email surfaces
// as domain.ErrEmailInUse via the unique index, which also settles the race
// between two concurrent registrations for the same address.
func (u *UserStore) Create(ctx context.Context, username, passwordHash, email string) (int64, error) {
	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		AccessLevel:  domain.AccessNormal,
		CreatedAt:    time.Now().UTC(),
	}
	if err := u.db().WithContext(ctx).Create(user).Error; err != nil {
		return 0, storeErr(err, nil, domain.ErrEmailInUse)
	}
	return user.ID, nil
}

func (u *UserStore) Exists(ctx context.Context, id int64) (bool, error) {
	var total int64
	if err := u.db().WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&total).Error; err != nil {
		return false, storeErr(err, nil, nil)
	}
	return total > 0, nil
}

// EnableTwoFactor installs the confirmed TOTP secret and records the code
// that confirmed it as consumed. Both columns land in the same transaction;
// a key without its consumed code would leave that code replayable.
func (u *UserStore) EnableTwoFactor(ctx context.Context, id int64, key, code string) error {
	return u.s.WithTx(ctx, func(tx *Store) error {
		users := tx.Users()
		if err := users.SetOtpKey(ctx, id, key); err != nil {
			return err
		}
		return users.SetLastOtp(ctx, id, code)
	})
}

func (u *UserStore) SetOtpKey(ctx context.Context, id int64, key string) error {
	return u.updateColumn(ctx, id, "otp_key", key)
}

func (u *UserStore) SetLastOtp(ctx context.Context, id int64, code string) error {
	return u.updateColumn(ctx, id, "last_otp", code)
}

func (u *UserStore) SetResetCode(ctx context.Context, id int64, code string) error {
	return u.updateColumn(ctx, id, "reset_code", code)
}

func (u *UserStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	return u.updateColumn(ctx, id, "password_hash", hash)
}

func (u *UserStore) updateColumn(ctx context.Context, id int64, column string, value any) error {
	res := u.db().WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return storeErr(res.Error, nil, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
