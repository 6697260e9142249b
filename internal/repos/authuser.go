package repos

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
    "gorm.io/gorm/clause"

    "github.com/sineva-org/sineva-backend/internal/logger"
    "github.com/sineva-org/sineva-backend/internal/types"
)

type AuthUserRepo interface {
    // READ
    GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.AuthUser, error)
    GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AuthUser, error)

    // UPSERT
    UpsertOTP(ctx context.Context, tx *gorm.DB, email string, otpCiphertext string) (*types.AuthUser, error)

    // UPDATE
    MarkVerified(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedOTP string) (bool, error)

    // FULL (HARD) DELETE
    DeleteUnverifiedByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error)
}

type authUserRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewAuthUserRepo(db *gorm.DB, baseLog *logger.Logger) AuthUserRepo {
    repoLog := baseLog.With("repo", "AuthUserRepo")
    return &authUserRepo{db: db, log: repoLog}
}

func (ar *authUserRepo) conn(tx *gorm.DB) *gorm.DB {
    if tx != nil {
        return tx
    }
    return ar.db
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

// GetByEmail returns nil, nil when no record exists.
func (ar *authUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.AuthUser, error) {
    ar.log.Debug("Starting GetByEmail now...", "email", email)

    var user types.AuthUser
    err := ar.conn(tx).WithContext(ctx).
        Where("email = ?", email).
        Take(&user).Error
    if errors.Is(err, gorm.ErrRecordNotFound) {
        ar.log.Debug("No auth user found for email", "email", email)
        return nil, nil
    }
    if err != nil {
        ar.log.Error("Failed to fetch auth user by email", "error", err)
        return nil, err
    }
    return &user, nil
}

func (ar *authUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AuthUser, error) {
    ar.log.Debug("Starting GetByIDs for AuthUsers now...", "count", len(ids))

    var results []*types.AuthUser
    if len(ids) == 0 {
        return results, nil
    }
    if err := ar.conn(tx).WithContext(ctx).
        Where("id IN ?", ids).
        Find(&results).Error; err != nil {
        ar.log.Error("Failed to fetch auth users by IDs", "error", err)
        return nil, err
    }
    return results, nil
}

// ----------------------------------------------------------------
// UPSERT
// ----------------------------------------------------------------

// UpsertOTP inserts an unverified record or replaces the code on the existing
// one. is_verified is never part of the conflict update, so a verified record
// stays verified.
func (ar *authUserRepo) UpsertOTP(ctx context.Context, tx *gorm.DB, email string, otpCiphertext string) (*types.AuthUser, error) {
    ar.log.Info("Starting UpsertOTP now...", "email", email)

    now := time.Now()
    candidate := &types.AuthUser{
        Email:      email,
        OTP:        &otpCiphertext,
        IsVerified: false,
        CreatedAt:  now,
        UpdatedAt:  now,
    }
    transaction := ar.conn(tx).WithContext(ctx)
    if err := transaction.
        Clauses(clause.OnConflict{
            Columns:   []clause.Column{{Name: "email"}},
            DoUpdates: clause.AssignmentColumns([]string{"otp", "updated_at"}),
        }).
        Create(candidate).Error; err != nil {
        ar.log.Error("Failed to upsert auth user otp", "error", err)
        return nil, err
    }

    // The insert may have lost to an existing row, so the stored id is read back.
    var stored types.AuthUser
    if err := transaction.Where("email = ?", email).Take(&stored).Error; err != nil {
        ar.log.Error("Failed to reload auth user after upsert", "error", err)
        return nil, err
    }
    ar.log.Info("Successfully upserted auth user otp", "id", stored.ID, "verified", stored.IsVerified)
    return &stored, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

// MarkVerified flips the record to verified and clears the code, but only if
// the stored ciphertext still equals expectedOTP. It reports false when a
// concurrent request already consumed or replaced the code.
func (ar *authUserRepo) MarkVerified(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedOTP string) (bool, error) {
    ar.log.Info("Starting MarkVerified now...", "id", id)

    res := ar.conn(tx).WithContext(ctx).
        Model(&types.AuthUser{}).
        Where("id = ? AND otp = ?", id, expectedOTP).
        Updates(map[string]interface{}{
            "is_verified": true,
            "otp":         nil,
            "updated_at":  time.Now(),
        })
    if res.Error != nil {
        ar.log.Error("Failed to mark auth user verified", "error", res.Error)
        return false, res.Error
    }
    ok := res.RowsAffected == 1
    ar.log.Info("MarkVerified complete", "id", id, "updated", ok)
    return ok, nil
}

// ----------------------------------------------------------------
// FULL (HARD) DELETE
// ----------------------------------------------------------------

func (ar *authUserRepo) DeleteUnverifiedByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error) {
    ar.log.Info("Starting DeleteUnverifiedByEmail now...", "email", email)

    res := ar.conn(tx).WithContext(ctx).
        Where("email = ? AND is_verified = ?", email, false).
        Delete(&types.AuthUser{})
    if res.Error != nil {
        ar.log.Error("Failed to delete unverified auth user", "error", res.Error)
        return 0, res.Error
    }
    ar.log.Info("DeleteUnverifiedByEmail complete", "email", email, "deleted", res.RowsAffected)
    return res.RowsAffected, nil
}
