package repos

import (
    "context"
    "errors"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/sineva-org/sineva-backend/internal/logger"
    "github.com/sineva-org/sineva-backend/internal/types"
)

type ImageRepo interface {
    // CREATE
    Create(ctx context.Context, tx *gorm.DB, img *types.Image) (*types.Image, error)

    // READ
    GetByUserAndPrompt(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prompt string) (*types.Image, error)
    GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Image, error)
    ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ascending bool, offset, limit int) ([]*types.Image, error)
    ListAll(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Image, error)
    CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
    CountAll(ctx context.Context, tx *gorm.DB) (int64, error)

    // UPDATE
    Update(ctx context.Context, tx *gorm.DB, img *types.Image) (*types.Image, error)
}

type imageRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewImageRepo(db *gorm.DB, baseLog *logger.Logger) ImageRepo {
    repoLog := baseLog.With("repo", "ImageRepo")
    return &imageRepo{db: db, log: repoLog}
}

func (ir *imageRepo) conn(tx *gorm.DB) *gorm.DB {
    if tx != nil {
        return tx
    }
    return ir.db
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ir *imageRepo) Create(ctx context.Context, tx *gorm.DB, img *types.Image) (*types.Image, error) {
    ir.log.Info("Creating image now in DB...", "user", img.UserID)
    if err := ir.conn(tx).WithContext(ctx).Create(img).Error; err != nil {
        ir.log.Error("Failed to create image", "error", err)
        return nil, err
    }
    ir.log.Info("Successfully created image", "id", img.ID)
    return img, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

// GetByUserAndPrompt returns nil, nil when nothing matches.
func (ir *imageRepo) GetByUserAndPrompt(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prompt string) (*types.Image, error) {
    var img types.Image
    err := ir.conn(tx).WithContext(ctx).
        Where("user_id = ? AND prompt = ?", userID, prompt).
        Take(&img).Error
    if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, nil
    }
    if err != nil {
        ir.log.Error("Failed to fetch image by user and prompt", "error", err)
        return nil, err
    }
    return &img, nil
}

// GetByIDForUser returns nil, nil when the image does not exist or belongs to
// someone else.
func (ir *imageRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Image, error) {
    var img types.Image
    err := ir.conn(tx).WithContext(ctx).
        Where("id = ? AND user_id = ?", id, userID).
        Take(&img).Error
    if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, nil
    }
    if err != nil {
        ir.log.Error("Failed to fetch image by id", "error", err)
        return nil, err
    }
    return &img, nil
}

// ListByUser pages through a user's images. A limit <= 0 returns every row.
func (ir *imageRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ascending bool, offset, limit int) ([]*types.Image, error) {
    order := "created_at DESC"
    if ascending {
        order = "created_at ASC"
    }
    q := ir.conn(tx).WithContext(ctx).
        Where("user_id = ?", userID).
        Order(order)
    if limit > 0 {
        q = q.Offset(offset).Limit(limit)
    }

    results := []*types.Image{}
    if err := q.Find(&results).Error; err != nil {
        ir.log.Error("Failed to list images by user", "error", err)
        return nil, err
    }
    ir.log.Debug("Listed images by user", "user", userID, "count", len(results))
    return results, nil
}

func (ir *imageRepo) ListAll(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Image, error) {
    results := []*types.Image{}
    if err := ir.conn(tx).WithContext(ctx).
        Order("created_at DESC").
        Offset(offset).
        Limit(limit).
        Find(&results).Error; err != nil {
        ir.log.Error("Failed to list all images", "error", err)
        return nil, err
    }
    ir.log.Debug("Listed all images", "count", len(results))
    return results, nil
}

func (ir *imageRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
    var count int64
    if err := ir.conn(tx).WithContext(ctx).
        Model(&types.Image{}).
        Where("user_id = ?", userID).
        Count(&count).Error; err != nil {
        ir.log.Error("Failed to count images by user", "error", err)
        return 0, err
    }
    return count, nil
}

func (ir *imageRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
    var count int64
    if err := ir.conn(tx).WithContext(ctx).
        Model(&types.Image{}).
        Count(&count).Error; err != nil {
        ir.log.Error("Failed to count images", "error", err)
        return 0, err
    }
    return count, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (ir *imageRepo) Update(ctx context.Context, tx *gorm.DB, img *types.Image) (*types.Image, error) {
    ir.log.Info("Updating image now in DB...", "id", img.ID)
    if err := ir.conn(tx).WithContext(ctx).
        Model(img).
        Select("prompt", "image_url", "updated_at").
        Updates(img).Error; err != nil {
        ir.log.Error("Failed to update image", "error", err)
        return nil, err
    }
    return img, nil
}
