package item

import (
	"context"
	"errors"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service persists generated items and handles inventory operations.
type Service struct {
	db     *gorm.DB
	gen    *Generator
	logger *zap.Logger
}

// NewService creates an item Service.
func NewService(db *gorm.DB, gen *Generator, logger *zap.Logger) *Service {
	return &Service{db: db, gen: gen, logger: logger}
}

// Generator exposes the underlying generator for callers that only need an
// unpersisted item.
func (svc *Service) Generator() *Generator { return svc.gen }

// Award generates count items for userID and stores them in its inventory.
// tier may be empty to run the weighted rarity roll.
func (svc *Service) Award(ctx context.Context, userID int64, source, tier string, count int) ([]*model.Item, error) {
	if count < 1 {
		count = 1
	}
	items := make([]*model.Item, 0, count)
	for i := 0; i < count; i++ {
		it, err := svc.gen.Generate(GenerateOptions{Source: source, Rarity: tier})
		if err != nil {
			return nil, err
		}
		it.OwnerID = userID
		items = append(items, it)
	}

	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).
			Update("items_collected", gorm.Expr("items_collected + ?", len(items))).Error
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		svc.logger.Info("item awarded",
			zap.Int64("user_id", userID),
			zap.String("item_id", it.ID),
			zap.String("rarity", it.Rarity),
			zap.String("source", it.Source))
	}
	return items, nil
}

// AwardQuestItems awards one quest-sourced item of the given tier.
func (svc *Service) AwardQuestItems(ctx context.Context, userID int64, tier string) ([]*model.Item, error) {
	return svc.Award(ctx, userID, SourceQuest, tier, 1)
}

// AwardRaidItems awards one raid-sourced item per call of the given tier.
func (svc *Service) AwardRaidItems(ctx context.Context, userID int64, tier string) ([]*model.Item, error) {
	return svc.Award(ctx, userID, SourceRaid, tier, 1)
}

// AwardEventItems awards one event-sourced item of the given tier.
func (svc *Service) AwardEventItems(ctx context.Context, userID int64, tier string) ([]*model.Item, error) {
	return svc.Award(ctx, userID, SourceEvent, tier, 1)
}

// List returns userID's inventory, salvaged items excluded.
func (svc *Service) List(ctx context.Context, userID int64) ([]model.Item, error) {
	var items []model.Item
	err := svc.db.WithContext(ctx).
		Where("owner_id = ? AND salvaged = ?", userID, false).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// Get returns one item owned by userID.
func (svc *Service) Get(ctx context.Context, userID int64, itemID string) (*model.Item, error) {
	var it model.Item
	err := svc.db.WithContext(ctx).Where("id = ?", itemID).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	if it.OwnerID != userID {
		return nil, apperr.Permission("item %s does not belong to user %d", itemID, userID)
	}
	return &it, nil
}

// Salvage removes an item from the inventory. The row itself is kept (items
// are never destroyed); it is flagged salvaged and unequipped.
func (svc *Service) Salvage(ctx context.Context, userID int64, itemID string) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Where("id = ?", itemID).First(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item %s not found", itemID)
			}
			return err
		}
		if it.OwnerID != userID {
			return apperr.Permission("item %s does not belong to user %d", itemID, userID)
		}
		if it.Salvaged {
			return apperr.State("item already salvaged")
		}
		return tx.Model(&it).Updates(map[string]interface{}{
			"salvaged": true,
			"equipped": false,
		}).Error
	})
}
