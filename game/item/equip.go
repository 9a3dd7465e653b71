package item

import (
	"context"
	"errors"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/model"
	"gorm.io/gorm"
)

// Equip equips itemID in its own slot, unequipping whatever held the slot.
// An item can only occupy the loadout slot matching its Slot field; the swap
// runs in one transaction so the one-item-per-slot invariant holds.
func (svc *Service) Equip(ctx context.Context, userID int64, itemID string) error {
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
			return apperr.State("salvaged items cannot be equipped")
		}
		if it.Equipped {
			return apperr.State("item already equipped")
		}

		// Unequip the current holder of the slot, if any.
		if err := tx.Model(&model.Item{}).
			Where("owner_id = ? AND slot = ? AND equipped = ?", userID, it.Slot, true).
			Update("equipped", false).Error; err != nil {
			return err
		}
		return tx.Model(&it).Update("equipped", true).Error
	})
}

// Unequip clears the equipped flag on itemID.
func (svc *Service) Unequip(ctx context.Context, userID int64, itemID string) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it model.Item
		if err := tx.Where("id = ? AND owner_id = ?", itemID, userID).First(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item %s not found", itemID)
			}
			return err
		}
		if !it.Equipped {
			return apperr.State("item not equipped")
		}
		return tx.Model(&it).Update("equipped", false).Error
	})
}

// Loadout returns the currently equipped item per slot.
func (svc *Service) Loadout(ctx context.Context, userID int64) (map[string]model.Item, error) {
	var items []model.Item
	err := svc.db.WithContext(ctx).
		Where("owner_id = ? AND equipped = ?", userID, true).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	loadout := make(map[string]model.Item, len(items))
	for _, it := range items {
		loadout[it.Slot] = it
	}
	return loadout, nil
}
