package party

import (
	"context"
	"errors"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages persistent parties. A user belongs to at most one party,
// enforced by the unique index on party_members.user_id.
type Service struct {
	db     *gorm.DB
	cfg    config.ProgressionConfig
	logger *zap.Logger
}

// NewService creates a party Service.
func NewService(db *gorm.DB, cfg config.ProgressionConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger}
}

// Create makes a new party with the creator as owner and first member.
func (svc *Service) Create(ctx context.Context, ownerID int64, name string) (*model.Party, error) {
	if name == "" {
		return nil, apperr.Validation("party name is required")
	}
	if cur, err := svc.ForUser(ctx, ownerID); err != nil {
		return nil, err
	} else if cur != nil {
		return nil, apperr.State("already in a party")
	}

	p := &model.Party{Name: name, OwnerID: ownerID}
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&model.PartyMember{PartyID: p.ID, UserID: ownerID}).Error
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info("party created", zap.Int64("party_id", p.ID), zap.Int64("owner_id", ownerID))
	return p, nil
}

// Get loads a party.
func (svc *Service) Get(ctx context.Context, partyID int64) (*model.Party, error) {
	var p model.Party
	err := svc.db.WithContext(ctx).First(&p, partyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("party %d not found", partyID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ForUser returns the user's party, or nil when they have none.
func (svc *Service) ForUser(ctx context.Context, userID int64) (*model.Party, error) {
	var m model.PartyMember
	err := svc.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return svc.Get(ctx, m.PartyID)
}

// Join adds the user to a party, subject to the size cap.
func (svc *Service) Join(ctx context.Context, userID, partyID int64) error {
	if _, err := svc.Get(ctx, partyID); err != nil {
		return err
	}
	if cur, err := svc.ForUser(ctx, userID); err != nil {
		return err
	} else if cur != nil {
		return apperr.State("already in a party")
	}

	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.PartyMember{}).Where("party_id = ?", partyID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(svc.cfg.MaxPartySize) {
			return apperr.State("party is full")
		}
		return tx.Create(&model.PartyMember{PartyID: partyID, UserID: userID}).Error
	})
}

// Leave removes the user from their party. When the owner leaves, ownership
// passes to the longest-standing member; the last member dissolves the party.
func (svc *Service) Leave(ctx context.Context, userID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.PartyMember
		err := tx.Where("user_id = ?", userID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.State("not in a party")
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&m).Error; err != nil {
			return err
		}

		var remaining []model.PartyMember
		if err := tx.Where("party_id = ?", m.PartyID).Order("joined_at, id").Find(&remaining).Error; err != nil {
			return err
		}
		if len(remaining) == 0 {
			return tx.Delete(&model.Party{}, m.PartyID).Error
		}

		var p model.Party
		if err := tx.First(&p, m.PartyID).Error; err != nil {
			return err
		}
		if p.OwnerID == userID {
			return tx.Model(&p).Update("owner_id", remaining[0].UserID).Error
		}
		return nil
	})
}

// MemberIDs returns the IDs of every party member.
func (svc *Service) MemberIDs(ctx context.Context, partyID int64) ([]int64, error) {
	var members []model.PartyMember
	err := svc.db.WithContext(ctx).Where("party_id = ?", partyID).Order("joined_at, id").Find(&members).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

// Members returns the member user rows.
func (svc *Service) Members(ctx context.Context, partyID int64) ([]model.User, error) {
	ids, err := svc.MemberIDs(ctx, partyID)
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := svc.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
