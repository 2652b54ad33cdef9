package usecase

import (
	"context"
	"fmt"
	"time"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

const (
	MaxBoostDuration = 30 * 24 * time.Hour
	sweepBatch       = 100
)

var boostableKinds = []entity.ItemKind{entity.KindProduct, entity.KindProperty, entity.KindCar}

type BoostUseCase struct {
	items         repository.ItemRepository
	notifications repository.NotificationRepository
	now           Clock
}

func NewBoostUseCase(items repository.ItemRepository, notifications repository.NotificationRepository, now Clock) *BoostUseCase {
	if now == nil {
		now = systemClock
	}
	return &BoostUseCase{
		items:         items,
		notifications: notifications,
		now:           now,
	}
}

// Start opens a boost window of the given duration on an item owned by ownerID.
// Impression and click counts at this moment become the baseline for Stats.
func (u *BoostUseCase) Start(ctx context.Context, ownerID string, ref entity.ItemRef, duration time.Duration) (*entity.BoostStats, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	if duration < time.Minute || duration > MaxBoostDuration {
		return nil, errors.BadRequest(fmt.Sprintf("boost duration must be between 1 minute and %s", MaxBoostDuration), nil)
	}

	// Ownership and the already-boosted check run inside StartBoost so two
	// concurrent starts cannot both open a window.
	now := u.now()
	item, err := u.items.StartBoost(ctx, ref, ownerID, now, now.Add(duration))
	if err != nil {
		return nil, err
	}

	u.notify(ctx, &entity.Notification{
		UserID:   ownerID,
		Type:     entity.NotificationBoosted,
		Title:    "Your listing is boosted",
		Body:     fmt.Sprintf("%q is boosted until %s", item.Title, item.BoostEndTime.Format(time.RFC1123)),
		ItemID:   item.ID,
		ItemKind: item.Kind,
	})

	logger.Info("boost started", "item", ref.String(), "until", item.BoostEndTime)
	stats := item.BoostStats()
	return &stats, nil
}

func (u *BoostUseCase) Stats(ctx context.Context, ref entity.ItemRef) (*entity.BoostStats, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	item, err := u.items.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	stats := item.BoostStats()
	return &stats, nil
}

// ExpireDue ends every boost whose window has closed and tells the owner how
// it performed. It returns the number of boosts ended by this call.
func (u *BoostUseCase) ExpireDue(ctx context.Context) (int, error) {
	now := u.now()
	ended := 0

	for _, kind := range boostableKinds {
		due, err := u.items.ListExpiredBoosts(ctx, kind, now, sweepBatch)
		if err != nil {
			return ended, err
		}

		for _, item := range due {
			ok, err := u.items.EndBoost(ctx, item.Ref(), now)
			if err != nil {
				logger.Warn("failed to end boost", "item", item.Ref().String(), "error", err)
				continue
			}
			if !ok {
				continue
			}
			ended++

			stats := item.BoostStats()
			u.notify(ctx, &entity.Notification{
				UserID:   item.OwnerID,
				Type:     entity.NotificationBoostExpired,
				Title:    "Your boost has ended",
				Body:     fmt.Sprintf("%q got %d impressions and %d clicks while boosted", item.Title, stats.ImpressionDelta, stats.ClickDelta),
				ItemID:   item.ID,
				ItemKind: item.Kind,
			})
		}
	}
	return ended, nil
}

// StartSweeper runs ExpireDue every interval until ctx is cancelled.
func (u *BoostUseCase) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := u.ExpireDue(ctx)
				if err != nil {
					logger.Error("boost sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("boosts expired", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("boost sweeper started", "interval", interval)
}

func (u *BoostUseCase) notify(ctx context.Context, n *entity.Notification) {
	if err := u.notifications.Create(ctx, n); err != nil {
		logger.Warn("failed to create notification", "type", n.Type, "user", n.UserID, "error", err)
	}
}
