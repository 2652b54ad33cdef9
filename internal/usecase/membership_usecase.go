package usecase

import (
	"context"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/ratelimit"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

type MembershipUseCase struct {
	memberships repository.MembershipRepository
	limiter     RateLimiter
}

func NewMembershipUseCase(memberships repository.MembershipRepository, limiter RateLimiter) *MembershipUseCase {
	return &MembershipUseCase{
		memberships: memberships,
		limiter:     limiter,
	}
}

type ToggleResult struct {
	Relation entity.Relation `json:"relation"`
	Active   bool            `json:"active"`
	Count    int64           `json:"count"`
}

type MembershipStatus struct {
	Favorite bool `json:"favorite"`
	Cart     bool `json:"cart"`
}

func validateRef(ref entity.ItemRef) error {
	if _, err := entity.ParseItemKind(string(ref.Kind)); err != nil {
		return errors.BadRequest(err.Error(), err)
	}
	if ref.ID == "" {
		return errors.BadRequest("item id is required", nil)
	}
	return nil
}

func validateRelation(rel entity.Relation) error {
	if _, err := entity.ParseRelation(string(rel)); err != nil {
		return errors.BadRequest(err.Error(), err)
	}
	return nil
}

// Toggle flips the user's favorite or cart membership of an item and returns
// the state and aggregate count after the flip.
func (u *MembershipUseCase) Toggle(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation) (*ToggleResult, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	if err := validateRelation(rel); err != nil {
		return nil, err
	}

	if ok, wait := u.limiter.Allow(userID, ratelimit.ActionToggleMembership); !ok {
		return nil, errors.TooManyRequests("Too many updates, slow down", wait)
	}

	active, count, err := u.memberships.Toggle(ctx, userID, ref, rel)
	if err != nil {
		return nil, err
	}

	logger.Info("membership toggled", "user", userID, "item", ref.String(), "relation", rel, "active", active)
	return &ToggleResult{Relation: rel, Active: active, Count: count}, nil
}

func (u *MembershipUseCase) Status(ctx context.Context, userID string, ref entity.ItemRef) (*MembershipStatus, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	favorite, err := u.memberships.Exists(ctx, userID, ref, entity.RelationFavorite)
	if err != nil {
		return nil, err
	}
	cart, err := u.memberships.Exists(ctx, userID, ref, entity.RelationCart)
	if err != nil {
		return nil, err
	}
	return &MembershipStatus{Favorite: favorite, Cart: cart}, nil
}

func (u *MembershipUseCase) List(ctx context.Context, userID string, rel entity.Relation, limit int) ([]*entity.Membership, error) {
	if err := validateRelation(rel); err != nil {
		return nil, err
	}
	return u.memberships.ListByUser(ctx, userID, rel, limit)
}

// Watch streams the membership state of one item. The caller must Stop the
// returned subscription.
func (u *MembershipUseCase) Watch(ctx context.Context, userID string, ref entity.ItemRef, rel entity.Relation, fn func(bool, error)) (repository.Subscription, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	if err := validateRelation(rel); err != nil {
		return nil, err
	}
	return u.memberships.Watch(ctx, userID, ref, rel, fn), nil
}
