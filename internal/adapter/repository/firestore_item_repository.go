package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/infrastructure/firestoredb"
	"marketsync/pkg/errors"
)

// itemDoc is the stored shape of an item. Exactly one of the variant payloads
// is set, selected by the collection the document lives in.
type itemDoc struct {
	OwnerID string  `firestore:"ownerId"`
	Title   string  `firestore:"title"`
	Price   float64 `firestore:"price"`

	FavoritesCount  int64      `firestore:"favoritesCount"`
	CartCount       int64      `firestore:"cartCount"`
	ClickCount      int64      `firestore:"clickCount"`
	DailyClickCount int64      `firestore:"dailyClickCount"`
	LastClickDate   *time.Time `firestore:"lastClickDate"`
	ImpressionCount int64      `firestore:"impressionCount"`

	IsBoosted                   bool       `firestore:"isBoosted"`
	BoostStartTime              *time.Time `firestore:"boostStartTime"`
	BoostEndTime                *time.Time `firestore:"boostEndTime"`
	BoostImpressionCountAtStart int64      `firestore:"boostImpressionCountAtStart"`
	BoostClickCountAtStart      int64      `firestore:"boostClickCountAtStart"`

	Product  *entity.ProductDetails  `firestore:"product,omitempty"`
	Property *entity.PropertyDetails `firestore:"property,omitempty"`
	Car      *entity.CarDetails      `firestore:"car,omitempty"`

	CreatedAt time.Time `firestore:"createdAt"`
}

func toItemDoc(item *entity.Item) (*itemDoc, error) {
	doc := &itemDoc{
		OwnerID:                     item.OwnerID,
		Title:                       item.Title,
		Price:                       item.Price,
		FavoritesCount:              item.FavoritesCount,
		CartCount:                   item.CartCount,
		ClickCount:                  item.ClickCount,
		DailyClickCount:             item.DailyClickCount,
		LastClickDate:               item.LastClickDate,
		ImpressionCount:             item.ImpressionCount,
		IsBoosted:                   item.IsBoosted,
		BoostStartTime:              item.BoostStartTime,
		BoostEndTime:                item.BoostEndTime,
		BoostImpressionCountAtStart: item.BoostImpressionCountAtStart,
		BoostClickCountAtStart:      item.BoostClickCountAtStart,
		CreatedAt:                   item.CreatedAt,
	}

	switch d := item.Details.(type) {
	case entity.ProductDetails:
		doc.Product = &d
	case entity.PropertyDetails:
		doc.Property = &d
	case entity.CarDetails:
		doc.Car = &d
	default:
		return nil, fmt.Errorf("unsupported item details %T", item.Details)
	}
	return doc, nil
}

func (d *itemDoc) toEntity(kind entity.ItemKind, id string) (*entity.Item, error) {
	item := &entity.Item{
		ID:                          id,
		Kind:                        kind,
		OwnerID:                     d.OwnerID,
		Title:                       d.Title,
		Price:                       d.Price,
		FavoritesCount:              d.FavoritesCount,
		CartCount:                   d.CartCount,
		ClickCount:                  d.ClickCount,
		DailyClickCount:             d.DailyClickCount,
		LastClickDate:               d.LastClickDate,
		ImpressionCount:             d.ImpressionCount,
		IsBoosted:                   d.IsBoosted,
		BoostStartTime:              d.BoostStartTime,
		BoostEndTime:                d.BoostEndTime,
		BoostImpressionCountAtStart: d.BoostImpressionCountAtStart,
		BoostClickCountAtStart:      d.BoostClickCountAtStart,
		CreatedAt:                   d.CreatedAt,
	}

	switch kind {
	case entity.KindProduct:
		if d.Product != nil {
			item.Details = *d.Product
		} else {
			item.Details = entity.ProductDetails{}
		}
	case entity.KindProperty:
		if d.Property != nil {
			item.Details = *d.Property
		} else {
			item.Details = entity.PropertyDetails{}
		}
	case entity.KindCar:
		if d.Car != nil {
			item.Details = *d.Car
		} else {
			item.Details = entity.CarDetails{}
		}
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	return item, nil
}

func decodeItem(kind entity.ItemKind, snap *firestore.DocumentSnapshot) (*entity.Item, error) {
	var doc itemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Internal("Failed to parse item data", err)
	}
	return doc.toEntity(kind, snap.Ref.ID)
}

type firestoreItemRepository struct {
	client *firestore.Client
}

func NewFirestoreItemRepository(client *firestore.Client) repository.ItemRepository {
	return &firestoreItemRepository{client: client}
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *entity.Item) error {
	col := r.client.Collection(item.Kind.Collection())
	if item.ID == "" {
		item.ID = col.NewDoc().ID
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	doc, err := toItemDoc(item)
	if err != nil {
		return errors.BadRequest(err.Error(), err)
	}

	if _, err := col.Doc(item.ID).Create(ctx, doc); err != nil {
		return firestoredb.Translate(err, "Item")
	}
	return nil
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, ref entity.ItemRef) (*entity.Item, error) {
	snap, err := firestoredb.Item(r.client, ref).Get(ctx)
	if err != nil {
		return nil, firestoredb.Translate(err, "Item")
	}
	return decodeItem(ref.Kind, snap)
}

func (r *firestoreItemRepository) List(ctx context.Context, filter entity.MarketFilter) ([]*entity.Item, error) {
	query := r.client.Collection(filter.Kind().Collection()).Query
	if filter.OnlyBoosted() {
		query = query.Where(entity.FieldIsBoosted, "==", true)
	}

	// Range filters need the first ordering on the same field, so they are
	// only pushed down for the price sorts and applied in memory otherwise.
	pushPrice := filter.Sort() == entity.SortPriceAsc || filter.Sort() == entity.SortPriceDesc
	if pushPrice {
		if filter.MinPrice() > 0 {
			query = query.Where("price", ">=", filter.MinPrice())
		}
		if filter.MaxPrice() > 0 {
			query = query.Where("price", "<=", filter.MaxPrice())
		}
	}

	switch filter.Sort() {
	case entity.SortPriceAsc:
		query = query.OrderBy("price", firestore.Asc)
	case entity.SortPriceDesc:
		query = query.OrderBy("price", firestore.Desc)
	case entity.SortPopular:
		query = query.OrderBy(entity.FieldClickCount, firestore.Desc)
	default:
		query = query.OrderBy("createdAt", firestore.Desc)
	}
	query = query.Limit(filter.Limit())

	iter := query.Documents(ctx)
	defer iter.Stop()

	items := make([]*entity.Item, 0, filter.Limit())
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Items")
		}

		item, err := decodeItem(filter.Kind(), snap)
		if err != nil {
			return nil, err
		}
		if !pushPrice && !filter.Matches(item) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *firestoreItemRepository) RecordClick(ctx context.Context, ref entity.ItemRef, actingUserID string, now time.Time) (bool, error) {
	docRef := firestoredb.Item(r.client, ref)

	var recorded bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		recorded = false

		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		item, err := decodeItem(ref.Kind, snap)
		if err != nil {
			return err
		}

		update, ok := entity.ApplyClick(item, actingUserID, now)
		if !ok {
			return nil
		}
		recorded = true

		return tx.Update(docRef, []firestore.Update{
			{Path: entity.FieldClickCount, Value: firestore.Increment(1)},
			{Path: entity.FieldDailyClickCount, Value: update.DailyClickCount},
			{Path: entity.FieldLastClickDate, Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return false, firestoredb.Translate(err, "Item")
	}
	return recorded, nil
}

func (r *firestoreItemRepository) IncrementImpressions(ctx context.Context, refs []entity.ItemRef) error {
	if len(refs) == 0 {
		return nil
	}

	counts := make(map[entity.ItemRef]int64, len(refs))
	for _, ref := range refs {
		counts[ref]++
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for ref, n := range counts {
			err := tx.Update(firestoredb.Item(r.client, ref), []firestore.Update{
				{Path: entity.FieldImpressionCount, Value: firestore.Increment(n)},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return firestoredb.Translate(err, "Item")
}

func (r *firestoreItemRepository) StartBoost(ctx context.Context, ref entity.ItemRef, ownerID string, start, end time.Time) (*entity.Item, error) {
	docRef := firestoredb.Item(r.client, ref)

	var boosted *entity.Item
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		item, err := decodeItem(ref.Kind, snap)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return errors.Forbidden("Only the owner can boost this item", nil)
		}
		if item.IsBoosted && !item.BoostExpired(start) {
			return errors.Conflict("Item is already boosted")
		}

		item.IsBoosted = true
		item.BoostStartTime = &start
		item.BoostEndTime = &end
		item.BoostImpressionCountAtStart = item.ImpressionCount
		item.BoostClickCountAtStart = item.ClickCount
		boosted = item

		return tx.Update(docRef, []firestore.Update{
			{Path: entity.FieldIsBoosted, Value: true},
			{Path: entity.FieldBoostStartTime, Value: start},
			{Path: entity.FieldBoostEndTime, Value: end},
			{Path: entity.FieldBoostImpressionCountAtStart, Value: item.ImpressionCount},
			{Path: entity.FieldBoostClickCountAtStart, Value: item.ClickCount},
		})
	})
	if err != nil {
		return nil, firestoredb.Translate(err, "Item")
	}
	return boosted, nil
}

func (r *firestoreItemRepository) ListExpiredBoosts(ctx context.Context, kind entity.ItemKind, now time.Time, limit int) ([]*entity.Item, error) {
	iter := r.client.Collection(kind.Collection()).
		Where(entity.FieldIsBoosted, "==", true).
		Where(entity.FieldBoostEndTime, "<=", now).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var items []*entity.Item
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, firestoredb.Translate(err, "Items")
		}
		item, err := decodeItem(kind, snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *firestoreItemRepository) EndBoost(ctx context.Context, ref entity.ItemRef, now time.Time) (bool, error) {
	docRef := firestoredb.Item(r.client, ref)

	var ended bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ended = false

		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		item, err := decodeItem(ref.Kind, snap)
		if err != nil {
			return err
		}
		if !item.BoostExpired(now) {
			return nil
		}
		ended = true
		return tx.Update(docRef, []firestore.Update{
			{Path: entity.FieldIsBoosted, Value: false},
		})
	})
	if err != nil {
		return false, firestoredb.Translate(err, "Item")
	}
	return ended, nil
}
