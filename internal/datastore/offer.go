package datastore

import (
	"context"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableOffers(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Offer)(nil)).IfNotExists().Exec(ctx)
	return err
}

func CreateOffer(ctx context.Context, db *bun.DB, offer *models.Offer) (*models.Offer, error) {
	_, err := db.NewInsert().Model(offer).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func FindOfferByID(ctx context.Context, db *bun.DB, offerID int64) (*models.Offer, error) {
	var offer models.Offer
	err := db.NewSelect().Model(&offer).Where("offer_id = ?", offerID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func GetOffers(ctx context.Context, db *bun.DB) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := db.NewSelect().Model(&offers).Order("offer_id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func DeleteOffer(ctx context.Context, db *bun.DB, offerID int64) (bool, error) {
	res, err := db.NewDelete().Model((*models.Offer)(nil)).Where("offer_id = ?", offerID).Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
