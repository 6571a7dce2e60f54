package datastore

import (
	"context"

	"ambpromo/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTemplates(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.MemeTemplate)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateTable().Model((*models.TextTemplate)(nil)).IfNotExists().Exec(ctx)
	return err
}

func CreateMemeTemplate(ctx context.Context, db *bun.DB, tpl *models.MemeTemplate) (*models.MemeTemplate, error) {
	_, err := db.NewInsert().Model(tpl).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func GetRandomMemeTemplate(ctx context.Context, db *bun.DB) (*models.MemeTemplate, error) {
	var tpl models.MemeTemplate
	err := db.NewSelect().Model(&tpl).OrderExpr("RANDOM()").Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func FindMemeTemplateByID(ctx context.Context, db *bun.DB, id int64) (*models.MemeTemplate, error) {
	var tpl models.MemeTemplate
	err := db.NewSelect().Model(&tpl).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func GetMemeTemplates(ctx context.Context, db *bun.DB) ([]*models.MemeTemplate, error) {
	var tpls []*models.MemeTemplate
	err := db.NewSelect().Model(&tpls).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

func DeleteMemeTemplate(ctx context.Context, db *bun.DB, id int64) (bool, error) {
	res, err := db.NewDelete().Model((*models.MemeTemplate)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func CreateTextTemplate(ctx context.Context, db *bun.DB, tpl *models.TextTemplate) (*models.TextTemplate, error) {
	_, err := db.NewInsert().Model(tpl).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func GetRandomTextTemplate(ctx context.Context, db *bun.DB) (*models.TextTemplate, error) {
	var tpl models.TextTemplate
	err := db.NewSelect().Model(&tpl).OrderExpr("RANDOM()").Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func GetTextTemplates(ctx context.Context, db *bun.DB) ([]*models.TextTemplate, error) {
	var tpls []*models.TextTemplate
	err := db.NewSelect().Model(&tpls).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

func DeleteTextTemplate(ctx context.Context, db *bun.DB, id int64) (bool, error) {
	res, err := db.NewDelete().Model((*models.TextTemplate)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
