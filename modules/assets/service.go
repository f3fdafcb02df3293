package assets

import (
	"context"
	"log"

	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
)

// Service backs the user asset gallery: list and delete.
type Service struct {
	store   database.Store
	uploads storage.Uploader
}

func NewService(store database.Store, uploads storage.Uploader) *Service {
	return &Service{
		store:   store,
		uploads: uploads,
	}
}

// List returns a user's assets newest first, optionally filtered by type.
func (s *Service) List(userID string, assetType model.AssetType) ([]model.GeneratedAsset, error) {
	return s.store.ListAssets(userID, assetType)
}

// Delete removes the storage object first and the row second. A failed
// storage delete is logged and the row is removed anyway.
func (s *Service) Delete(ctx context.Context, userID, assetID string) error {
	assets, err := s.store.ListAssets(userID, "")
	if err != nil {
		return err
	}

	var target *model.GeneratedAsset
	for i := range assets {
		if assets[i].ID == assetID {
			target = &assets[i]
			break
		}
	}
	if target == nil {
		return &model.ValidationError{Field: "assetId", Reason: "not found for user"}
	}

	if err := s.uploads.DeleteObject(ctx, target.URL); err != nil {
		log.Printf("⚠️ Storage delete failed for asset %s, removing row anyway: %v", assetID, err)
	}

	return s.store.DeleteAsset(assetID)
}
