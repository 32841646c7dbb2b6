package services

import (
	"context"

	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/repositories"
)

type CatalogServiceInterface interface {
	GetCategories(ctx context.Context) ([]dto.ShortCategoryDTO, error)
	GetBrands(ctx context.Context) ([]dto.ShortBrandDTO, error)
}

type CatalogService struct {
	catalogRepo repositories.CatalogRepositoryInterface
	logger      *zap.Logger
}

func NewCatalogService(catalogRepo repositories.CatalogRepositoryInterface, logger *zap.Logger) CatalogServiceInterface {
	return &CatalogService{catalogRepo: catalogRepo, logger: logger}
}

func (s *CatalogService) GetCategories(ctx context.Context) ([]dto.ShortCategoryDTO, error) {
	list, err := s.catalogRepo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ShortCategoryDTO, 0, len(list))
	for _, c := range list {
		result = append(result, dto.ShortCategoryDTO{ID: c.ID, Name: c.Name})
	}
	return result, nil
}

func (s *CatalogService) GetBrands(ctx context.Context) ([]dto.ShortBrandDTO, error) {
	list, err := s.catalogRepo.GetBrands(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ShortBrandDTO, 0, len(list))
	for _, b := range list {
		result = append(result, dto.ShortBrandDTO{ID: b.ID, Name: b.Name})
	}
	return result, nil
}
