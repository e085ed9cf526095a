package service

import (
	"context"
	"errors"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService struct {
	products ProductRepository
}

func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Create(ctx context.Context, vendorID primitive.ObjectID, req dto.CreateProductRequest) (*model.Product, error) {
	p := &model.Product{
		Vendor:        vendorID,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Images:        req.Images,
		IsActive:      true,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update sólo acepta al vendor dueño del producto.
func (s *CatalogService) Update(ctx context.Context, productID, vendorID primitive.ObjectID, req dto.UpdateProductRequest) (*model.Product, error) {
	existing, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing.Vendor != vendorID {
		return nil, ErrForbidden
	}

	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.DiscountPrice != nil {
		fields["discount_price"] = *req.DiscountPrice
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.Images != nil {
		fields["images"] = *req.Images
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.products.Update(ctx, productID, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return updated, err
}

func (s *CatalogService) Delete(ctx context.Context, productID, vendorID primitive.ObjectID) error {
	existing, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if existing.Vendor != vendorID {
		return ErrForbidden
	}
	return s.products.Delete(ctx, productID)
}

func (s *CatalogService) ListPublic(ctx context.Context, category string) ([]*model.Product, error) {
	return s.products.FindPublic(ctx, category)
}

func (s *CatalogService) ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Product, error) {
	return s.products.FindByVendor(ctx, vendorID)
}

func (s *CatalogService) Get(ctx context.Context, productID primitive.ObjectID) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}
