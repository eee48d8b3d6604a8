package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
	"sellnext/pkg/logger"
	"sellnext/pkg/utils"
)

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

func NewProductUseCase(productRepo repository.ProductRepository, userRepo repository.UserRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
		now:         utcNow,
	}
}

type CreateProductInput struct {
	Title           string
	Description     string
	Price           float64
	OriginalPrice   *float64
	Category        string
	Condition       string
	Images          []string
	Location        string
	Tags            []string
	Specifications  map[string]string
	Negotiable      *bool
	DeliveryOptions []string
}

// UpdateProductInput carries only the fields being changed.
type UpdateProductInput struct {
	Title           *string
	Description     *string
	Price           *float64
	OriginalPrice   *float64
	Category        *string
	Condition       *string
	Images          []string
	Location        *string
	Status          *string
	Tags            []string
	Specifications  map[string]string
	Negotiable      *bool
	DeliveryOptions []string
}

type ListProductsInput struct {
	Search    string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	Page      int
	Limit     int
}

type Pagination struct {
	CurrentPage   int   `json:"current_page"`
	TotalPages    int   `json:"total_pages"`
	TotalProducts int64 `json:"total_products"`
	HasNext       bool  `json:"has_next"`
	HasPrev       bool  `json:"has_prev"`
}

type ProductPage struct {
	Products   []*entity.ProductView `json:"products"`
	Pagination Pagination            `json:"pagination"`
}

func (uc *ProductUseCase) CreateProduct(ctx context.Context, sellerID string, input CreateProductInput) (*entity.ProductView, error) {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	negotiable := true
	if input.Negotiable != nil {
		negotiable = *input.Negotiable
	}
	delivery := input.DeliveryOptions
	if len(delivery) == 0 {
		delivery = []string{"pickup"}
	}

	now := uc.now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SellerID:        sellerID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		OriginalPrice:   input.OriginalPrice,
		Category:        input.Category,
		Condition:       input.Condition,
		Images:          input.Images,
		Location:        strings.TrimSpace(input.Location),
		Status:          entity.ProductStatusActive,
		Favorites:       []string{},
		Tags:            normalizeTags(input.Tags),
		Specifications:  input.Specifications,
		Negotiable:      negotiable,
		DeliveryOptions: delivery,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		logger.Error("CreateProduct Error: %v", err)
		return nil, err
	}

	return entity.NewProductView(product, seller), nil
}

// GetProduct returns a product and counts the view.
func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*entity.ProductView, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.productRepo.IncrementViews(ctx, id); err != nil {
		logger.Warn("GetProduct: failed to increment views for %s: %v", id, err)
	} else {
		product.Views++
	}

	return entity.NewProductView(product, uc.lookupUser(ctx, product.SellerID)), nil
}

func (uc *ProductUseCase) ListProducts(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	filter := entity.ProductFilter{
		Search:    strings.TrimSpace(input.Search),
		Category:  input.Category,
		Condition: input.Condition,
		MinPrice:  input.MinPrice,
		MaxPrice:  input.MaxPrice,
		Status:    entity.ProductStatusActive,
		SortBy:    input.SortBy,
		Limit:     input.Limit,
		Offset:    (input.Page - 1) * input.Limit,
	}

	products, total, err := uc.productRepo.List(ctx, filter)
	if err != nil {
		logger.Error("ListProducts Error: %v", err)
		return nil, err
	}

	totalPages := utils.TotalPages(total, input.Limit)

	return &ProductPage{
		Products: uc.views(ctx, products),
		Pagination: Pagination{
			CurrentPage:   input.Page,
			TotalPages:    totalPages,
			TotalProducts: total,
			HasNext:       input.Page < totalPages,
			HasPrev:       input.Page > 1,
		},
	}, nil
}

// ListSellerProducts returns a seller's listings that are still visible:
// active and sold ones.
func (uc *ProductUseCase) ListSellerProducts(ctx context.Context, sellerID string) ([]*entity.ProductView, error) {
	products, err := uc.productRepo.ListBySellerID(ctx, sellerID, []string{entity.ProductStatusActive, entity.ProductStatusSold})
	if err != nil {
		return nil, err
	}
	return uc.views(ctx, products), nil
}

func (uc *ProductUseCase) UpdateProduct(ctx context.Context, userID, productID string, input UpdateProductInput) (*entity.ProductView, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.SellerID != userID {
		return nil, errors.Forbidden("Not authorized to update this product", nil)
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Condition != nil {
		product.Condition = *input.Condition
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Location != nil {
		product.Location = strings.TrimSpace(*input.Location)
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	if input.Tags != nil {
		product.Tags = normalizeTags(input.Tags)
	}
	if input.Specifications != nil {
		product.Specifications = input.Specifications
	}
	if input.Negotiable != nil {
		product.Negotiable = *input.Negotiable
	}
	if input.DeliveryOptions != nil {
		product.DeliveryOptions = input.DeliveryOptions
	}
	product.UpdatedAt = uc.now()

	if err := uc.productRepo.Update(ctx, product); err != nil {
		logger.Error("UpdateProduct Error: %v", err)
		return nil, err
	}

	return entity.NewProductView(product, uc.lookupUser(ctx, product.SellerID)), nil
}

func (uc *ProductUseCase) DeleteProduct(ctx context.Context, userID, productID string) error {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if product.SellerID != userID {
		return errors.Forbidden("Not authorized to delete this product", nil)
	}

	if err := uc.productRepo.Delete(ctx, productID); err != nil {
		logger.Error("DeleteProduct Error: %v", err)
		return err
	}
	return nil
}

// views attaches seller summaries, loading each seller once.
func (uc *ProductUseCase) views(ctx context.Context, products []*entity.Product) []*entity.ProductView {
	sellers := make(map[string]*entity.User)
	views := make([]*entity.ProductView, 0, len(products))
	for _, p := range products {
		seller, ok := sellers[p.SellerID]
		if !ok {
			seller = uc.lookupUser(ctx, p.SellerID)
			sellers[p.SellerID] = seller
		}
		views = append(views, entity.NewProductView(p, seller))
	}
	return views
}

func (uc *ProductUseCase) lookupUser(ctx context.Context, id string) *entity.User {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		logger.Warn("Seller %s could not be loaded: %v", id, err)
		return nil
	}
	return user
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
