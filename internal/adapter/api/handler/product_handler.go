package handler

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/domain/entity"
	"sellnext/internal/usecase"
	"sellnext/pkg/errors"
	"sellnext/pkg/response"
	"sellnext/pkg/utils"
)

const (
	defaultProductLimit = 12
	maxProductLimit     = 50
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

type createProductRequest struct {
	Title           string            `json:"title" validate:"required,min=3,max=100"`
	Description     string            `json:"description" validate:"required,min=10,max=1000"`
	Price           *float64          `json:"price" validate:"required,gte=0"`
	OriginalPrice   *float64          `json:"original_price" validate:"omitempty,gte=0"`
	Category        string            `json:"category" validate:"required,category"`
	Condition       string            `json:"condition" validate:"required,condition"`
	Images          []string          `json:"images" validate:"required,min=1,max=10,dive,required"`
	Location        string            `json:"location" validate:"required,min=2,max=100"`
	Tags            []string          `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	Specifications  map[string]string `json:"specifications"`
	Negotiable      *bool             `json:"negotiable"`
	DeliveryOptions []string          `json:"delivery_options" validate:"omitempty,dive,delivery"`
}

type updateProductRequest struct {
	Title           *string           `json:"title" validate:"omitempty,min=3,max=100"`
	Description     *string           `json:"description" validate:"omitempty,min=10,max=1000"`
	Price           *float64          `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice   *float64          `json:"original_price" validate:"omitempty,gte=0"`
	Category        *string           `json:"category" validate:"omitempty,category"`
	Condition       *string           `json:"condition" validate:"omitempty,condition"`
	Images          []string          `json:"images" validate:"omitempty,min=1,max=10,dive,required"`
	Location        *string           `json:"location" validate:"omitempty,min=2,max=100"`
	Status          *string           `json:"status" validate:"omitempty,oneof=active sold pending inactive"`
	Tags            []string          `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	Specifications  map[string]string `json:"specifications"`
	Negotiable      *bool             `json:"negotiable"`
	DeliveryOptions []string          `json:"delivery_options" validate:"omitempty,dive,delivery"`
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	minPrice, err := queryFloat(c, "min_price")
	if err != nil {
		return response.Error(c, err)
	}
	maxPrice, err := queryFloat(c, "max_price")
	if err != nil {
		return response.Error(c, err)
	}

	sortBy := c.QueryParam("sort_by")
	switch sortBy {
	case "", entity.SortNewest, entity.SortOldest, entity.SortPriceLow, entity.SortPriceHigh, entity.SortPopular:
	default:
		return response.Error(c, errors.BadRequest("Unsupported sort_by value", nil))
	}

	pagination := utils.GetPaginationParams(c, defaultProductLimit, maxProductLimit)

	page, err := h.productUseCase.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
		Condition: c.QueryParam("condition"),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		SortBy:    sortBy,
		Page:      pagination.Page,
		Limit:     pagination.PageSize,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, page)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.productUseCase.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"product": product})
}

func (h *ProductHandler) ListSellerProducts(c echo.Context) error {
	products, err := h.productUseCase.ListSellerProducts(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"products": products})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.CreateProduct(c.Request().Context(), currentUserID(c), usecase.CreateProductInput{
		Title:           req.Title,
		Description:     req.Description,
		Price:           *req.Price,
		OriginalPrice:   req.OriginalPrice,
		Category:        req.Category,
		Condition:       req.Condition,
		Images:          req.Images,
		Location:        req.Location,
		Tags:            req.Tags,
		Specifications:  req.Specifications,
		Negotiable:      req.Negotiable,
		DeliveryOptions: req.DeliveryOptions,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, "Product created successfully", map[string]interface{}{"product": product})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.UpdateProduct(c.Request().Context(), currentUserID(c), c.Param("id"), usecase.UpdateProductInput{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		OriginalPrice:   req.OriginalPrice,
		Category:        req.Category,
		Condition:       req.Condition,
		Images:          req.Images,
		Location:        req.Location,
		Status:          req.Status,
		Tags:            req.Tags,
		Specifications:  req.Specifications,
		Negotiable:      req.Negotiable,
		DeliveryOptions: req.DeliveryOptions,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, "Product updated successfully", map[string]interface{}{"product": product})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.productUseCase.DeleteProduct(c.Request().Context(), currentUserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, "Product deleted successfully", nil)
}
