package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bharatlinker/product-service/internal/domain"
	"github.com/bharatlinker/product-service/internal/events"
	"github.com/bharatlinker/product-service/internal/imagestore"
	"github.com/bharatlinker/product-service/internal/repository"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrImageNotFound    = errors.New("image not found in the product")
	ErrNoImages         = errors.New("no images provided")
	ErrNoFields         = errors.New("no fields to update")
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidShopID    = errors.New("invalid shop id")
)

// ProductStore is the persistence surface the service depends on.
type ProductStore interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, update domain.ProductUpdate) (*domain.Product, error)
	SetImages(ctx context.Context, id primitive.ObjectID, images []string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByShop(ctx context.Context, shopID primitive.ObjectID, page, limit int) ([]domain.Product, error)
	Find(ctx context.Context, query *repository.ProductQuery) ([]domain.Product, error)
	Count(ctx context.Context, query *repository.ProductQuery) (int64, error)
	SampleByPincodes(ctx context.Context, pincodes []int, limit int) ([]domain.Product, error)
	CountByPincodes(ctx context.Context, pincodes []int) (int64, error)
}

// EventPublisher emits catalog lifecycle events. Publishing is best-effort.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, eventType, productID, shopID string) error
}

// ImageFile is one uploaded image buffer.
type ImageFile struct {
	Name string
	Data []byte
}

type CreateProductInput struct {
	Title             string
	Description       string
	Price             float64
	DiscountedPrice   float64
	QuantityAvailable int
	Category          string
	Brand             []string
	Keywords          []string
	PinCodes          []int
	Shop              string
	Images            []ImageFile
}

type ProductService struct {
	productRepo    ProductStore
	images         imagestore.Store
	publisher      EventPublisher
	logger         *zap.Logger
	resultsPerPage int
}

func NewProductService(productRepo ProductStore, images imagestore.Store, publisher EventPublisher, logger *zap.Logger, resultsPerPage int) *ProductService {
	return &ProductService{
		productRepo:    productRepo,
		images:         images,
		publisher:      publisher,
		logger:         logger,
		resultsPerPage: resultsPerPage,
	}
}

// Create uploads every image and persists a new product. Uploads run
// concurrently but the stored URL list keeps the submission order.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	shopID, err := primitive.ObjectIDFromHex(input.Shop)
	if err != nil {
		return nil, ErrInvalidShopID
	}
	if len(input.Images) == 0 {
		return nil, ErrNoImages
	}

	urls := make([]string, len(input.Images))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range input.Images {
		i, file := i, file
		g.Go(func() error {
			uploaded, err := s.images.Upload(gctx, file.Name, file.Data)
			if err != nil {
				return fmt.Errorf("failed to upload image %q: %w", file.Name, err)
			}
			urls[i] = uploaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Title:             input.Title,
		Description:       input.Description,
		Price:             input.Price,
		DiscountedPrice:   input.DiscountedPrice,
		QuantityAvailable: input.QuantityAvailable,
		Category:          input.Category,
		Brand:             input.Brand,
		Keywords:          input.Keywords,
		PinCodes:          input.PinCodes,
		Images:            urls,
		Shop:              shopID,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to save product",
			zap.String("title", product.Title),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("shop", shopID.Hex()),
		zap.Int("images", len(urls)))

	s.publish(ctx, events.TypeProductCreated, product)
	return product, nil
}

// Update applies a partial update. An empty update set is rejected before
// any store call.
func (s *ProductService) Update(ctx context.Context, productID string, update domain.ProductUpdate) (*domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrInvalidProductID
	}
	if update.Empty() {
		return nil, ErrNoFields
	}

	product, err := s.productRepo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.publish(ctx, events.TypeProductUpdated, product)
	return product, nil
}

// AddImages uploads additional images and appends their URLs to the
// product's existing list, preserving upload order.
func (s *ProductService) AddImages(ctx context.Context, productID string, files []ImageFile) ([]string, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrInvalidProductID
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			uploaded, err := s.images.Upload(gctx, file.Name, file.Data)
			if err != nil {
				return fmt.Errorf("failed to upload image %q: %w", file.Name, err)
			}
			urls[i] = uploaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.productRepo.SetImages(ctx, id, append(product.Images, urls...)); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeProductUpdated, product)
	return urls, nil
}

// RemoveImage deletes an image from external storage and drops its URL
// from the product's list. The URL must match an entry exactly.
func (s *ProductService) RemoveImage(ctx context.Context, productID, imageURL string) ([]string, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrInvalidProductID
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	index := -1
	for i, img := range product.Images {
		if img == imageURL {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, ErrImageNotFound
	}

	if err := s.images.Delete(ctx, imageURL); err != nil {
		return nil, err
	}

	remaining := append(append([]string{}, product.Images[:index]...), product.Images[index+1:]...)
	if err := s.productRepo.SetImages(ctx, id, remaining); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeProductUpdated, product)
	return remaining, nil
}

// Delete removes every associated external image concurrently, then the
// record. Image deletions are best-effort: failures are logged and never
// block the record deletion.
func (s *ProductService) Delete(ctx context.Context, productID string) error {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrInvalidProductID
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	var wg sync.WaitGroup
	for _, img := range product.Images {
		wg.Add(1)
		go func(imageURL string) {
			defer wg.Done()
			if err := s.images.Delete(ctx, imageURL); err != nil {
				s.logger.Warn("Failed to delete product image",
					zap.String("product_id", productID),
					zap.String("image", imageURL),
					zap.Error(err))
			}
		}(img)
	}
	wg.Wait()

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", productID),
		zap.Int("images", len(product.Images)))

	s.publish(ctx, events.TypeProductDeleted, product)
	return nil
}

func (s *ProductService) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrInvalidProductID
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) ListByShop(ctx context.Context, shopID string, page, limit int) ([]domain.Product, error) {
	id, err := primitive.ObjectIDFromHex(shopID)
	if err != nil {
		return nil, ErrInvalidShopID
	}
	return s.productRepo.FindByShop(ctx, id, page, limit)
}

// List runs the composed filter/search/sort/paginate query once, then a
// count over the same filters without pagination.
func (s *ProductService) List(ctx context.Context, params url.Values) (*domain.ProductListResponse, error) {
	query := repository.NewProductQuery(params).
		Search().
		FilterPincode().
		FilterCategory().
		FilterBrand().
		FilterPrice().
		SortPrice().
		Paginate(s.resultsPerPage)

	products, err := s.productRepo.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, query)
	if err != nil {
		return nil, err
	}

	return &domain.ProductListResponse{
		Message:        "Products retrieved successfully.",
		Products:       products,
		TotalProducts:  total,
		ResultsPerPage: s.resultsPerPage,
	}, nil
}

// Homepage returns a random sample of products deliverable to any of the
// given pincodes.
func (s *ProductService) Homepage(ctx context.Context, pincodes []int, page, limit int) (*domain.HomePageResponse, error) {
	products, err := s.productRepo.SampleByPincodes(ctx, pincodes, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}

	total, err := s.productRepo.CountByPincodes(ctx, pincodes)
	if err != nil {
		return nil, err
	}

	return &domain.HomePageResponse{
		Products:      products,
		TotalProducts: total,
		TotalPages:    int64(math.Ceil(float64(total) / float64(limit))),
		CurrentPage:   page,
	}, nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, product *domain.Product) {
	if s.publisher == nil {
		return
	}
	// Producer errors are already logged; mutations never fail on them.
	_ = s.publisher.PublishProductEvent(ctx, eventType, product.ID.Hex(), product.Shop.Hex())
}
