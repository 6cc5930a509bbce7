package service_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bharatlinker/product-service/internal/domain"
	"github.com/bharatlinker/product-service/internal/repository"
	"github.com/bharatlinker/product-service/internal/service"
)

// MockProductStore is a mock implementation of service.ProductStore
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductStore) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStore) Update(ctx context.Context, id primitive.ObjectID, update domain.ProductUpdate) (*domain.Product, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStore) SetImages(ctx context.Context, id primitive.ObjectID, images []string) error {
	args := m.Called(ctx, id, images)
	return args.Error(0)
}

func (m *MockProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStore) FindByShop(ctx context.Context, shopID primitive.ObjectID, page, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, shopID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductStore) Find(ctx context.Context, query *repository.ProductQuery) ([]domain.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductStore) Count(ctx context.Context, query *repository.ProductQuery) (int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductStore) SampleByPincodes(ctx context.Context, pincodes []int, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, pincodes, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductStore) CountByPincodes(ctx context.Context, pincodes []int) (int64, error) {
	args := m.Called(ctx, pincodes)
	return args.Get(0).(int64), args.Error(1)
}

// MockImageStore is a mock implementation of imagestore.Store
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

func newService(store *MockProductStore, images *MockImageStore) *service.ProductService {
	return service.NewProductService(store, images, nil, zap.NewNop(), 10)
}

func TestProductService_Create_RequiresImages(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	_, err := svc.Create(context.Background(), service.CreateProductInput{
		Shop: primitive.NewObjectID().Hex(),
	})

	assert.ErrorIs(t, err, service.ErrNoImages)
	store.AssertNotCalled(t, "Create")
	images.AssertNotCalled(t, "Upload")
}

func TestProductService_Create_RequiresShop(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	_, err := svc.Create(context.Background(), service.CreateProductInput{
		Shop:   "not-an-object-id",
		Images: []service.ImageFile{{Name: "a.jpg", Data: []byte("x")}},
	})

	assert.ErrorIs(t, err, service.ErrInvalidShopID)
}

func TestProductService_Create_StoresImageURLsInUploadOrder(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	shopID := primitive.NewObjectID()
	images.On("Upload", mock.Anything, "a.jpg", mock.Anything).Return("https://cdn/products/a.jpg", nil).Once()
	images.On("Upload", mock.Anything, "b.jpg", mock.Anything).Return("https://cdn/products/b.jpg", nil).Once()
	images.On("Upload", mock.Anything, "c.jpg", mock.Anything).Return("https://cdn/products/c.jpg", nil).Once()

	var saved *domain.Product
	store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Product)
	}).Return(nil).Once()

	product, err := svc.Create(context.Background(), service.CreateProductInput{
		Title:    "Running shoes",
		Price:    250,
		Shop:     shopID.Hex(),
		PinCodes: []int{110001},
		Images: []service.ImageFile{
			{Name: "a.jpg", Data: []byte("a")},
			{Name: "b.jpg", Data: []byte("b")},
			{Name: "c.jpg", Data: []byte("c")},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn/products/a.jpg",
		"https://cdn/products/b.jpg",
		"https://cdn/products/c.jpg",
	}, product.Images)
	assert.Equal(t, shopID, saved.Shop)
	store.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProductService_Create_UploadFailureAborts(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	images.On("Upload", mock.Anything, "a.jpg", mock.Anything).Return("", errors.New("storage down"))

	_, err := svc.Create(context.Background(), service.CreateProductInput{
		Shop:   primitive.NewObjectID().Hex(),
		Images: []service.ImageFile{{Name: "a.jpg", Data: []byte("a")}},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage down")
	store.AssertNotCalled(t, "Create")
}

func TestProductService_Update_RejectsEmptyUpdate(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), domain.ProductUpdate{})

	assert.ErrorIs(t, err, service.ErrNoFields)
	store.AssertNotCalled(t, "Update")
}

func TestProductService_Update_NotFound(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	title := "New title"
	store.On("Update", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repository.ErrProductNotFound).Once()

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), domain.ProductUpdate{Title: &title})

	assert.ErrorIs(t, err, service.ErrProductNotFound)
	store.AssertExpectations(t)
}

func TestProductService_AddImages_AppendsToExistingList(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	id := primitive.NewObjectID()
	existing := &domain.Product{ID: id, Images: []string{"https://cdn/products/old.jpg"}}

	store.On("GetByID", mock.Anything, id).Return(existing, nil).Once()
	images.On("Upload", mock.Anything, "new.jpg", mock.Anything).Return("https://cdn/products/new.jpg", nil).Once()
	store.On("SetImages", mock.Anything, id,
		[]string{"https://cdn/products/old.jpg", "https://cdn/products/new.jpg"}).Return(nil).Once()

	urls, err := svc.AddImages(context.Background(), id.Hex(),
		[]service.ImageFile{{Name: "new.jpg", Data: []byte("n")}})

	assert.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/products/new.jpg"}, urls)
	store.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProductService_RemoveImage_NotInList(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	id := primitive.NewObjectID()
	store.On("GetByID", mock.Anything, id).
		Return(&domain.Product{ID: id, Images: []string{"https://cdn/products/a.jpg"}}, nil).Once()

	_, err := svc.RemoveImage(context.Background(), id.Hex(), "https://cdn/products/missing.jpg")

	assert.ErrorIs(t, err, service.ErrImageNotFound)
	images.AssertNotCalled(t, "Delete")
	store.AssertNotCalled(t, "SetImages")
}

func TestProductService_RemoveImage_DeletesObjectAndEntry(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	id := primitive.NewObjectID()
	store.On("GetByID", mock.Anything, id).
		Return(&domain.Product{ID: id, Images: []string{
			"https://cdn/products/a.jpg",
			"https://cdn/products/b.jpg",
		}}, nil).Once()
	images.On("Delete", mock.Anything, "https://cdn/products/a.jpg").Return(nil).Once()
	store.On("SetImages", mock.Anything, id, []string{"https://cdn/products/b.jpg"}).Return(nil).Once()

	remaining, err := svc.RemoveImage(context.Background(), id.Hex(), "https://cdn/products/a.jpg")

	assert.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/products/b.jpg"}, remaining)
	store.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProductService_Delete_NotFound(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	id := primitive.NewObjectID()
	store.On("GetByID", mock.Anything, id).Return(nil, repository.ErrProductNotFound).Once()

	err := svc.Delete(context.Background(), id.Hex())

	assert.ErrorIs(t, err, service.ErrProductNotFound)
	store.AssertNotCalled(t, "Delete")
}

// Image cleanup is best-effort: one failed external delete must not keep
// the record alive, and every image still gets a delete call.
func TestProductService_Delete_BestEffortImageCleanup(t *testing.T) {
	store := new(MockProductStore)
	images := new(MockImageStore)
	svc := newService(store, images)

	id := primitive.NewObjectID()
	store.On("GetByID", mock.Anything, id).
		Return(&domain.Product{ID: id, Images: []string{
			"https://cdn/products/a.jpg",
			"https://cdn/products/b.jpg",
			"https://cdn/products/c.jpg",
		}}, nil).Once()

	images.On("Delete", mock.Anything, "https://cdn/products/a.jpg").Return(nil).Once()
	images.On("Delete", mock.Anything, "https://cdn/products/b.jpg").Return(errors.New("cdn timeout")).Once()
	images.On("Delete", mock.Anything, "https://cdn/products/c.jpg").Return(nil).Once()
	store.On("Delete", mock.Anything, id).Return(nil).Once()

	err := svc.Delete(context.Background(), id.Hex())

	assert.NoError(t, err)
	store.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProductService_List_ReturnsTotalsIndependentOfPage(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	pageItems := []domain.Product{{Title: "A"}, {Title: "B"}}
	store.On("Find", mock.Anything, mock.Anything).Return(pageItems, nil).Once()
	store.On("Count", mock.Anything, mock.Anything).Return(int64(42), nil).Once()

	params := url.Values{"price": {"100-500"}, "page": {"2"}}
	list, err := svc.List(context.Background(), params)

	assert.NoError(t, err)
	assert.Equal(t, pageItems, list.Products)
	assert.Equal(t, int64(42), list.TotalProducts)
	assert.Equal(t, 10, list.ResultsPerPage)
	store.AssertExpectations(t)
}

func TestProductService_List_InvalidFilterRejected(t *testing.T) {
	store := new(MockProductStore)
	badQuery := repository.NewProductQuery(url.Values{"price": {"abc-10"}}).FilterPrice()
	_, _, wantErr := badQuery.Build()
	assert.ErrorIs(t, wantErr, repository.ErrInvalidFilter)

	store.On("Find", mock.Anything, mock.Anything).Return(nil, wantErr).Once()
	svc := newService(store, new(MockImageStore))

	_, err := svc.List(context.Background(), url.Values{"price": {"abc-10"}})
	assert.ErrorIs(t, err, repository.ErrInvalidFilter)
}

func TestProductService_Homepage_EmptySampleIsNotFound(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	store.On("SampleByPincodes", mock.Anything, []int{110001}, 10).
		Return([]domain.Product{}, nil).Once()

	_, err := svc.Homepage(context.Background(), []int{110001}, 1, 10)

	assert.ErrorIs(t, err, service.ErrProductNotFound)
	store.AssertNotCalled(t, "CountByPincodes")
}

func TestProductService_Homepage_TotalPages(t *testing.T) {
	store := new(MockProductStore)
	svc := newService(store, new(MockImageStore))

	sample := []domain.Product{{Title: "A", PinCodes: []int{110001}}}
	store.On("SampleByPincodes", mock.Anything, []int{110001, 110002}, 10).Return(sample, nil).Once()
	store.On("CountByPincodes", mock.Anything, []int{110001, 110002}).Return(int64(25), nil).Once()

	result, err := svc.Homepage(context.Background(), []int{110001, 110002}, 2, 10)

	assert.NoError(t, err)
	assert.Equal(t, int64(25), result.TotalProducts)
	assert.Equal(t, int64(3), result.TotalPages)
	assert.Equal(t, 2, result.CurrentPage)
	store.AssertExpectations(t)
}
