package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bharatlinker/product-service/internal/domain"
	"github.com/bharatlinker/product-service/internal/repository"
	"github.com/bharatlinker/product-service/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// POST /product/uploadproduct
func (h *ProductHandler) UploadProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid multipart form."})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No images provided."})
		return
	}

	pinCodes, err := parseIntList(strings.Join(form.Value["pincodes"], ","))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid pincode(s) provided."})
		return
	}

	input := service.CreateProductInput{
		Title:       formValue(form, "title"),
		Description: formValue(form, "description"),
		Category:    formValue(form, "category"),
		Shop:        formValue(form, "shop"),
		Brand:       splitList(strings.Join(form.Value["brand"], ",")),
		Keywords:    splitList(strings.Join(form.Value["keywords"], ",")),
		PinCodes:    pinCodes,
	}

	if v := formValue(form, "price"); v != "" {
		input.Price, err = strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid price provided."})
			return
		}
	}
	if v := formValue(form, "discountedPrice"); v != "" {
		input.DiscountedPrice, err = strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid discounted price provided."})
			return
		}
	}
	if v := formValue(form, "quantityAvailable"); v != "" {
		input.QuantityAvailable, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid quantity provided."})
			return
		}
	}

	input.Images, err = readFiles(files)
	if err != nil {
		h.logger.Error("Failed to read uploaded files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading uploaded images."})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err, "Error uploading product.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product uploaded successfully",
		"product": product,
	})
}

type updateProductRequest struct {
	Title             *string     `json:"title"`
	Description       *string     `json:"description"`
	Price             *flexFloat  `json:"price"`
	DiscountedPrice   *flexFloat  `json:"discountedPrice"`
	QuantityAvailable *flexInt    `json:"quantityAvailable"`
	Category          *string     `json:"category"`
	Brand             flexStrings `json:"brand"`
	Keywords          flexStrings `json:"keywords"`
	PinCodes          flexInts    `json:"pinCodes"`
}

// PUT /product/updateproductdata?productId=...
func (h *ProductHandler) UpdateProductData(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product ID is required."})
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body.", "error": err.Error()})
		return
	}

	update := domain.ProductUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Keywords:    req.Keywords,
		PinCodes:    req.PinCodes,
	}
	if req.Price != nil {
		price := float64(*req.Price)
		update.Price = &price
	}
	if req.DiscountedPrice != nil {
		price := float64(*req.DiscountedPrice)
		update.DiscountedPrice = &price
	}
	if req.QuantityAvailable != nil {
		qty := int(*req.QuantityAvailable)
		update.QuantityAvailable = &qty
	}

	product, err := h.productService.Update(c.Request.Context(), productID, update)
	if err != nil {
		h.respondError(c, err, "Server error occurred while updating product data.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully!",
		"product": product,
	})
}

// DELETE /product/deleteproduct?productId=...
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product ID is required."})
		return
	}

	if err := h.productService.Delete(c.Request.Context(), productID); err != nil {
		h.respondError(c, err, "Server error occurred while deleting product and images.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product and its images deleted successfully."})
}

// PUT /product/uploadproductimage
func (h *ProductHandler) UploadProductImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid multipart form."})
		return
	}

	productID := formValue(form, "productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product ID is required."})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No images were provided for upload."})
		return
	}

	images, err := readFiles(files)
	if err != nil {
		h.logger.Error("Failed to read uploaded files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading uploaded images."})
		return
	}

	urls, err := h.productService.AddImages(c.Request.Context(), productID, images)
	if err != nil {
		h.respondError(c, err, "Server error occurred while uploading images.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Images uploaded successfully!",
		"images":  urls,
	})
}

type deleteImageRequest struct {
	ProductID string `json:"productId" binding:"required"`
	ImageURL  string `json:"imageUrl" binding:"required"`
}

// DELETE /product/deleteproductimage
func (h *ProductHandler) DeleteProductImage(c *gin.Context) {
	var req deleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "productId and imageUrl are required."})
		return
	}

	remaining, err := h.productService.RemoveImage(c.Request.Context(), req.ProductID, req.ImageURL)
	if err != nil {
		h.respondError(c, err, "Server error occurred while deleting image.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Image deleted successfully.",
		"images":  remaining,
	})
}

// GET /product/getproductbyshopid?shopId=...&page=...&limit=...
func (h *ProductHandler) GetProductByShopID(c *gin.Context) {
	shopID := strings.TrimSpace(c.Query("shopId"))
	if shopID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Shop ID is required."})
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 10)

	products, err := h.productService.ListByShop(c.Request.Context(), shopID, page, limit)
	if err != nil {
		h.respondError(c, err, "Server error occurred while retrieving products.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Products retrieved successfully.",
		"products": products,
	})
}

// GET /product/getproductdetails?productId=...
func (h *ProductHandler) GetProductDetails(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product ID is required."})
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err, "Server error occurred while retrieving product details.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully.",
		"product": product,
	})
}

// GET /product/getproducts?price=&category=&brand=&pincode=&search=&sort=&page=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	list, err := h.productService.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.respondError(c, err, "Server error occurred while retrieving products.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /product/gethomepageproducts?pincodes=...&page=...&limit=...
func (h *ProductHandler) GetHomePageProducts(c *gin.Context) {
	pincodes, err := parseIntList(c.Query("pincodes"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Pincode array is required, cannot be empty, and must be valid numbers.",
		})
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 10)

	result, err := h.productService.Homepage(c.Request.Context(), pincodes, page, limit)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No products found for the given pincodes."})
			return
		}
		h.respondError(c, err, "Server error occurred while retrieving products.")
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps service errors onto the HTTP surface. Unrecognized
// errors become a 500 carrying the error detail.
func (h *ProductHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
	case errors.Is(err, service.ErrImageNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image not found in the product."})
	case errors.Is(err, service.ErrNoImages):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No images provided."})
	case errors.Is(err, service.ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update."})
	case errors.Is(err, service.ErrInvalidProductID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid Product ID format."})
	case errors.Is(err, service.ErrInvalidShopID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid Shop ID format."})
	case errors.Is(err, repository.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid filter parameter.", "error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback, "error": err.Error()})
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func readFiles(files []*multipart.FileHeader) ([]service.ImageFile, error) {
	images := make([]service.ImageFile, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, service.ImageFile{Name: fh.Filename, Data: data})
	}
	return images, nil
}
