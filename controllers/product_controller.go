package controllers

import (
	"net/http"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/services"

	"github.com/gin-gonic/gin"
)

// ProductController serves the supplier's catalog.
type ProductController struct {
	catalog   CatalogAPI
	users     UserLookup
	validator *RequestValidator
}

func NewProductController(catalog CatalogAPI, users UserLookup) *ProductController {
	return &ProductController{catalog: catalog, users: users, validator: NewRequestValidator()}
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := pc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, pc.users)
	if supplier == nil {
		return
	}
	product, err := pc.catalog.CreateProduct(ctx, supplier, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (pc *ProductController) ListProducts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, pc.users)
	if supplier == nil {
		return
	}
	products, err := pc.catalog.ListProducts(ctx, supplier.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, gin.H{"products": products, "total": len(products)})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := pc.validator.ParseUUIDParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.catalog.GetProduct(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, product)
}

func (pc *ProductController) PresignImageUpload(c *gin.Context) {
	var req PresignRequest
	if err := pc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, pc.users)
	if supplier == nil {
		return
	}
	upload, err := pc.catalog.PresignImageUpload(ctx, supplier, req.ProductName, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, gin.H{
		"upload_url": upload.UploadURL,
		"method":     http.MethodPut,
		"key":        upload.Key,
		"expires_in": upload.ExpiresIn,
	})
}

func (pc *ProductController) PutBacksideInfo(c *gin.Context) {
	var info models.BacksideInfo
	if err := pc.validator.BindJSON(c, &info); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	supplier := currentUser(c, ctx, pc.users)
	if supplier == nil {
		return
	}
	if err := pc.catalog.PutBacksideInfo(ctx, supplier, info); err != nil {
		handleServiceError(c, err)
		return
	}
	ok(c, info)
}
