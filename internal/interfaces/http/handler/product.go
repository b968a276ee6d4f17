package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
)

// ProductHandler serves the product catalogue
type ProductHandler struct {
	BaseHandler
	products *partnerapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *partnerapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
//
//	@Summary	List products
//	@Tags		products
//	@Param		search		query		string	false	"Name fragment"
//	@Param		category_id	query		string	false	"Category"
//	@Param		active_only	query		bool	false	"Hide deactivated products"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter partnerapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get a product
//	@Tags		products
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
//
//	@Summary	Create a product
//	@Tags		products
//	@Accept		json
//	@Param		request	body		partnerapp.CreateProductRequest	true	"Product"
//	@Success	201		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req partnerapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update godoc
//
//	@Summary	Update a product
//	@Tags		products
//	@Accept		json
//	@Param		id		path		string							true	"Product ID"
//	@Param		request	body		partnerapp.UpdateProductRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req partnerapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate hides a product from new documents
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	product, err := h.products.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate makes a product available again
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	product, err := h.products.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
