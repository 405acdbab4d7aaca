package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
	"github.com/stockalloc/engine/internal/interfaces/http/dto"
	"github.com/stockalloc/engine/internal/interfaces/http/middleware"
)

// AllocationHandler handles item, stock and allocation API endpoints
type AllocationHandler struct {
	BaseHandler
	service *appalloc.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(service *appalloc.AllocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// RegisterRoutes registers all allocation routes
func (h *AllocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/items", h.RegisterItem)
	rg.GET("/items", h.ListItems)
	rg.GET("/items/:id", h.GetItem)
	rg.DELETE("/items/:id", h.DeleteItem)
	rg.GET("/item-numbers/:item_no", h.GetItemByNo)

	rg.POST("/items/:id/stock", h.AddStock)
	rg.GET("/items/:id/stock", h.GetStock)
	rg.GET("/items/:id/requirements", h.GetRequirements)

	rg.POST("/items/:id/plan", h.Plan)
	rg.POST("/items/:id/plan/preview", h.Preview)
	rg.POST("/items/:id/reallocate", h.Reallocate)
	rg.POST("/items/:id/release", h.Release)

	rg.GET("/items/:id/history", h.History)
	rg.GET("/items/:id/projects/:project/stock", h.ProjectAllocations)
	rg.GET("/projects/:project/history", h.ProjectHistory)
}

func itemIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RegisterItem registers a new inventory item
func (h *AllocationHandler) RegisterItem(c *gin.Context) {
	var req appalloc.RegisterItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.service.RegisterItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem returns one inventory item
func (h *AllocationHandler) GetItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetItemByNo returns one inventory item looked up by its item number
func (h *AllocationHandler) GetItemByNo(c *gin.Context) {
	item, err := h.service.GetItemByNo(c.Request.Context(), c.Param("item_no"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem removes an inventory item without ledger rows
func (h *AllocationHandler) DeleteItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListItems lists inventory items with pagination and search
func (h *AllocationHandler) ListItems(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	filter := shared.DefaultFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.Search = req.Search

	page, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// AddStock adds units to a location's total for an item
func (h *AllocationHandler) AddStock(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req appalloc.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	stock, err := h.service.AddStock(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// GetStock returns the per-location ledgers for an item
func (h *AllocationHandler) GetStock(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	stocks, err := h.service.GetStock(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stocks)
}

// GetRequirements returns the item's project requirements in allocation order
func (h *AllocationHandler) GetRequirements(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	requirements, err := h.service.GetRequirements(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requirements)
}

// Plan applies a proposed allocation atomically
func (h *AllocationHandler) Plan(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req appalloc.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.Plan(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Preview evaluates a proposed allocation without applying it
func (h *AllocationHandler) Preview(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req appalloc.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Reallocate moves claim units from one project to another
func (h *AllocationHandler) Reallocate(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req appalloc.ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.Reallocate(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Release returns claim units to available stock
func (h *AllocationHandler) Release(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req appalloc.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.Release(c.Request.Context(), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// History returns the item's audit trail, oldest first
func (h *AllocationHandler) History(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var filter appalloc.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.service.History(c.Request.Context(), itemID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ProjectAllocations returns the item's ledgers where the project holds a claim
func (h *AllocationHandler) ProjectAllocations(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	stocks, err := h.service.ProjectAllocations(c.Request.Context(), itemID, c.Param("project"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stocks)
}

// ProjectHistory returns a project's audit trail across all items, oldest first
func (h *AllocationHandler) ProjectHistory(c *gin.Context) {
	var filter appalloc.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	entries, err := h.service.ProjectHistory(c.Request.Context(), c.Param("project"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
