package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/auth"
	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/remote"
	"github.com/sambafall/comptoir/internal/service/orders"
	"github.com/sambafall/comptoir/internal/service/reporting"
	"github.com/sambafall/comptoir/internal/store"
	"github.com/sambafall/comptoir/internal/syncer"
)

// APIHandler exposes the cached collections, the reports and the write
// operations over HTTP. Reads never touch the remote store; writes go through
// the coordinator and come back via the reconciler.
type APIHandler struct {
	cache    *store.Store
	reports  *reporting.Service
	coord    *orders.Coordinator
	engine   *syncer.Engine
	sessions *auth.Manager
	logger   *zap.Logger
}

// NewAPIHandler constructs the HTTP handler adapter.
func NewAPIHandler(cache *store.Store, reports *reporting.Service, coord *orders.Coordinator,
	engine *syncer.Engine, sessions *auth.Manager, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		cache:    cache,
		reports:  reports,
		coord:    coord,
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession rejects API calls until an operator has logged in.
func (h *APIHandler) RequireSession(c *gin.Context) {
	if !h.sessions.Active() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.Next()
}

// Login activates the operator session, which starts the sync engine.
func (h *APIHandler) Login(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.Login(req.Token); err != nil {
		h.logger.Warn("login rejected", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": true})
}

// Logout deactivates the session, which stops the sync engine.
func (h *APIHandler) Logout(c *gin.Context) {
	h.sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"active": false})
}

// SyncStatus reports the subscription state per collection.
func (h *APIHandler) SyncStatus(c *gin.Context) {
	status := h.engine.Status()
	out := make(map[string]gin.H, len(status))
	for coll, st := range status {
		entry := gin.H{"state": st}
		if err := h.engine.LastError(coll); err != nil {
			entry["error"] = err.Error()
		}
		out[string(coll)] = entry
	}
	c.JSON(http.StatusOK, out)
}

func (h *APIHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Products())
}

func (h *APIHandler) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Customers())
}

// ListOrders serves orders in the remote's date-descending order.
func (h *APIHandler) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Orders())
}

func (h *APIHandler) ListExpenses(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Expenses())
}

func (h *APIHandler) ListPayments(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Payments())
}

func (h *APIHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Settings())
}

// Dashboard serves the headline stats, defaulting to today when no period is
// given.
func (h *APIHandler) Dashboard(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.reports.Dashboard(period))
}

func (h *APIHandler) TopSellers(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.TopSellers())
}

func (h *APIHandler) InventoryValuation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valuation": h.reports.InventoryValuation()})
}

func (h *APIHandler) CategoryTotals(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if period == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required"})
		return
	}
	c.JSON(http.StatusOK, h.reports.CategoryTotals(*period))
}

// CreateOrder runs the confirmed cart through the write coordinator.
func (h *APIHandler) CreateOrder(c *gin.Context) {
	var input orders.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.coord.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// RetryOrderSteps re-issues the follow-up writes of a partially failed order.
func (h *APIHandler) RetryOrderSteps(c *gin.Context) {
	var req struct {
		Steps []orders.Step `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.coord.RetrySteps(c.Request.Context(), c.Param("id"), req.Steps); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateOrderStatus moves an order through its lifecycle.
func (h *APIHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.coord.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CollectPayment records a credit settlement for a customer.
func (h *APIHandler) CollectPayment(c *gin.Context) {
	var input orders.CollectPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input.CustomerID = c.Param("id")

	payment, err := h.coord.CollectPayment(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *APIHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.coord.AddProduct(c.Request.Context(), product)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	product.ID = c.Param("id")

	if err := h.coord.UpdateProduct(c.Request.Context(), product); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.coord.AddCustomer(c.Request.Context(), customer)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) CreateExpense(c *gin.Context) {
	var expense models.Expense
	if err := c.ShouldBindJSON(&expense); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.coord.AddExpense(c.Request.Context(), expense)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.coord.UpdateSettings(c.Request.Context(), settings); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps coordinator errors onto HTTP responses. Partial failures
// carry the remaining steps so the client can offer a retry.
func (h *APIHandler) writeError(c *gin.Context, err error) {
	var gateErr *orders.CreditGateError
	var partial *orders.PartialFailureError

	switch {
	case errors.As(err, &gateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":         gateErr.Error(),
			"projected":     gateErr.Projected,
			"creditLimit":   gateErr.CreditLimit,
			"overdueOrders": gateErr.OverdueOrders,
		})
	case errors.As(err, &partial):
		h.logger.Error("partial write failure",
			zap.String("op", partial.Op), zap.String("entity_id", partial.EntityID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "recorded but some follow-up writes failed",
			"op":       partial.Op,
			"entityId": partial.EntityID,
			"steps":    partial.Steps,
		})
	case errors.Is(err, orders.ErrUnknownProduct),
		errors.Is(err, orders.ErrUnknownCustomer),
		errors.Is(err, orders.ErrUnknownOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrNoCustomer),
		errors.Is(err, orders.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, remote.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "remote store denied the write"})
	default:
		h.logger.Error("write failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote write failed"})
	}
}

// periodFromQuery parses optional from/to date parameters. Both must be given
// together; the range is half-open, so to is exclusive.
func periodFromQuery(c *gin.Context) (*reporting.Period, error) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}
	if fromStr == "" || toStr == "" {
		return nil, errors.New("from and to must be provided together")
	}

	from, err := parseDate(fromStr)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(toStr)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, errors.New("from must precede to")
	}
	return &reporting.Period{From: from, To: to}, nil
}

func parseDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}
