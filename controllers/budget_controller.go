package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack_backend/services"
)

// BudgetController handles budget CRUD and aggregation.
type BudgetController struct {
	budgets *services.BudgetService
}

// NewBudgetController creates a new budget controller.
func NewBudgetController(budgets *services.BudgetService) *BudgetController {
	return &BudgetController{budgets: budgets}
}

// Create creates a budget
// POST /api/v1/budgets
func (bc *BudgetController) Create(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	var input services.BudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	budget, err := bc.budgets.CreateBudget(c.Request.Context(), userID, input)
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, budget)
}

// List returns the user's budgets
// GET /api/v1/budgets
func (bc *BudgetController) List(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	budgets, err := bc.budgets.ListBudgets(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, budgets)
}

// Get returns one budget
// GET /api/v1/budgets/:id
func (bc *BudgetController) Get(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	budget, err := bc.budgets.GetBudget(c.Request.Context(), id, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, budget)
}

// Update replaces a budget
// PUT /api/v1/budgets/:id
func (bc *BudgetController) Update(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input services.BudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	budget, err := bc.budgets.UpdateBudget(c.Request.Context(), id, userID, input)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, budget)
}

// Delete removes a budget
// DELETE /api/v1/budgets/:id
func (bc *BudgetController) Delete(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := bc.budgets.DeleteBudget(c.Request.Context(), id, userID); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}

// Convert expresses one budget in another currency
// GET /api/v1/budgets/:id/convert?to=EUR
func (bc *BudgetController) Convert(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	to := c.Query("to")
	if to == "" {
		fail(c, http.StatusBadRequest, "Target currency is required")
		return
	}

	result, err := bc.budgets.ConvertBudget(c.Request.Context(), id, userID, to)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"from":             result.From,
		"to":               result.To,
		"original_amount":  result.Amount,
		"converted_amount": result.ConvertedAmount.Round(2),
		"rate":             result.Rate.Round(5),
	})
}

// Summary totals the user's budgets in one currency
// GET /api/v1/budgets/summary?base=USD
func (bc *BudgetController) Summary(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	base := c.DefaultQuery("base", "USD")

	summary, err := bc.budgets.Summary(c.Request.Context(), userID, base)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, summary)
}
