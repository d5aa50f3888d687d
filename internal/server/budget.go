package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	budgetdomain "github.com/invobase/invobase/internal/budget/domain"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateExpenseCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	category, err := s.budgetSvc.CreateCategory(c.Request.Context(), targetOrgFrom(c), req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) ListExpenseCategories(c *gin.Context) {
	categories, err := s.budgetSvc.ListCategories(c.Request.Context(), targetOrgFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense_categories": categories})
}

type createBudgetRequest struct {
	UserID      string `json:"user_id"`
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (s *Server) CreateBudget(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID := p.UserID
	if strings.TrimSpace(req.UserID) != "" {
		parsed, err := snowflake.ParseString(req.UserID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		userID = parsed
	}
	categoryID, err := snowflake.ParseString(req.CategoryID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	budget, err := s.budgetSvc.CreateBudget(c.Request.Context(), budgetdomain.UpsertBudgetRequest{
		OrgID:       targetOrgFrom(c),
		UserID:      userID,
		CategoryID:  categoryID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

type updateBudgetRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

func (s *Server) UpdateBudget(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	budget, err := s.budgetSvc.UpdateBudgetAmount(c.Request.Context(), targetOrgFrom(c), id, req.AmountCents)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (s *Server) ListBudgets(c *gin.Context) {
	var userID *snowflake.ID
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		userID = &parsed
	}

	budgets, err := s.budgetSvc.ListBudgets(c.Request.Context(), targetOrgFrom(c), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}
