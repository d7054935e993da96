// Package http 费用引擎 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/application"
	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

type Handler struct {
	executor     *application.DealEquationExecutor
	transactions *application.TransactionService
	equations    *application.EquationService
	imports      *application.ImportService
}

func NewHandler(
	executor *application.DealEquationExecutor,
	transactions *application.TransactionService,
	equations *application.EquationService,
	imports *application.ImportService,
) *Handler {
	return &Handler{
		executor:     executor,
		transactions: transactions,
		equations:    equations,
		imports:      imports,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	fees := r.Group("/fees")
	{
		fees.POST("/calculate", h.Calculate)
		fees.POST("/import/preview", h.ImportPreview)
		fees.POST("/import/commit", h.ImportCommit)
	}
	r.POST("/transactions", h.CreateTransaction)
	r.GET("/transactions/:id", h.GetTransaction)
	r.GET("/deals/:id/equation", h.GetEquation)
	r.PUT("/deals/:id/equation", h.PutEquation)
	r.GET("/equations/templates", h.ListTemplates)
}

type discountReq struct {
	Component   string `json:"component" binding:"required"`
	Percent     string `json:"percent"`
	FixedAmount string `json:"fixed_amount"`
}

func (d discountReq) toDomain() (domain.DiscountInput, error) {
	component, _, err := domain.ParseComponentLabel(d.Component)
	if err != nil {
		return domain.DiscountInput{}, err
	}
	input := domain.DiscountInput{Component: component}
	if d.Percent != "" {
		pct, err := decimal.NewFromString(d.Percent)
		if err != nil {
			return domain.DiscountInput{}, err
		}
		input.Percent = pct
		input.IsPercent = true
	} else {
		fixed, err := decimal.NewFromString(d.FixedAmount)
		if err != nil {
			return domain.DiscountInput{}, err
		}
		input.FixedAmount = fixed
	}
	return input, nil
}

type calculateReq struct {
	DealID          string        `json:"deal_id" binding:"required"`
	InvestorID      string        `json:"investor_id"`
	GrossCapital    string        `json:"gross_capital"`
	Units           int64         `json:"units"`
	UnitPrice       string        `json:"unit_price" binding:"required"`
	Years           int           `json:"years"`
	Profit          string        `json:"profit"`
	ReturnedCapital string        `json:"returned_capital"`
	Discounts       []discountReq `json:"discounts"`
}

// Calculate 干跑计算，不做任何写入
func (h *Handler) Calculate(c *gin.Context) {
	var req calculateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txCtx, discounts, err := req.toContext()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.executor.Execute(c.Request.Context(), application.ExecuteParams{
		Tx:             txCtx,
		ExtraDiscounts: discounts,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingSchedule) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toExecutionResultDTO(result))
}

func (r calculateReq) toContext() (domain.TransactionContext, []domain.DiscountInput, error) {
	unitPrice, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return domain.TransactionContext{}, nil, err
	}

	gross := decimal.Zero
	if r.GrossCapital != "" {
		gross, err = decimal.NewFromString(r.GrossCapital)
		if err != nil {
			return domain.TransactionContext{}, nil, err
		}
	} else {
		gross = unitPrice.Mul(decimal.NewFromInt(r.Units))
	}

	txCtx := domain.TransactionContext{
		DealID:       r.DealID,
		InvestorID:   r.InvestorID,
		GrossCapital: gross,
		Units:        r.Units,
		UnitPrice:    unitPrice,
		Years:        r.Years,
	}
	if r.Profit != "" {
		profit, err := decimal.NewFromString(r.Profit)
		if err != nil {
			return domain.TransactionContext{}, nil, err
		}
		txCtx.Profit = &profit
	}
	if r.ReturnedCapital != "" {
		returned, err := decimal.NewFromString(r.ReturnedCapital)
		if err != nil {
			return domain.TransactionContext{}, nil, err
		}
		txCtx.ReturnedCapital = &returned
	}

	discounts := make([]domain.DiscountInput, 0, len(r.Discounts))
	for _, d := range r.Discounts {
		input, err := d.toDomain()
		if err != nil {
			return domain.TransactionContext{}, nil, err
		}
		discounts = append(discounts, input)
	}
	return txCtx, discounts, nil
}

type createTransactionReq struct {
	DealID     string `json:"deal_id" binding:"required"`
	InvestorID string `json:"investor_id" binding:"required"`
	Units      int64  `json:"units" binding:"required"`
	UnitPrice  string `json:"unit_price" binding:"required"`
	Years      int    `json:"years"`
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, result, err := h.transactions.Create(c.Request.Context(), application.CreateTransactionCommand{
		DealID:     req.DealID,
		InvestorID: req.InvestorID,
		Units:      req.Units,
		UnitPrice:  unitPrice,
		Years:      req.Years,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"transaction_id": tx.TransactionID,
		"gross_capital":  tx.GrossCapital,
		"net_capital":    tx.NetCapital,
		"fee_method":     tx.FeeMethod,
	}
	if result != nil {
		resp["fees"] = toExecutionResultDTO(result)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.transactions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) GetEquation(c *gin.Context) {
	eq, synthesized, err := h.equations.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"equation":    toEquationDTO(eq),
		"synthesized": synthesized,
	})
}

type putEquationReq struct {
	Template string       `json:"template"`
	Equation *equationDTO `json:"equation"`
}

// PutEquation 绑定方程：给模板名套用模板，否则保存完整方程体
func (h *Handler) PutEquation(c *gin.Context) {
	var req putEquationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dealID := c.Param("id")

	if req.Template != "" {
		eq, err := h.equations.ApplyTemplate(c.Request.Context(), dealID, req.Template)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"equation": toEquationDTO(eq)})
		return
	}

	if req.Equation == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template or equation body is required"})
		return
	}
	eq, err := req.Equation.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.equations.Upsert(c.Request.Context(), dealID, eq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equation": toEquationDTO(eq)})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.equations.Templates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	dtos := make([]equationDTO, 0, len(templates))
	for _, eq := range templates {
		dtos = append(dtos, toEquationDTO(eq))
	}
	c.JSON(http.StatusOK, gin.H{"templates": dtos})
}

type importRowReq struct {
	DealID        string        `json:"deal_id" binding:"required"`
	GrossCapital  string        `json:"gross_capital" binding:"required"`
	UnitPrice     string        `json:"unit_price" binding:"required"`
	Years         int           `json:"years"`
	Discounts     []discountReq `json:"discounts"`
	TransactionID string        `json:"transaction_id"`
}

type importPreviewReq struct {
	Rows []importRowReq `json:"rows" binding:"required"`
}

func (h *Handler) ImportPreview(c *gin.Context) {
	var req importPreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := make([]application.ImportRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		gross, err := decimal.NewFromString(r.GrossCapital)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		unitPrice, err := decimal.NewFromString(r.UnitPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		discounts := make([]domain.DiscountInput, 0, len(r.Discounts))
		for _, d := range r.Discounts {
			input, err := d.toDomain()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			discounts = append(discounts, input)
		}
		rows = append(rows, application.ImportRow{
			DealID:        r.DealID,
			GrossCapital:  gross,
			UnitPrice:     unitPrice,
			Years:         r.Years,
			Discounts:     discounts,
			TransactionID: r.TransactionID,
		})
	}

	preview, err := h.imports.Preview(c.Request.Context(), rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toImportPreviewDTO(preview))
}

type importCommitReq struct {
	BatchID string `json:"batch_id" binding:"required"`
}

func (h *Handler) ImportCommit(c *gin.Context) {
	var req importCommitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.imports.Commit(c.Request.Context(), req.BatchID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
