package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nordprofil/quote-ai/internal/ai"
	"github.com/nordprofil/quote-ai/internal/files"
	"github.com/nordprofil/quote-ai/internal/model"
	"github.com/nordprofil/quote-ai/internal/service"
)

type Handler struct {
	customers *service.CustomerService
	quotes    *service.QuoteService
	files     *files.Service
	log       zerolog.Logger
}

func NewHandler(customers *service.CustomerService, quotes *service.QuoteService, fileStore *files.Service, log zerolog.Logger) *Handler {
	return &Handler{customers: customers, quotes: quotes, files: fileStore, log: log}
}

func (h *Handler) Register(router *gin.Engine, middlewares ...gin.HandlerFunc) {
	api := router.Group("/")
	api.Use(middlewares...)

	api.POST("/customers", h.createCustomer)
	api.GET("/customers", h.listCustomers)
	api.GET("/customers/:id", h.getCustomer)
	api.PUT("/customers/:id", h.updateCustomer)
	api.DELETE("/customers/:id", h.deleteCustomer)

	api.POST("/quotes", h.createQuote)
	api.GET("/quotes", h.listQuotes)
	api.POST("/quotes/predict-price", h.predictPrice)
	api.POST("/quotes/generate", h.generateQuote)
	api.GET("/quotes/export/excel", h.exportExcel)
	api.POST("/quotes/train-model", h.trainModel)
	api.GET("/quotes/model-info", h.modelInfo)
	api.POST("/quotes/files/upload", h.uploadFile)
	api.POST("/quotes/files/process", h.processFile)
	api.GET("/quotes/files/download/:filename", h.downloadFile)
	api.GET("/quotes/files/list/:quoteID", h.listFiles)
	api.DELETE("/quotes/files/:filename", h.deleteFile)
	api.GET("/quotes/:id", h.getQuote)
	api.PUT("/quotes/:id", h.updateQuote)
	api.DELETE("/quotes/:id", h.deleteQuote)
	api.GET("/quotes/:id/pdf", h.renderQuotePDF)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var input service.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) listCustomers(c *gin.Context) {
	offset, limit := pagination(c)
	customers, err := h.customers.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch service.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customer, err := h.customers.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
}

func (h *Handler) createQuote(c *gin.Context) {
	var input service.QuoteCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.quotes.Create(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

func (h *Handler) listQuotes(c *gin.Context) {
	offset, limit := pagination(c)
	quotes, err := h.quotes.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) getQuote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	quote, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) updateQuote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch model.QuotePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.quotes.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) deleteQuote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.quotes.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quote deleted"})
}

type predictPriceRequest struct {
	ProductSpec service.SpecInput `json:"product_specs" binding:"required"`
}

func (h *Handler) predictPrice(c *gin.Context) {
	var req predictPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prediction, err := h.quotes.PredictPrice(c.Request.Context(), req.ProductSpec)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (h *Handler) generateQuote(c *gin.Context) {
	var input service.GenerateQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quotes.GenerateQuote(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) renderQuotePDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.quotes.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) exportExcel(c *gin.Context) {
	result, err := h.quotes.ExportExcel(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) trainModel(c *gin.Context) {
	report, err := h.quotes.TrainModel(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) modelInfo(c *gin.Context) {
	info, err := h.quotes.ModelInfo()
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) uploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	var quoteID int64
	if raw := c.PostForm("quote_id"); raw != "" {
		quoteID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote_id"})
			return
		}
	}

	opened, err := fileHeader.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer opened.Close()
	content, err := io.ReadAll(opened)
	if err != nil {
		h.handleError(c, err)
		return
	}

	path, ok := h.files.Save(fileHeader.Filename, content, quoteID)
	if !ok {
		// The type check outranks the size check: an oversized file of a
		// disallowed type is still a type problem.
		switch {
		case !h.files.TypeAllowed(fileHeader.Filename):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		case int64(len(content)) > h.files.MaxSize():
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds maximum upload size"})
		default:
			h.log.Error().Str("file", fileHeader.Filename).Msg("upload rejected")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_path": path, "filename": fileHeader.Filename})
}

type processFileRequest struct {
	FilePath     string            `json:"file_path" binding:"required"`
	ProductSpecs map[string]string `json:"product_specs"`
}

func (h *Handler) processFile(c *gin.Context) {
	var req processFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.quotes.ProcessFile(c.Request.Context(), req.FilePath, req.ProductSpecs)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) downloadFile(c *gin.Context) {
	filename := c.Param("filename")
	path, contentType, ok := h.files.Resolve(filename)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Type", contentType)
	c.File(path)
}

func (h *Handler) listFiles(c *gin.Context) {
	quoteID, err := strconv.ParseInt(c.Param("quoteID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return
	}
	stored := h.files.ListForQuote(quoteID)
	if stored == nil {
		stored = []files.FileInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"quote_id": quoteID, "files": stored})
}

func (h *Handler) deleteFile(c *gin.Context) {
	filename := c.Param("filename")
	if !h.files.Delete(filename) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "ai provider timed out"})
	case errors.Is(err, ai.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "ai provider unavailable"})
	case errors.Is(err, ai.ErrBadOutput):
		c.JSON(http.StatusBadGateway, gin.H{"error": "ai provider returned malformed output"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	return offset, limit
}
