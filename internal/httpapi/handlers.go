package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/a3tai/sensitive-scan/internal/pdf"
	"github.com/a3tai/sensitive-scan/internal/reminder"
)

// Info reports the server configuration relevant to clients
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":               h.name,
		"version":            h.version,
		"directory":          h.svc.Directory(),
		"max_file_size":      h.svc.MaxFileSize(),
		"backend_configured": h.svc.BackendConfigured(),
		"storage_configured": h.svc.StorageConfigured(),
	})
}

// ListFiles lists PDFs in the document directory
func (h *Handler) ListFiles(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	files, err := h.svc.ListFiles(c.Query("query"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "total_count": len(files)})
}

// StartScan starts a background scan of an uploaded multipart file. Phrases
// come from repeated "phrases" form fields; without any the word store is used.
func (h *Handler) StartScan(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "Failed to read file")
		return
	}
	if !pdf.IsPDF(data) {
		badRequest(c, "Only PDF files are allowed")
		return
	}

	var phrases []string
	if values, ok := c.GetPostFormArray("phrases"); ok {
		phrases = values
	}

	job, err := h.svc.StartScan(c.Request.Context(), header.Filename, data, phrases)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

type objectScanRequest struct {
	Key     string   `json:"key" binding:"required"`
	Phrases []string `json:"phrases"`
}

// StartObjectScan starts a background scan of a document in the object store
func (h *Handler) StartObjectScan(c *gin.Context) {
	var req objectScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "key is required")
		return
	}

	ctx := c.Request.Context()
	data, err := h.svc.GetDocument(ctx, req.Key)
	if err != nil {
		writeError(c, err)
		return
	}

	job, err := h.svc.StartScan(ctx, req.Key, data, req.Phrases)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// ListScans returns every known scan job
func (h *Handler) ListScans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scans": h.svc.ScanJobs()})
}

// GetScan returns the state, progress and result of one scan job
func (h *Handler) GetScan(c *gin.Context) {
	job, err := h.svc.ScanJob(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelScan requests cancellation of a scan job
func (h *Handler) CancelScan(c *gin.Context) {
	job, err := h.svc.CancelScan(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// UploadDocument stores a multipart PDF in the object store
func (h *Handler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "Failed to read file")
		return
	}

	obj, err := h.svc.UploadDocument(c.Request.Context(), header.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obj)
}

// ListDocuments lists uploaded documents
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.Documents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ListWords returns the stored sensitive words
func (h *Handler) ListWords(c *gin.Context) {
	words, err := h.svc.Words(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": words})
}

// ListOrders returns the orders and refreshes the reminder snapshot
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type wordRequest struct {
	Word string `json:"word"`
}

// pathID parses the :id route parameter. It writes a 400 and returns false
// when the parameter is not a non-negative integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		badRequest(c, "id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

// AddWord stores a new sensitive word
func (h *Handler) AddWord(c *gin.Context) {
	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	word, err := h.svc.AddWord(c.Request.Context(), req.Word)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, word)
}

// UpdateWord replaces the text of a stored word
func (h *Handler) UpdateWord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	word, err := h.svc.UpdateWord(c.Request.Context(), id, req.Word)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// RemoveWord deletes a stored word
func (h *Handler) RemoveWord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveWord(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOrder returns one order by positional id
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateOrder stores a new order
func (h *Handler) CreateOrder(c *gin.Context) {
	var req reminder.Order
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UpdateOrder replaces the order at id. Any id in the body is ignored.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reminder.Order
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	order, err := h.svc.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder removes the order at id
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DueReminder returns the currently due reminder
func (h *Handler) DueReminder(c *gin.Context) {
	order, ok := h.svc.DueReminder()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"due": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": true, "order": order})
}

// DismissReminder acknowledges the due reminder
func (h *Handler) DismissReminder(c *gin.Context) {
	order, ok := h.svc.DismissReminder(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"dismissed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": true, "order": order})
}
