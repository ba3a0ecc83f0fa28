package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/services"
)

// ReportHandler serves aggregate views over transactions.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// summaryQuery is the query string of the monthly summary.
type summaryQuery struct {
	Month string `form:"month" binding:"required,month"`
}

// MonthlySummary handles the monthly summary
// @Summary     Monthly summary
// @Description Totals per type, the largest expense, and expenses per category for one month
// @Tags        transactions
// @Produce     json
// @Param       month query string true "Month as YYYY-MM"
// @Success     200 {object} Response{data=services.MonthlySummary} "Summary, or empty data with message \"No data found\""
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *ReportHandler) MonthlySummary(c *gin.Context) {
	var q summaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	summary, err := h.reportService.MonthlySummary(c.Request.Context(), q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if summary.Empty() {
		respond(c, http.StatusOK, "No data found", gin.H{})
		return
	}
	respond(c, http.StatusOK, "Summary", summary)
}
