package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	revenueService    service.RevenueService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, revenueService service.RevenueService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, revenueService: revenueService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/api/analytics")
	{
		analytics.GET("/overview", h.Overview)
		analytics.GET("/revenue-by-month", h.RevenueByMonth)
		analytics.GET("/revenue", h.RevenueByPeriod)
		analytics.GET("/status-breakdown", h.StatusBreakdown)
		analytics.GET("/client-performance", h.ClientPerformance)
		analytics.GET("/amount-distribution", h.AmountDistribution)
	}

	export := router.Group("/api/export")
	{
		export.GET("/analytics.csv", h.ExportAnalytics)
		export.GET("/clients.csv", h.ExportClients)
	}
}

// Overview returns headline invoice totals
// @Summary      Dashboard overview
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.StatisticsOverview}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/overview [get]
func (h *StatisticsHandler) Overview(c *gin.Context) {
	overview, err := h.statisticsService.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, overview))
}

// RevenueByMonth returns paid revenue per invoice month
// @Summary      Revenue by month
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.MonthlyRevenue}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/revenue-by-month [get]
func (h *StatisticsHandler) RevenueByMonth(c *gin.Context) {
	months, err := h.statisticsService.RevenueByMonth(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, months))
}

// RevenueByPeriod returns billed, collected and VAT totals grouped by period
// @Summary      Revenue by period
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query     string  false  "Group by period: week, month, quarter, year (default: month)"
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=[]service.RevenueDataPoint}
// @Failure      400         {object}  response.Response
// @Failure      500         {object}  response.Response
// @Router       /api/analytics/revenue [get]
func (h *StatisticsHandler) RevenueByPeriod(c *gin.Context) {
	filter := service.RevenueFilter{
		GroupBy:   c.DefaultQuery("group_by", "month"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	data, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

// @Summary      Invoice count per stored status
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.StatusCount}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/status-breakdown [get]
func (h *StatisticsHandler) StatusBreakdown(c *gin.Context) {
	counts, err := h.statisticsService.StatusBreakdown(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, counts))
}

// @Summary      Per-client totals and payment rate
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ClientPerformance}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/client-performance [get]
func (h *StatisticsHandler) ClientPerformance(c *gin.Context) {
	clients, err := h.statisticsService.ClientPerformance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, clients))
}

// @Summary      Invoice count per total range
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.AmountBucket}
// @Failure      500  {object}  response.Response
// @Router       /api/analytics/amount-distribution [get]
func (h *StatisticsHandler) AmountDistribution(c *gin.Context) {
	buckets, err := h.statisticsService.AmountDistribution(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, buckets))
}

// @Summary      Export dashboard figures
// @Tags         export
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200  {string}  string  "CSV file"
// @Router       /api/export/analytics.csv [get]
func (h *StatisticsHandler) ExportAnalytics(c *gin.Context) {
	h.export(c, "analytics.csv", h.statisticsService.ExportAnalyticsCSV)
}

// @Summary      Export client performance
// @Tags         export
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200  {string}  string  "CSV file"
// @Router       /api/export/clients.csv [get]
func (h *StatisticsHandler) ExportClients(c *gin.Context) {
	h.export(c, "clients.csv", h.statisticsService.ExportClientsCSV)
}

func (h *StatisticsHandler) export(c *gin.Context, filename string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, filename, buf.Bytes())
}
