package handler

import (
	"net/http"

	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

type InsightsHandler struct {
	insightsService service.InsightsService
}

func NewInsightsHandler(insightsService service.InsightsService) *InsightsHandler {
	return &InsightsHandler{insightsService: insightsService}
}

func (h *InsightsHandler) RegisterRoutes(router *gin.RouterGroup) {
	ml := router.Group("/api/ml")
	{
		ml.GET("/payment-predictions", h.PaymentPredictions)
		ml.GET("/client-risk-scores", h.ClientRiskScores)
		ml.GET("/anomaly-detection", h.AnomalyDetection)
		ml.GET("/client-segmentation", h.ClientSegmentation)
		ml.POST("/predict-single", h.PredictSingle)
		ml.GET("/insights-summary", h.InsightsSummary)
	}
}

type PredictSingleRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// PaymentPredictions trains the delay model and predicts every unpaid invoice
// @Summary      Payment delay predictions
// @Description  Trains on paid invoices and predicts the payment delay of each unpaid one. training.synthetic_labels counts paid invoices without a recorded paid date.
// @Tags         insights
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.PaymentPredictionsResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/ml/payment-predictions [get]
func (h *InsightsHandler) PaymentPredictions(c *gin.Context) {
	result, err := h.insightsService.PaymentPredictions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ClientRiskScores scores every client
// @Summary      Client risk scores
// @Tags         insights
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]analytics.RiskScore}
// @Failure      500  {object}  response.Response
// @Router       /api/ml/client-risk-scores [get]
func (h *InsightsHandler) ClientRiskScores(c *gin.Context) {
	scores, err := h.insightsService.ClientRiskScores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, scores))
}

// AnomalyDetection flags unusual invoices
// @Summary      Invoice anomalies
// @Tags         insights
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=analytics.AnomalyReport}
// @Failure      500  {object}  response.Response
// @Router       /api/ml/anomaly-detection [get]
func (h *InsightsHandler) AnomalyDetection(c *gin.Context) {
	report, err := h.insightsService.DetectAnomalies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ClientSegmentation clusters clients into value tiers
// @Summary      Client segmentation
// @Tags         insights
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=analytics.SegmentationResult}
// @Failure      500  {object}  response.Response
// @Router       /api/ml/client-segmentation [get]
func (h *InsightsHandler) ClientSegmentation(c *gin.Context) {
	result, err := h.insightsService.SegmentClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// PredictSingle explains the prediction for one invoice
// @Summary      Single invoice prediction
// @Description  Returns the payment prediction, client risk and raw and normalized features of one invoice
// @Tags         insights
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      PredictSingleRequest  true  "Invoice to predict"
// @Success      200      {object}  response.Response{data=analytics.SingleInsight}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/ml/predict-single [post]
func (h *InsightsHandler) PredictSingle(c *gin.Context) {
	var req PredictSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InvoiceID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invoice ID is required"))
		return
	}

	insight, err := h.insightsService.PredictSingle(c.Request.Context(), req.InvoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, insight))
}

// InsightsSummary returns the dashboard figures
// @Summary      Insights summary
// @Tags         insights
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=analytics.InsightsSummary}
// @Failure      500  {object}  response.Response
// @Router       /api/ml/insights-summary [get]
func (h *InsightsHandler) InsightsSummary(c *gin.Context) {
	summary, err := h.insightsService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
