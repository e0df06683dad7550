package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/delivery-fee-service/internal/api/openapi"
	"github.com/wms-platform/delivery-fee-service/internal/application"
	"github.com/wms-platform/delivery-fee-service/pkg/errors"
	"github.com/wms-platform/delivery-fee-service/pkg/logging"
	"github.com/wms-platform/delivery-fee-service/pkg/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var landingTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// FeeHandler handles HTTP requests for delivery fees
type FeeHandler struct {
	service     *application.FeeService
	logger      *logging.Logger
	serviceName string
	version     string
}

// NewFeeHandler creates a new FeeHandler
func NewFeeHandler(service *application.FeeService, logger *logging.Logger, serviceName, version string) *FeeHandler {
	return &FeeHandler{
		service:     service,
		logger:      logger,
		serviceName: serviceName,
		version:     version,
	}
}

// RegisterRoutes registers the fee routes
func (h *FeeHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Landing)
	r.GET("/openapi.yaml", h.OpenAPIDocument)
	r.POST("/fees", h.CalculateFee)
}

// CalculateFee handles POST /fees
func (h *FeeHandler) CalculateFee(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	includeBreakdown, queryViolation := breakdownParam(c)

	var req application.CalculateFeeRequest
	appErr := middleware.BindJSONFields(c, &req)
	// Query violations are reported alongside body violations
	if queryViolation != nil && (appErr == nil || appErr.HTTPStatus == http.StatusUnprocessableEntity) {
		violations := []errors.FieldViolation{*queryViolation}
		if appErr != nil {
			violations = append(violations, appErr.Violations...)
		}
		appErr = errors.ErrUnprocessable("request validation failed", violations)
	}
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := req.ToCommand()
	cmd.IncludeBreakdown = includeBreakdown

	middleware.AddSpanAttributes(c, map[string]any{
		"order.cart_value":        cmd.CartValue,
		"order.delivery_distance": cmd.DeliveryDistance,
		"order.number_of_items":   cmd.NumberOfItems,
		"fee.breakdown":           includeBreakdown,
	})

	result, err := h.service.CalculateFee(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Landing handles GET /
func (h *FeeHandler) Landing(c *gin.Context) {
	var buf bytes.Buffer
	err := landingTemplate.Execute(&buf, gin.H{
		"ServiceName": h.serviceName,
		"Version":     h.version,
		"Rules":       h.service.Rules(),
	})
	if err != nil {
		middleware.NewErrorResponder(c, h.logger.Logger).RespondInternalError(err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// OpenAPIDocument handles GET /openapi.yaml
func (h *FeeHandler) OpenAPIDocument(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openapi.Document)
}

func breakdownParam(c *gin.Context) (bool, *errors.FieldViolation) {
	raw, ok := c.GetQuery("breakdown")
	if !ok {
		return false, nil
	}
	if raw == "" {
		return true, nil
	}

	include, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &errors.FieldViolation{
			Type:    "bool_parsing",
			Loc:     []string{"query", "breakdown"},
			Message: "Input should be a valid boolean, unable to interpret input",
		}
	}
	return include, nil
}
