package handlers

import (
	"net/http"

	apperrors "github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/models"
	"github.com/CarbonSMASH/push-relay/services"
	"github.com/CarbonSMASH/push-relay/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RelayHandler handles the three relay operations: register, unregister
// and push. It parses and validates request bodies, delegates
// authorization and state changes to the registry, and hands verified
// records to the dispatcher. All failures are pushed onto the gin
// context for the error-handler middleware to serialize.
type RelayHandler struct {
	registry   *models.DeviceRegistry
	dispatcher services.PushDispatcher
	logger     *zap.Logger
}

// NewRelayHandler creates a new RelayHandler.
func NewRelayHandler(registry *models.DeviceRegistry, dispatcher services.PushDispatcher, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger.Named("RelayHandler"),
	}
}

// Register handles POST /register. The first registration for a device
// bootstraps its credential; later ones must present the matching secret.
func (h *RelayHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	if req.DeviceID == "" || req.Secret == "" || req.PushToken == "" {
		_ = c.Error(apperrors.MissingFields())
		return
	}

	record, _, err := h.registry.Register(c.Request.Context(), req.DeviceID, req.Secret, req.PushToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, types.RegisterResponse{
		Status:     "registered",
		TokenCount: len(record.Tokens),
	})
}

// Unregister handles POST /unregister. Removing an unbound token is a
// successful no-op; removing the last token retires the device entirely.
func (h *RelayHandler) Unregister(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	if req.DeviceID == "" || req.Secret == "" || req.PushToken == "" {
		_ = c.Error(apperrors.MissingFields())
		return
	}

	if err := h.registry.Unregister(c.Request.Context(), req.DeviceID, req.Secret, req.PushToken); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, types.UnregisterResponse{Status: "unregistered"})
}

// Push handles POST /push. The registry mutation path is never involved:
// a verified record is handed to the dispatcher, and the push network's
// acknowledgment is relayed verbatim under the "expo" key.
func (h *RelayHandler) Push(c *gin.Context) {
	var req types.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	if req.DeviceID == "" || req.Secret == "" || req.Title == "" || req.Body == "" {
		_ = c.Error(apperrors.MissingFields())
		return
	}

	record, err := h.registry.GetAuthorized(c.Request.Context(), req.DeviceID, req.Secret)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ack, err := h.dispatcher.Dispatch(c.Request.Context(), record, req.Title, req.Body, req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Notification dispatched",
		zap.String("deviceID", req.DeviceID),
		zap.Int("tokenCount", len(record.Tokens)))

	c.JSON(http.StatusOK, types.PushResponse{
		Status: "sent",
		Expo:   ack,
	})
}
