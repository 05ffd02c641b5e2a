package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quotes/internal/models"

	"go.uber.org/zap"
)

// Caller identity, set by the gateway in front of the service.
const (
	UserHeader     = "X-User-Id"
	SupplierHeader = "X-Supplier-Id"
)

type Service interface {
	CreateRequest(ctx context.Context, buyerId string, req models.NewRequest) (models.QuoteRequest, error)
	GetRequest(ctx context.Context, buyerId, requestId string) (models.QuoteRequest, error)
	UserRequests(ctx context.Context, buyerId string, limit, offset int) ([]models.QuoteRequest, error)
	RequestOffers(ctx context.Context, buyerId, requestId string) ([]models.OfferView, error)
	AcceptOffer(ctx context.Context, buyerId, offerId string) (models.Order, error)

	SupplierNotifications(ctx context.Context, supplierId string, statuses []models.NotificationStatus, limit, offset int) ([]models.NotificationWithRequest, error)
	SubmitOffer(ctx context.Context, supplierId, notificationId string, offer models.NewOffer) (models.QuoteOffer, error)
}

type Controller struct {
	service Service
	log     *zap.Logger
}

func NewController(service Service, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{service: service, log: log}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Buyers

// POST /api/requests/new
func (c *Controller) NewRequest(w http.ResponseWriter, r *http.Request) {
	buyerId := r.Header.Get(UserHeader)
	if len(buyerId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewRequestReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := c.service.CreateRequest(r.Context(), buyerId, *req)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalStatusResponse(w, http.StatusCreated, request)
}

// GET /api/requests/my
func (c *Controller) MyRequests(w http.ResponseWriter, r *http.Request) {
	buyerId := r.Header.Get(UserHeader)
	if len(buyerId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	}

	limit, offset, ok := c.paging(w, r.URL.Query())
	if !ok {
		return
	}

	requests, err := c.service.UserRequests(r.Context(), buyerId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, requests)
}

// GET /api/requests/{requestId}
func (c *Controller) GetRequest(w http.ResponseWriter, r *http.Request) {
	buyerId := r.Header.Get(UserHeader)
	if len(buyerId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	}

	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}

	request, err := c.service.GetRequest(r.Context(), buyerId, requestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// GET /api/requests/{requestId}/offers
func (c *Controller) RequestOffers(w http.ResponseWriter, r *http.Request) {
	buyerId := r.Header.Get(UserHeader)
	if len(buyerId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	}

	requestId := r.PathValue("requestId")
	if len(requestId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty requestId supplied")
		return
	}

	offers, err := c.service.RequestOffers(r.Context(), buyerId, requestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	if offers == nil {
		offers = []models.OfferView{}
	}
	c.marshalResponse(w, offers)
}

// PUT /api/offers/{offerId}/accept
func (c *Controller) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	buyerId := r.Header.Get(UserHeader)
	if len(buyerId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	}

	offerId := r.PathValue("offerId")
	if len(offerId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty offerId supplied")
		return
	}

	order, err := c.service.AcceptOffer(r.Context(), buyerId, offerId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, order)
}

//// Suppliers

// GET /api/notifications/my
func (c *Controller) MyNotifications(w http.ResponseWriter, r *http.Request) {
	supplierId := r.Header.Get(SupplierHeader)
	if len(supplierId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+SupplierHeader+" header")
		return
	}

	query := r.URL.Query()

	limit, offset, ok := c.paging(w, query)
	if !ok {
		return
	}

	var statuses []models.NotificationStatus
	for _, str := range query["status"] {
		s := models.NotificationStatus(str)
		if models.ValidNotificationStatus(s) {
			statuses = append(statuses, s)
			continue
		}
		c.errorResponse(w, http.StatusBadRequest, "invalid notification status supplied: "+str)
		return
	}

	inbox, err := c.service.SupplierNotifications(r.Context(), supplierId, statuses, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	if inbox == nil {
		inbox = []models.NotificationWithRequest{}
	}
	c.marshalResponse(w, inbox)
}

// POST /api/notifications/{notificationId}/offer
func (c *Controller) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	supplierId := r.Header.Get(SupplierHeader)
	if len(supplierId) == 0 {
		c.errorResponse(w, http.StatusUnauthorized, "missing "+SupplierHeader+" header")
		return
	}

	notificationId := r.PathValue("notificationId")
	if len(notificationId) == 0 {
		c.errorResponse(w, http.StatusBadRequest, "empty notificationId supplied")
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewOfferReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := c.service.SubmitOffer(r.Context(), supplierId, notificationId, *req)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalStatusResponse(w, http.StatusCreated, offer)
}

// Service

type ErrorResponse struct {
	Reason string `json:"reason"`
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		return strconv.Atoi(strs[0])
	}
	return 0, nil
}

// paging reads limit and offset, answering 400 itself when they are bad.
func (c *Controller) paging(w http.ResponseWriter, query url.Values) (int, int, bool) {
	limit, err := c.getQueryInt(query, "limit")
	if err != nil || limit < 0 {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return 0, 0, false
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil || offset < 0 {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return 0, 0, false
	}

	return limit, offset, true
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		c.log.Error("controller.Controller.errorResponse", zap.Error(err))
		return
	}

	_, err = w.Write(data)
	if err != nil {
		c.log.Warn("controller.Controller.errorResponse", zap.Error(err))
		return
	}
}

// conflicts are reported with the reason the state machine gave
var conflictReasons = []error{
	models.ErrNotificationExpired,
	models.ErrNotificationInactive,
	models.ErrRequestUnavailable,
	models.ErrOfferExists,
	models.ErrOfferFinalized,
	models.ErrRequestClosed,
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	var verr *models.ValidationError

	switch {
	case errors.As(err, &verr):
		c.errorResponse(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, models.ErrValidation):
		c.errorResponse(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, models.ErrNoRequest):
		c.errorResponse(w, http.StatusNotFound, "requested quote request does not exist")
	case errors.Is(err, models.ErrNoNotification):
		c.errorResponse(w, http.StatusNotFound, "requested notification does not exist")
	case errors.Is(err, models.ErrNoOffer):
		c.errorResponse(w, http.StatusNotFound, "requested offer does not exist")
	case errors.Is(err, models.ErrNotFound):
		c.errorResponse(w, http.StatusNotFound, "requested resource does not exist")
	case errors.Is(err, models.ErrForbidden):
		c.errorResponse(w, http.StatusForbidden, "user have no permission for requested action")
	case errors.Is(err, models.ErrConflict):
		c.errorResponse(w, http.StatusConflict, conflictReason(err))
	case errors.Is(err, models.ErrTimeout):
		c.log.Warn("controller: timeout", zap.Error(err))
		c.errorResponse(w, http.StatusGatewayTimeout, "operation timed out, please retry")
	case errors.Is(err, models.ErrUnavailable):
		c.log.Warn("controller: unavailable", zap.Error(err))
		c.errorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	default:
		c.log.Error("controller: internal error", zap.Error(err))
		c.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

// conflictReason is the state machine's reason without the kind prefix.
func conflictReason(err error) string {
	for _, reason := range conflictReasons {
		if errors.Is(err, reason) {
			return strings.TrimPrefix(reason.Error(), models.ErrConflict.Error()+": ")
		}
	}
	return models.ErrConflict.Error()
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	c.marshalStatusResponse(w, http.StatusOK, data)
}

func (c *Controller) marshalStatusResponse(w http.ResponseWriter, status int, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(d)
	if err != nil {
		c.log.Warn("controller.Controller.marshalResponse", zap.Error(err))
		return
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, 1<<20))
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
