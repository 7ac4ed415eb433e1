package api

import (
	"errors"
	"net/http"
	"strconv"

	"parcel-booking/internal/domain/booking"
	reqdto "parcel-booking/internal/handler/dto/request"
	resdto "parcel-booking/internal/handler/dto/response"
	"parcel-booking/internal/handler/httperr"
	"parcel-booking/internal/handler/middleware"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

var errUnauthenticated = errors.New("missing authenticated user")

type BookingHandler struct {
	checkout commands.CheckoutCommands
	status   commands.BookingStatusCommands
	q        queries.BookingQueries
}

func NewBookingHandler(checkout commands.CheckoutCommands, status commands.BookingStatusCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{checkout: checkout, status: status, q: q}
}

// @Summary Start online checkout
// @Description Stages the booking and returns the hosted payment page. The booking itself is created only after the payment is verified.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking details"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /api/bookings/checkout [post]
func (h *BookingHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	details, err := req.ToDomain()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking details", err.Error())
		return
	}

	result, err := h.checkout.StartCheckout(c.Request.Context(), userID, commands.CheckoutParams{
		Details:  details,
		Customer: req.Customer.ToDomain(),
	})
	if err != nil {
		status, msg := commandErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	c.JSON(http.StatusCreated, resdto.CheckoutResponse{
		MerchantReferenceID: result.MerchantReference,
		PaymentURL:          result.PaymentURL,
	})
}

// @Summary Create cash-on-delivery booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking details"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/bookings/cod [post]
func (h *BookingHandler) CreateCOD(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	details, err := req.ToDomain()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking details", err.Error())
		return
	}

	id, err := h.checkout.CreateCODBooking(c.Request.Context(), userID, details)
	if err != nil {
		status, msg := commandErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), userID, false, id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromBookingView(view))
}

// @Summary Pay for an existing booking online
// @Description Opens a new payment attempt for a booking whose payment is pending or failed.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.PayBookingRequest false "Customer details"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/bookings/{id}/pay [post]
func (h *BookingHandler) Pay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.PayBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
			return
		}
	}

	result, err := h.checkout.RetryOnlinePayment(c.Request.Context(), userID, c.Param("id"), req.Customer.ToDomain())
	if err != nil {
		status, msg := commandErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	c.JSON(http.StatusCreated, resdto.CheckoutResponse{
		MerchantReferenceID: result.MerchantReference,
		PaymentURL:          result.PaymentURL,
	})
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), userID, middleware.IsAdmin(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrBookingNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		case errors.Is(err, queries.ErrBookingAccess):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List my bookings
// @Description Newest first, keyset paginated
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 20, max 200)"
// @Param after query string false "Cursor from a previous page"
// @Success 200 {object} resdto.BookingPageResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid limit", nil)
			return
		}
		limit = n
	}
	var cursor *queries.Cursor
	if after := c.Query("after"); after != "" {
		cursor = &queries.Cursor{After: after}
	}

	items, next, err := h.q.ListByUser(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		if errors.Is(err, queries.ErrInvalidCursor) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingPage(items, next))
}

// @Summary Advance booking status
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.AdvanceStatusRequest true "Target status"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/bookings/{id}/status [patch]
func (h *BookingHandler) AdminAdvanceStatus(c *gin.Context) {
	var req reqdto.AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := h.status.AdvanceStatus(c.Request.Context(), c.Param("id"), booking.Status(req.Status)); err != nil {
		status, msg := commandErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Advance booking payment status
// @Description Marking an already paid booking paid again succeeds without side effects.
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.AdvancePaymentRequest true "Target payment status"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/bookings/{id}/payment [patch]
func (h *BookingHandler) AdminAdvancePayment(c *gin.Context) {
	var req reqdto.AdvancePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	err := h.status.AdvancePaymentStatus(c.Request.Context(), c.Param("id"), booking.PaymentStatus(req.PaymentStatus))
	if err != nil {
		status, msg := commandErrorStatus(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func commandErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrDomainValidation):
		return http.StatusBadRequest, "Invalid booking data"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, commands.ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, commands.ErrBookingNotPayable), errors.Is(err, commands.ErrInvalidTransition):
		return http.StatusConflict, "Booking is not in a state that allows this change"
	case errors.Is(err, commands.ErrPaymentPageFailed):
		return http.StatusBadGateway, "Payment page could not be created"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
