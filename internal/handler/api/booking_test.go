//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/handler/api"
	resdto "parcel-booking/internal/handler/dto/response"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/pkg/jwt"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/usecase/queries"
	"parcel-booking/tests/common/builder"
	"parcel-booking/tests/common/httptest"
	"parcel-booking/tests/common/testutil"
	commandsmock "parcel-booking/tests/mock/commands"
	queriesmock "parcel-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCheckout *commandsmock.MockCheckoutCommands
	mockStatus   *commandsmock.MockBookingStatusCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCheckout = commandsmock.NewMockCheckoutCommands(s.mockCtrl)
	s.mockStatus = commandsmock.NewMockBookingStatusCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCheckout, s.mockStatus, s.mockQueries)

	// Mock authentication middleware: the bearer token is "<userID>" or "<userID>:admin"
	authMiddleware := func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		userID, role, _ := strings.Cut(token, ":")
		if role == "" {
			role = jwt.RoleCustomer
		}
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}

	s.router.POST("/bookings/checkout", authMiddleware, s.handler.Checkout)
	s.router.POST("/bookings/cod", authMiddleware, s.handler.CreateCOD)
	s.router.POST("/bookings/:id/pay", authMiddleware, s.handler.Pay)
	s.router.GET("/bookings", authMiddleware, s.handler.List)
	s.router.GET("/bookings/:id", authMiddleware, s.handler.Get)
	s.router.PATCH("/admin/bookings/:id/status", authMiddleware, s.handler.AdminAdvanceStatus)
	s.router.PATCH("/admin/bookings/:id/payment", authMiddleware, s.handler.AdminAdvancePayment)
	s.router.POST("/anonymous/checkout", s.handler.Checkout)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCheckout
// ================================================================================

func (s *BookingHandlerTestSuite) TestCheckout() {
	url := "/bookings/checkout"
	reqBody := builder.NewBookingBuilder().BuildCreateRequestDTO()
	result := &commands.CheckoutResult{MerchantReference: "temp-u42-1-1", PaymentURL: "https://pay.example/p/1"}

	s.Run("success: returns 201 with payment page", func() {
		s.mockCheckout.EXPECT().StartCheckout(gomock.Any(), "u42", gomock.Any()).
			DoAndReturn(func(_ any, _ string, p commands.CheckoutParams) (*commands.CheckoutResult, error) {
				s.Equal(int64(25000), p.Details.Fare.Minor())
				s.Equal("Asha", p.Customer.Name)
				return result, nil
			})

		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("customer", map[string]any{"name": " Asha "}))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "u42")
		s.Equal(http.StatusCreated, rec.Code)

		var resp resdto.CheckoutResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &resp)
		s.Equal(result.MerchantReference, resp.MerchantReferenceID)
		s.Equal(result.PaymentURL, resp.PaymentURL)
	})

	s.Run("success: fare given as decimal string", func() {
		s.mockCheckout.EXPECT().StartCheckout(gomock.Any(), "u42", gomock.Any()).Return(result, nil)

		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("fare", "250.50"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "u42")
		s.Equal(http.StatusCreated, rec.Code)
	})

	validation := []testCaseBooking{
		{name: "missing fare", mutate: testutil.Field("fare", nil), expectCode: http.StatusBadRequest},
		{name: "zero fare", mutate: testutil.Field("fare", 0), expectCode: http.StatusBadRequest},
		{name: "negative fare", mutate: testutil.Field("fare", -10), expectCode: http.StatusBadRequest},
		{name: "fare with three decimals", mutate: testutil.Field("fare", "1.005"), expectCode: http.StatusBadRequest},
		{name: "missing pickup address", mutate: testutil.NestedField("pickup", "address", nil), expectCode: http.StatusBadRequest},
		{name: "latitude out of range", mutate: testutil.NestedField("drop", "latitude", 91), expectCode: http.StatusBadRequest},
		{name: "zero weight", mutate: testutil.NestedField("parcel", "weightGrams", 0), expectCode: http.StatusBadRequest},
		{name: "missing category", mutate: testutil.NestedField("parcel", "category", nil), expectCode: http.StatusBadRequest},
		{name: "invalid customer email", mutate: testutil.Field("customer", map[string]any{"email": "nope"}), expectCode: http.StatusBadRequest},
	}
	for _, tc := range validation {
		s.Run("validation: "+tc.name, func() {
			s.mockCheckout.EXPECT().StartCheckout(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "u42")
			s.Equal(tc.expectCode, rec.Code)
		})
	}

	s.Run("unauthorized: no user in context", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/anonymous/checkout", reqBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("bad gateway: payment page creation failed", func() {
		s.mockCheckout.EXPECT().StartCheckout(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errors.New("503"), commands.ErrPaymentPageFailed))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "u42")
		s.Equal(http.StatusBadGateway, rec.Code)
		s.Contains(rec.Body.String(), "Payment page could not be created")
	})
}

// ================================================================================
// TestCreateCOD
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreateCOD() {
	url := "/bookings/cod"
	b := builder.NewBookingBuilder()

	s.Run("success: returns 201 with the booking", func() {
		s.mockCheckout.EXPECT().CreateCODBooking(gomock.Any(), "u42", gomock.Any()).Return("b1", nil)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), "u42", false, "b1").Return(b.BuildView("b1"), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildCreateRequestDTO(), "u42")
		s.Equal(http.StatusCreated, rec.Code)

		var resp resdto.BookingResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &resp)
		s.Equal("b1", resp.ID)
		s.Equal(string(booking.MethodCOD), resp.PaymentMethod)
		s.Equal(string(booking.StatusCreated), resp.Status)
	})

	s.Run("bad request: domain validation", func() {
		s.mockCheckout.EXPECT().CreateCODBooking(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errs.Mark(booking.ErrInvalidParcel, errs.ErrDomainValidation))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.BuildCreateRequestDTO(), "u42")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// ================================================================================
// TestPay
// ================================================================================

func (s *BookingHandlerTestSuite) TestPay() {
	s.Run("success: without body", func() {
		s.mockCheckout.EXPECT().RetryOnlinePayment(gomock.Any(), "u42", "b123", payment.Customer{}).
			Return(&commands.CheckoutResult{MerchantReference: "b123-1", PaymentURL: "https://pay.example/p/2"}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/b123/pay", nil, "u42")
		s.Equal(http.StatusCreated, rec.Code)
		s.Contains(rec.Body.String(), "b123-1")
	})

	s.Run("success: with customer details", func() {
		s.mockCheckout.EXPECT().RetryOnlinePayment(gomock.Any(), "u42", "b123", payment.Customer{Phone: "9999999999"}).
			Return(&commands.CheckoutResult{MerchantReference: "b123-2"}, nil)

		body := map[string]any{"customer": map[string]any{"phone": "9999999999"}}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/b123/pay", body, "u42")
		s.Equal(http.StatusCreated, rec.Code)
	})

	errorCases := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "not found", err: commands.ErrBookingNotFound, expectCode: http.StatusNotFound},
		{name: "other user's booking", err: errs.ErrForbidden, expectCode: http.StatusForbidden},
		{name: "already paid", err: errs.Mark(booking.ErrNotPayable, commands.ErrBookingNotPayable), expectCode: http.StatusConflict},
		{name: "unexpected", err: errors.New("boom"), expectCode: http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		s.Run("error: "+tc.name, func() {
			s.mockCheckout.EXPECT().RetryOnlinePayment(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/b123/pay", nil, "u42")
			s.Equal(tc.expectCode, rec.Code)
		})
	}
}

// ================================================================================
// TestGet / TestList
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	view := builder.NewBookingBuilder().BuildView("b1")

	s.Run("success: owner", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), "u42", false, "b1").Return(view, nil)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/b1", nil, "u42")
		s.Equal(http.StatusOK, rec.Code)

		var resp resdto.BookingResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &resp)
		s.Equal(view.TrackingNumber, resp.TrackingNumber)
		s.Equal(view.Fare, resp.Fare)
	})

	s.Run("success: admin reads any booking", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), "ops", true, "b1").Return(view, nil)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/b1", nil, "ops:"+jwt.RoleAdmin)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("forbidden: other user's booking", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), "u7", false, "b1").Return(nil, queries.ErrBookingAccess)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/b1", nil, "u7")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), "u42", false, "b404").Return(nil, queries.ErrBookingNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/b404", nil, "u42")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestList() {
	b := builder.NewBookingBuilder()

	s.Run("success: returns items and next cursor", func() {
		items := []*queries.BookingListItem{b.BuildListItem("b2", b.Now), b.BuildListItem("b1", b.Now)}
		next := &queries.Cursor{After: "abc"}
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), "u42", &queries.Cursor{After: "prev"}, 2).Return(items, next, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?limit=2&after=prev", nil, "u42")
		s.Equal(http.StatusOK, rec.Code)

		var resp resdto.BookingPageResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &resp)
		s.Len(resp.Items, 2)
		s.Require().NotNil(resp.NextCursor)
		s.Equal("abc", *resp.NextCursor)
	})

	s.Run("bad request: non-numeric limit", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?limit=ten", nil, "u42")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("bad request: invalid cursor", func() {
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), "u42", gomock.Any(), 0).Return(nil, nil, queries.ErrInvalidCursor)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?after=zz", nil, "u42")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "Invalid cursor")
	})
}

// ================================================================================
// TestAdmin
// ================================================================================

func (s *BookingHandlerTestSuite) TestAdmin() {
	admin := "ops:" + jwt.RoleAdmin

	s.Run("success: advance status", func() {
		s.mockStatus.EXPECT().AdvanceStatus(gomock.Any(), "b1", booking.StatusPicked).Return(nil)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/admin/bookings/b1/status", map[string]any{"status": "picked"}, admin)
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("success: mark paid is idempotent", func() {
		s.mockStatus.EXPECT().AdvancePaymentStatus(gomock.Any(), "b1", booking.PaymentPaid).Return(nil).Times(2)
		for i := 0; i < 2; i++ {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/admin/bookings/b1/payment", map[string]any{"paymentStatus": "paid"}, admin)
			s.Equal(http.StatusNoContent, rec.Code)
		}
	})

	s.Run("bad request: missing status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/admin/bookings/b1/status", map[string]any{}, admin)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("conflict: invalid transition", func() {
		s.mockStatus.EXPECT().AdvanceStatus(gomock.Any(), "b1", booking.StatusDelivered).
			Return(errs.Mark(booking.ErrInvalidStatusTransition, commands.ErrInvalidTransition))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/admin/bookings/b1/status", map[string]any{"status": "delivered"}, admin)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("not found", func() {
		s.mockStatus.EXPECT().AdvancePaymentStatus(gomock.Any(), "b9", booking.PaymentRefunded).Return(commands.ErrBookingNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/admin/bookings/b9/payment", map[string]any{"paymentStatus": "refunded"}, admin)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
