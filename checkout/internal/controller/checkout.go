package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/form"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/service"
	"github.com/Alturino/storefront/checkout/pkg/request"
	"github.com/Alturino/storefront/checkout/pkg/response"
	"github.com/Alturino/storefront/internal/common"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/common/http"
	"github.com/Alturino/storefront/internal/common/validate"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
)

type CheckoutController struct {
	service  *service.CheckoutService
	validate *validator.Validate
}

func AttachCheckoutController(mux *mux.Router, service *service.CheckoutService, secretKey string) {
	controller := CheckoutController{service: service, validate: validate.New()}

	router := mux.PathPrefix("/checkout").Subrouter()
	router.Use(middleware.Auth(secretKey))
	router.HandleFunc("/cart", controller.ListCart).Methods(http.MethodGet)
	router.HandleFunc("/cart/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/cart/items/{productId}", controller.UpdateQuantity).Methods(http.MethodPut)
	router.HandleFunc("/cart/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/summary", controller.Summary).Methods(http.MethodGet)
	router.HandleFunc("/promo", controller.ApplyPromo).Methods(http.MethodPost)
	router.HandleFunc("/promo", controller.RemovePromo).Methods(http.MethodDelete)
	router.HandleFunc("/delivery-options", controller.DeliveryOptions).Methods(http.MethodGet)
	router.HandleFunc("/delivery", controller.SelectDelivery).Methods(http.MethodPut)
	router.HandleFunc("/gift-wrap", controller.SetGiftWrap).Methods(http.MethodPut)
	router.HandleFunc("/steps/shipping", controller.ToShipping).Methods(http.MethodPost)
	router.HandleFunc("/steps/payment", controller.SubmitShipping).Methods(http.MethodPost)
	router.HandleFunc("/steps/confirm", controller.PlaceOrder).Methods(http.MethodPost)
	router.HandleFunc("/steps/back", controller.Back).Methods(http.MethodPost)
	router.HandleFunc("/restart", controller.StartNewCheckout).Methods(http.MethodPost)
	router.HandleFunc("/wishlist", controller.Wishlist).Methods(http.MethodGet)
	router.HandleFunc("/wishlist", controller.ToggleWishlist).Methods(http.MethodPost)
	router.HandleFunc("/postal-codes/{postalCode}", controller.LookupPostalCode).Methods(http.MethodGet)
	router.HandleFunc("/orders/{orderId}", controller.FindOrder).Methods(http.MethodGet)
}

// statusCode maps the checkout error taxonomy onto HTTP status codes.
func statusCode(err error) int {
	if _, ok := checkoutErrors.AsValidationError(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, commonErrors.ErrEmptyAuth),
		errors.Is(err, commonErrors.ErrEmptySubject),
		errors.Is(err, commonErrors.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, checkoutErrors.ErrInvalidQuantity),
		errors.Is(err, checkoutErrors.ErrInvalidPrice),
		errors.Is(err, checkoutErrors.ErrPromoNotFound),
		errors.Is(err, checkoutErrors.ErrUnknownDeliveryOption),
		errors.Is(err, checkoutErrors.ErrInvalidPostalCode):
		return http.StatusBadRequest
	case errors.Is(err, checkoutErrors.ErrEmptyCart),
		errors.Is(err, checkoutErrors.ErrInvalidTransition),
		errors.Is(err, checkoutErrors.ErrSubmissionInFlight),
		errors.Is(err, checkoutErrors.ErrSubmissionAbandoned):
		return http.StatusConflict
	case errors.Is(err, checkoutErrors.ErrOrderSubmission):
		return http.StatusBadGateway
	case errors.Is(err, checkoutErrors.ErrItemNotFound),
		errors.Is(err, checkoutErrors.ErrPostalCodeNotFound),
		errors.Is(err, checkoutErrors.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeFailed(w http.ResponseWriter, r *http.Request, span trace.Span, logger zerolog.Logger, err error) {
	commonErrors.HandleError(err, span)
	logger.Error().Err(err).Msg(err.Error())

	body := map[string]interface{}{
		"status":     "failed",
		"statusCode": statusCode(err),
		"message":    err.Error(),
	}
	if validationErr, ok := checkoutErrors.AsValidationError(err); ok {
		body["errors"] = validationErr.Fields
	}
	commonHttp.WriteJsonResponse(logger.WithContext(r.Context()), w, map[string]string{}, body)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, message string, data map[string]interface{}) {
	commonHttp.WriteJsonResponse(r.Context(), w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    message,
		"data":       data,
	})
}

func decode(r *http.Request, logger zerolog.Logger, v interface{}) error {
	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf(
			"failed decoding request body with error=%w",
			checkoutErrors.NewValidationError(map[string]string{"body": err.Error()}),
		)
	}
	logger.Info().Msg("decoded request body")
	return nil
}

// decodeRequest decodes and validates a request DTO. Form bodies are only
// decoded; the checkout flow validates them.
func (ctrl CheckoutController) decodeRequest(r *http.Request, logger zerolog.Logger, v interface{}) error {
	if err := decode(r, logger, v); err != nil {
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	if err := ctrl.validate.StructCtx(r.Context(), v); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return fmt.Errorf("failed validating request body with error=%w", err)
		}
		fields := map[string]string{}
		for _, fe := range validationErrs {
			fields[fe.Field()] = fmt.Sprintf("failed on %s", fe.Tag())
		}
		return fmt.Errorf(
			"failed validating request body with error=%w",
			checkoutErrors.NewValidationError(fields),
		)
	}
	logger.Info().Msg("validated request body")

	return nil
}

// begin starts the handler span and resolves the shopper session from the
// verified token.
func (ctrl CheckoutController) begin(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (*http.Request, trace.Span, zerolog.Logger, string, bool) {
	c, span := otel.Tracer.Start(r.Context(), name)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, name).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting sessionId from jwtToken").Logger()
	sessionID, err := common.SessionIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting sessionId from jwtToken with error=%w", err)
		writeFailed(w, r.WithContext(c), span, logger, err)
		return r, span, logger, "", false
	}
	logger = logger.With().Str(log.KeySessionID, sessionID).Logger()
	c = logger.WithContext(c)

	return r.WithContext(c), span, logger, sessionID, true
}

func (ctrl CheckoutController) ListCart(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController ListCart")
	defer span.End()
	if !ok {
		return
	}

	items := ctrl.service.ListCart(r.Context(), sessionID)
	logger.Info().Int(log.KeyCartItemsCount, len(items)).Msg("listed cart")

	writeSuccess(w, r, "successfully listed cart", map[string]interface{}{
		"cart": response.ToCart(items),
	})
}

func (ctrl CheckoutController) AddItem(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController AddItem")
	defer span.End()
	if !ok {
		return
	}

	reqBody := request.AddItem{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	items, err := ctrl.service.AddItem(
		r.Context(),
		sessionID,
		reqBody.ProductID,
		reqBody.Variant,
		reqBody.UnitPrice,
		reqBody.QuantityOrDefault(),
	)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed adding item with error=%w", err))
		return
	}
	logger.Info().Msg("added item")

	writeSuccess(w, r, "successfully added item", map[string]interface{}{
		"cart": response.ToCart(items),
	})
}

func (ctrl CheckoutController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController UpdateQuantity")
	defer span.End()
	if !ok {
		return
	}

	productID := mux.Vars(r)["productId"]
	variant := r.URL.Query().Get("variant")
	logger = logger.With().Str(log.KeyProductID, productID).Str(log.KeyVariant, variant).Logger()

	reqBody := request.UpdateQuantity{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating quantity").Logger()
	logger.Info().Msg("updating quantity")
	items, err := ctrl.service.UpdateQuantity(r.Context(), sessionID, productID, variant, reqBody.Quantity)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed updating quantity with error=%w", err))
		return
	}
	logger.Info().Msg("updated quantity")

	writeSuccess(w, r, "successfully updated quantity", map[string]interface{}{
		"cart": response.ToCart(items),
	})
}

func (ctrl CheckoutController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController RemoveItem")
	defer span.End()
	if !ok {
		return
	}

	productID := mux.Vars(r)["productId"]
	variant := r.URL.Query().Get("variant")
	items := ctrl.service.RemoveItem(r.Context(), sessionID, productID, variant)
	logger.Info().Str(log.KeyProductID, productID).Msg("removed item")

	writeSuccess(w, r, "successfully removed item", map[string]interface{}{
		"cart": response.ToCart(items),
	})
}

func (ctrl CheckoutController) Summary(w http.ResponseWriter, r *http.Request) {
	r, span, _, sessionID, ok := ctrl.begin(w, r, "CheckoutController Summary")
	defer span.End()
	if !ok {
		return
	}

	writeSuccess(w, r, "successfully computed summary", map[string]interface{}{
		"summary": ctrl.service.Summary(r.Context(), sessionID),
	})
}

func (ctrl CheckoutController) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController ApplyPromo")
	defer span.End()
	if !ok {
		return
	}

	reqBody := request.ApplyPromo{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	logger = logger.With().Str(log.KeyPromoCode, reqBody.Code).Str(log.KeyProcess, "applying promo").Logger()
	logger.Info().Msg("applying promo")
	summary, err := ctrl.service.ApplyPromo(r.Context(), sessionID, reqBody.Code)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed applying promo with error=%w", err))
		return
	}
	logger.Info().Msg("applied promo")

	message := "successfully applied promo"
	if summary.Promo != nil && summary.Promo.Message != "" {
		message = summary.Promo.Message
	}
	writeSuccess(w, r, message, map[string]interface{}{"summary": summary})
}

func (ctrl CheckoutController) RemovePromo(w http.ResponseWriter, r *http.Request) {
	r, span, _, sessionID, ok := ctrl.begin(w, r, "CheckoutController RemovePromo")
	defer span.End()
	if !ok {
		return
	}

	writeSuccess(w, r, "successfully removed promo", map[string]interface{}{
		"summary": ctrl.service.RemovePromo(r.Context(), sessionID),
	})
}

func (ctrl CheckoutController) DeliveryOptions(w http.ResponseWriter, r *http.Request) {
	r, span, _, _, ok := ctrl.begin(w, r, "CheckoutController DeliveryOptions")
	defer span.End()
	if !ok {
		return
	}

	writeSuccess(w, r, "successfully listed delivery options", map[string]interface{}{
		"deliveryOptions": ctrl.service.DeliveryOptions(),
	})
}

func (ctrl CheckoutController) SelectDelivery(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController SelectDelivery")
	defer span.End()
	if !ok {
		return
	}

	reqBody := request.SelectDelivery{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	summary, err := ctrl.service.SelectDelivery(r.Context(), sessionID, pricing.DeliveryID(reqBody.DeliveryOption))
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed selecting delivery with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully selected delivery", map[string]interface{}{"summary": summary})
}

func (ctrl CheckoutController) SetGiftWrap(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController SetGiftWrap")
	defer span.End()
	if !ok {
		return
	}

	reqBody := request.SetGiftWrap{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	writeSuccess(w, r, "successfully set gift wrap", map[string]interface{}{
		"summary": ctrl.service.SetGiftWrap(r.Context(), sessionID, reqBody.GiftWrap),
	})
}

func (ctrl CheckoutController) ToShipping(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController ToShipping")
	defer span.End()
	if !ok {
		return
	}

	state, err := ctrl.service.ToShipping(r.Context(), sessionID)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed moving to shipping with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully moved to shipping", map[string]interface{}{"checkout": state})
}

func (ctrl CheckoutController) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController SubmitShipping")
	defer span.End()
	if !ok {
		return
	}

	reqBody := form.ShippingAddress{}
	if err := decode(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	state, err := ctrl.service.SubmitShipping(r.Context(), sessionID, reqBody)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed submitting shipping with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully submitted shipping", map[string]interface{}{"checkout": state})
}

func (ctrl CheckoutController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController PlaceOrder")
	defer span.End()
	if !ok {
		return
	}

	reqBody := form.PaymentInstrument{}
	if err := decode(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "placing order").Logger()
	logger.Info().Msg("placing order")
	confirmation, err := ctrl.service.PlaceOrder(r.Context(), sessionID, reqBody)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed placing order with error=%w", err))
		return
	}
	logger.Info().Str(log.KeyOrderID, confirmation.Receipt.OrderID.String()).Msg("placed order")

	writeSuccess(w, r, "successfully placed order", map[string]interface{}{
		"order": response.ToConfirmation(confirmation),
	})
}

func (ctrl CheckoutController) Back(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController Back")
	defer span.End()
	if !ok {
		return
	}

	state, err := ctrl.service.Back(r.Context(), sessionID)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed moving back with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully moved back", map[string]interface{}{"checkout": state})
}

func (ctrl CheckoutController) StartNewCheckout(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController StartNewCheckout")
	defer span.End()
	if !ok {
		return
	}

	summary, err := ctrl.service.StartNewCheckout(r.Context(), sessionID)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed starting new checkout with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully started new checkout", map[string]interface{}{"summary": summary})
}

func (ctrl CheckoutController) Wishlist(w http.ResponseWriter, r *http.Request) {
	r, span, _, sessionID, ok := ctrl.begin(w, r, "CheckoutController Wishlist")
	defer span.End()
	if !ok {
		return
	}

	writeSuccess(w, r, "successfully listed wishlist", map[string]interface{}{
		"wishlist": response.Wishlist{Items: ctrl.service.Wishlist(r.Context(), sessionID)},
	})
}

func (ctrl CheckoutController) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController ToggleWishlist")
	defer span.End()
	if !ok {
		return
	}

	reqBody := request.ToggleWishlist{}
	if err := ctrl.decodeRequest(r, logger, &reqBody); err != nil {
		writeFailed(w, r, span, logger, err)
		return
	}

	added, items := ctrl.service.ToggleWishlist(r.Context(), sessionID, response.ToProductSummary(reqBody))

	writeSuccess(w, r, "successfully toggled wishlist", map[string]interface{}{
		"wishlist": response.Wishlist{Items: items, Added: &added},
	})
}

func (ctrl CheckoutController) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	r, span, logger, _, ok := ctrl.begin(w, r, "CheckoutController LookupPostalCode")
	defer span.End()
	if !ok {
		return
	}

	postalCode := mux.Vars(r)["postalCode"]
	addr, err := ctrl.service.LookupPostalCode(r.Context(), postalCode)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed looking up postal code with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully looked up postal code", map[string]interface{}{"address": addr})
}

func (ctrl CheckoutController) FindOrder(w http.ResponseWriter, r *http.Request) {
	r, span, logger, sessionID, ok := ctrl.begin(w, r, "CheckoutController FindOrder")
	defer span.End()
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating uuid").Logger()
	logger.Info().Msg("validating uuid")
	orderID, err := uuid.Parse(mux.Vars(r)["orderId"])
	if err != nil {
		err = fmt.Errorf(
			"failed validating orderId with error=%w",
			checkoutErrors.NewValidationError(map[string]string{"orderId": err.Error()}),
		)
		writeFailed(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("validated uuid")

	found, err := ctrl.service.FindOrder(r.Context(), sessionID, orderID)
	if err != nil {
		writeFailed(w, r, span, logger, fmt.Errorf("failed finding order with error=%w", err))
		return
	}

	writeSuccess(w, r, "successfully found order", map[string]interface{}{"order": response.ToOrder(found)})
}
