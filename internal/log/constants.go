package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyToken              = "token"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyConfig             = "config"
	KeyDbURL              = "dbUrl"
	KeyCacheKey           = "cacheKey"
	KeyPathValues         = "pathValues"

	KeySessionID        = "sessionId"
	KeyProductID        = "productId"
	KeyVariant          = "variant"
	KeyQuantity         = "quantity"
	KeyCartItems        = "cartItems"
	KeyCartItemsCount   = "cartItemsCount"
	KeyWishlistItems    = "wishlistItems"
	KeyPromoCode        = "promoCode"
	KeyDeliveryOption   = "deliveryOption"
	KeyGiftWrap         = "giftWrap"
	KeyPricing          = "pricing"
	KeyCheckoutStep     = "checkoutStep"
	KeyGeneration       = "generation"
	KeyFieldErrors      = "fieldErrors"
	KeyPaymentMethod    = "paymentMethod"
	KeyPostalCode       = "postalCode"
	KeyOrderID          = "orderId"
	KeyOrder            = "order"
	KeyOrderBatchSize   = "orderBatchSize"
	KeyOrderSubmitMode  = "orderSubmitMode"
	KeySubmitterURL     = "submitterUrl"
	KeyResponseStatus   = "responseStatus"
	KeyDeliveryCatalog  = "deliveryCatalog"
	KeyPromoRulesCount  = "promoRulesCount"
	KeyWorkerInterval   = "workerInterval"
	KeyAddressLookupURL = "addressLookupUrl"
)
