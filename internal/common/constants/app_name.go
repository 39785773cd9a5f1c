package constants

const (
	APP_STOREFRONT       = "storefront"
	APP_CHECKOUT_SERVICE = "checkout-service"
	APP_ORDER_WORKER     = "order-worker"
	AUDIENCE_SHOPPER     = "audience-shopper"
	ISSUER_AUTH_PROVIDER = "auth-provider"
)
