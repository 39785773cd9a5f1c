package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/storefront/checkout/internal/address"
	"github.com/Alturino/storefront/checkout/internal/cart"
	"github.com/Alturino/storefront/checkout/internal/controller"
	"github.com/Alturino/storefront/checkout/internal/order"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/service"
	"github.com/Alturino/storefront/internal/common/constants"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

const shutdownTimeout = 15 * time.Second

func RunCheckoutService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunCheckoutService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_CHECKOUT_SERVICE).
		Str(log.KeyTag, "main RunCheckoutService").
		Logger()
	c = logger.WithContext(c)

	cfg := config.Get(c, constants.APP_CHECKOUT_SERVICE)

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.APP_CHECKOUT_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		err := inOtel.ShutdownOtel(context.WithoutCancel(c), shutdownFuncs)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.APP_CHECKOUT_SERVICE), middleware.Logging, middleware.RecoverPanic)
	router.Handle("/metrics", promhttp.Handler())
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "closing cache").Logger()
		logger.Info().Msg("closing cache")
		if err := cache.Close(); err != nil {
			err = fmt.Errorf("failed closing cache with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("closed cache")
	}()
	logger.Info().Msg("initialized cache")

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.Checkout.Order.Timeout,
	}

	var wg sync.WaitGroup
	var submitter order.Submitter
	var orders service.OrderFinder
	logger = logger.With().
		Str(log.KeyProcess, "initializing order submitter").
		Str(log.KeyOrderSubmitMode, cfg.Checkout.Order.Mode).
		Logger()
	logger.Info().Msg("initializing order submitter")
	switch cfg.Checkout.Order.Mode {
	case config.OrderModeHttp:
		logger = logger.With().Str(log.KeySubmitterURL, cfg.Checkout.Order.SubmitterURL).Logger()
		submitter = order.NewHTTPSubmitter(httpClient, cfg.Checkout.Order.SubmitterURL)
	case config.OrderModeDatabase:
		db := infra.NewDatabaseClient(c, cfg.Database)
		defer func() {
			logger = logger.With().Str(log.KeyProcess, "closing database").Logger()
			logger.Info().Msg("closing database")
			db.Close()
			logger.Info().Msg("closed database")
		}()
		repository := order.NewRepository(db, cache)
		queue := order.NewQueue(cfg.Checkout.Order.BatchSize)
		worker := order.NewWorker(repository, queue.Requests(), cfg.Checkout.Order.Interval, cfg.Checkout.Order.BatchSize)

		logger.Info().Msg("start order worker")
		span.AddEvent("start order worker")
		wg.Add(1)
		go worker.StartWorker(logger.WithContext(c), &wg)

		submitter = queue
		orders = repository
	default:
		err = fmt.Errorf("unknown order mode=%s", cfg.Checkout.Order.Mode)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized order submitter")

	logger = logger.With().Str(log.KeyProcess, "initializing checkout service").Logger()
	logger.Info().Msg("initializing checkout service")
	promos, err := promoTable(cfg.Checkout)
	if err != nil {
		err = fmt.Errorf("failed initializing promo table with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	catalog, err := deliveryCatalog(cfg.Checkout)
	if err != nil {
		err = fmt.Errorf("failed initializing delivery catalog with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	fee, err := giftWrapFee(cfg.Checkout)
	if err != nil {
		err = fmt.Errorf("failed initializing gift wrap fee with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	checkoutService := service.NewCheckoutService(
		cart.NewRedisKV(cache),
		submitter,
		promos,
		catalog,
		pricing.NewEngine(fee),
		address.NewHTTPLookup(httpClient, cfg.Checkout.AddressLookupURL),
		orders,
		cfg.Checkout.SuccessRedirect,
		service.NewMetrics(prometheus.DefaultRegisterer),
	)
	logger.Info().
		Int(log.KeyPromoRulesCount, promos.Len()).
		Any(log.KeyDeliveryCatalog, catalog.Options()).
		Str(log.KeyAddressLookupURL, cfg.Checkout.AddressLookupURL).
		Msg("initialized checkout service")

	logger = logger.With().Str(log.KeyProcess, "initializing checkout controller").Logger()
	logger.Info().Msg("initializing checkout controller")
	controller.AttachCheckoutController(router, checkoutService, cfg.Application.SecretKey)
	logger.Info().Msg("initialized checkout controller")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	server := http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context {
			lg := logger.With().
				Reset().
				Timestamp().
				Caller().
				Stack().
				Str(log.KeyAppName, constants.APP_CHECKOUT_SERVICE).
				Logger()
			return lg.WithContext(c)
		},
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("encounter error=%w while running server", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interuption signal shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down server with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("shutdown server")

	wg.Wait()
	logger.Info().Msg("stopped order worker")
}
