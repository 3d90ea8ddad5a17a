package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockai-backend/internal/common/cache"
	"stockai-backend/internal/common/config"
	"stockai-backend/internal/common/logger"
	"stockai-backend/internal/features/payments/models"
	"stockai-backend/internal/features/payments/repository"
	userservice "stockai-backend/internal/features/user/service"
	"stockai-backend/internal/platform/razorpay"
)

const accessCacheTTL = 30 * time.Second

type paymentService struct {
	gateway Gateway
	orders  repository.OrderRepository
	users   userservice.UserService
	cache   *cache.CacheService
	cfg     *config.Config
}

// NewPaymentService builds the verification engine. orders may be nil when
// no database is configured; gateway may be unconfigured. Either degrades a
// verification path, never hard-fails the whole engine.
func NewPaymentService(gateway Gateway, orders repository.OrderRepository, users userservice.UserService, cacheService *cache.CacheService, cfg *config.Config) PaymentService {
	return &paymentService{
		gateway: gateway,
		orders:  orders,
		users:   users,
		cache:   cacheService,
		cfg:     cfg,
	}
}

// Verify implements the two-path reconciliation. Gateway confirmation is
// the strongest signal and performs the order-store write; an order row
// already marked paid (by the webhook or an admin) is sufficient on its own.
// A gateway outage therefore never blocks a payment the database already
// recorded.
func (s *paymentService) Verify(ctx context.Context, req VerifyRequest) *models.VerificationResult {
	if req.Product == "" {
		req.Product = models.ProductPredictions
	}

	var payment *razorpay.Payment
	if s.gateway != nil && s.gateway.Configured() && req.PaymentID != "" {
		p, err := s.gateway.LookupPayment(ctx, req.PaymentID)
		if err != nil {
			// Transient gateway failure: treated as "gateway says nothing"
			// and the database path gets its chance.
			logger.Warn().Err(err).Str("payment_id", req.PaymentID).Msg("Razorpay lookup failed")
		} else {
			payment = p
		}
	}

	if payment.Captured(s.cfg.Razorpay.AmountPaise) {
		return s.grantFromGateway(ctx, req)
	}

	if result := s.confirmFromStore(ctx, req); result != nil {
		return result
	}

	debug := map[string]interface{}{
		"sessionToken": tokenState(req.SessionTokenPresent),
	}
	if payment != nil && payment.Raw != nil {
		debug["razorpay"] = payment.Raw
	}

	if payment != nil && payment.Raw != nil {
		return &models.VerificationResult{
			Verified:  false,
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
			Error:     "Payment not verified",
			Reason:    models.ReasonMismatch,
			Razorpay:  &models.GatewayInfo{Status: payment.Status, Amount: payment.Amount},
			Debug:     debug,
		}
	}

	return &models.VerificationResult{
		Verified:  false,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Error:     "Payment not verified",
		Reason:    models.ReasonNoRecord,
		Debug:     debug,
	}
}

// grantFromGateway is path 1: the gateway confirmed capture. Record the
// order as paid, resolve whose entitlement to set (session identity wins
// over the order row) and flip the flag.
func (s *paymentService) grantFromGateway(ctx context.Context, req VerifyRequest) *models.VerificationResult {
	if s.orders != nil {
		var err error
		if req.OrderID != "" {
			err = s.orders.MarkPaidByOrderID(ctx, req.OrderID, req.PaymentID)
		} else {
			err = s.orders.MarkPaidByPaymentID(ctx, req.PaymentID)
		}
		if err != nil {
			logger.Warn().Err(err).Str("order_id", req.OrderID).Msg("Failed to mark order paid")
		}
	}

	userID := req.SessionUserID
	if userID == "" && req.OrderID != "" && s.orders != nil {
		if order, err := s.orders.GetByOrderID(ctx, req.OrderID); err == nil {
			userID = order.UserID
		}
	}

	result := &models.VerificationResult{
		Verified:  true,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
	}

	if userID == "" {
		return result
	}

	if err := s.users.GrantAccess(ctx, userID, string(req.Product)); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to set entitlement flag")
		return result
	}
	s.invalidateAccess(ctx, userID)

	// The refreshed snapshot is best-effort: the grant stands even when the
	// read-back fails.
	if user, err := s.users.GetUser(ctx, userID); err == nil {
		result.User = user
	}

	return result
}

// confirmFromStore is path 2: an order row already marked paid is enough.
// Returns nil when the store has no say.
func (s *paymentService) confirmFromStore(ctx context.Context, req VerifyRequest) *models.VerificationResult {
	if s.orders == nil {
		return nil
	}

	var order *models.PaymentOrder
	var err error
	if req.OrderID != "" {
		order, err = s.orders.GetByOrderID(ctx, req.OrderID)
	} else if req.PaymentID != "" {
		order, err = s.orders.GetByPaymentID(ctx, req.PaymentID)
	} else {
		return nil
	}
	if err != nil {
		if !errors.Is(err, repository.ErrOrderNotFound) {
			logger.Warn().Err(err).Msg("Order lookup failed")
		}
		return nil
	}

	if order.Status != models.StatusPaid {
		return nil
	}

	product := order.ProductType
	if product == "" {
		product = req.Product
	}

	result := &models.VerificationResult{
		Verified:  true,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
	}

	// Re-asserting an already-set flag is safe; repeats converge.
	if err := s.users.GrantAccess(ctx, order.UserID, string(product)); err != nil {
		logger.Warn().Err(err).Str("user_id", order.UserID).Msg("Failed to re-assert entitlement flag")
		return result
	}
	s.invalidateAccess(ctx, order.UserID)

	if user, err := s.users.GetUser(ctx, order.UserID); err == nil {
		result.User = user
	}

	return result
}

// ConfirmOrder serves the GET verify path, which deliberately never calls
// the gateway: a client-supplied order id alone must not grant unless the
// stored row says paid.
func (s *paymentService) ConfirmOrder(ctx context.Context, orderID string, product models.ProductType) *models.VerificationResult {
	if s.orders == nil {
		// Degenerate deployment without a database: nothing to check
		// against, stay permissive.
		return &models.VerificationResult{Verified: true, OrderID: orderID, Message: "Test mode - no database"}
	}

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return &models.VerificationResult{
				Verified: false,
				OrderID:  orderID,
				Error:    "Payment not verified",
				Reason:   models.ReasonNoRecord,
			}
		}
		logger.Error().Err(err).Str("order_id", orderID).Msg("Order lookup failed")
		return &models.VerificationResult{Verified: false, OrderID: orderID, Error: err.Error()}
	}

	if s.cfg.TestMode && order.Status == models.StatusCreated {
		// Simulated capture: test deployments have no webhook to flip the
		// row, the poll does it.
		if err := s.orders.MarkPaidByOrderID(ctx, orderID, ""); err != nil {
			logger.Warn().Err(err).Str("order_id", orderID).Msg("Failed to mark test order paid")
		} else {
			order.Status = models.StatusPaid
		}
	}

	if order.Status != models.StatusPaid {
		return &models.VerificationResult{
			Verified: false,
			OrderID:  orderID,
			Status:   order.Status,
		}
	}

	productType := order.ProductType
	if productType == "" {
		productType = product
	}

	result := &models.VerificationResult{Verified: true, OrderID: orderID}

	if err := s.users.GrantAccess(ctx, order.UserID, string(productType)); err != nil {
		logger.Warn().Err(err).Str("user_id", order.UserID).Msg("Failed to set entitlement flag")
		return result
	}
	s.invalidateAccess(ctx, order.UserID)

	if user, err := s.users.GetUser(ctx, order.UserID); err == nil {
		result.User = user
	}

	return result
}

func (s *paymentService) CreatePayment(ctx context.Context, userID, email, name string, product models.ProductType) (*models.CreatePaymentResult, error) {
	hasAccess, err := s.users.HasAccess(ctx, userID, string(product))
	if err != nil && !errors.Is(err, userservice.ErrNoDatabase) && !errors.Is(err, userservice.ErrUserNotFound) {
		return nil, err
	}
	if hasAccess {
		return &models.CreatePaymentResult{
			AlreadyPaid: true,
			Message:     fmt.Sprintf("You already have access to %s", strings.ReplaceAll(string(product), "_", " ")),
			Redirect:    "/" + product.PathSegment(),
		}, nil
	}

	amountPaise := s.cfg.Razorpay.AmountPaise

	if s.gateway != nil && s.gateway.Configured() {
		link, err := s.gateway.CreatePaymentLink(ctx, razorpay.CreateLinkRequest{
			AmountPaise:   amountPaise,
			Description:   product.Description(),
			CustomerName:  name,
			CustomerEmail: email,
			CallbackURL:   s.webhookURL(product),
		})
		if err != nil {
			// Fall through to the test link rather than failing checkout on
			// a gateway hiccup.
			logger.Warn().Err(err).Msg("Razorpay payment link creation failed")
		} else {
			s.persistOrder(ctx, link.ID, userID, amountPaise, product)
			if url := link.URL(); url != "" {
				return &models.CreatePaymentResult{OrderID: link.ID, PaymentLink: url}, nil
			}
		}
	}

	// Test/dev fallback: a synthetic order against the shared test link.
	testLinkID := fmt.Sprintf("aplink_test_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	s.persistOrder(ctx, testLinkID, userID, amountPaise, product)

	logger.Info().
		Str("order_id", testLinkID).
		Str("user_id", userID).
		Str("product", string(product)).
		Msg("Issued test payment link")

	return &models.CreatePaymentResult{OrderID: testLinkID, PaymentLink: s.cfg.Razorpay.TestLink}, nil
}

func (s *paymentService) persistOrder(ctx context.Context, orderID, userID string, amountPaise int64, product models.ProductType) {
	if s.orders == nil {
		return
	}

	order := &models.PaymentOrder{
		OrderID:        orderID,
		UserID:         userID,
		Amount:         float64(amountPaise) / 100,
		Currency:       "INR",
		Status:         models.StatusCreated,
		PaymentGateway: "razorpay",
		ProductType:    product,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		// Best-effort: the checkout link still works, verification just
		// loses the database fallback for this order.
		logger.Warn().Err(err).Str("order_id", orderID).Msg("Failed to persist payment order")
	}
}

func (s *paymentService) Revert(ctx context.Context, userID string) (*models.VerificationResult, error) {
	hasPrediction, err := s.users.HasAccess(ctx, userID, string(models.ProductPredictions))
	if err != nil {
		if errors.Is(err, userservice.ErrNoDatabase) {
			return nil, ErrNoDatabase
		}
		return nil, err
	}
	hasTopGainer, err := s.users.HasAccess(ctx, userID, string(models.ProductTopGainers))
	if err != nil {
		return nil, err
	}
	if !hasPrediction && !hasTopGainer {
		return nil, ErrNoAccess
	}

	// Reverting either product clears both flags. Deliberate product
	// decision carried over from the original paywall.
	if err := s.users.RevokeAccess(ctx, userID); err != nil {
		return nil, err
	}
	s.invalidateAccess(ctx, userID)

	if s.orders != nil {
		if err := s.orders.MarkRevertedForUser(ctx, userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to mark orders reverted")
		}
	}

	result := &models.VerificationResult{
		Verified: false,
		Message:  "Payment access has been reverted for predictions and top gainers.",
	}
	if user, err := s.users.GetUser(ctx, userID); err == nil {
		result.User = user
	}

	return result, nil
}

func (s *paymentService) CheckAccess(ctx context.Context, userID string, product models.ProductType) (bool, error) {
	key := accessCacheKey(userID, product)

	var cached bool
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	hasAccess, err := s.users.HasAccess(ctx, userID, string(product))
	if err != nil {
		if errors.Is(err, userservice.ErrNoDatabase) {
			return false, nil
		}
		return false, err
	}

	if err := s.cache.Set(ctx, key, hasAccess, accessCacheTTL); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to cache access check")
	}

	return hasAccess, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, orderID, paymentID, linkStatus string) error {
	if linkStatus != "" && linkStatus != "paid" {
		logger.Info().
			Str("order_id", orderID).
			Str("link_status", linkStatus).
			Msg("Ignoring webhook for non-paid link status")
		return nil
	}
	if s.orders == nil {
		return ErrNoDatabase
	}

	if err := s.orders.MarkPaidByOrderID(ctx, orderID, paymentID); err != nil {
		return err
	}

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.users.GrantAccess(ctx, order.UserID, string(order.ProductType)); err != nil {
		return err
	}
	s.invalidateAccess(ctx, order.UserID)

	logger.Info().
		Str("order_id", orderID).
		Str("user_id", order.UserID).
		Str("product", string(order.ProductType)).
		Msg("Webhook marked order paid")

	return nil
}

// webhookURL is where the gateway sends the customer after checkout.
func (s *paymentService) webhookURL(product models.ProductType) string {
	return fmt.Sprintf("%s/api/v1/%s/webhook", s.cfg.Server.PublicURL, product.PathSegment())
}

func (s *paymentService) invalidateAccess(ctx context.Context, userID string) {
	err := s.cache.Delete(ctx,
		accessCacheKey(userID, models.ProductPredictions),
		accessCacheKey(userID, models.ProductTopGainers))
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate access cache")
	}
}

func accessCacheKey(userID string, product models.ProductType) string {
	return fmt.Sprintf("access:%s:%s", product, userID)
}

func tokenState(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}
