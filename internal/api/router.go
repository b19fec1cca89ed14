package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/fastpay/fastpay-backend/internal/api/httpx"
	"github.com/fastpay/fastpay-backend/internal/api/validate"
	"github.com/fastpay/fastpay-backend/internal/auth"
	"github.com/fastpay/fastpay-backend/internal/gateway"
	"github.com/fastpay/fastpay-backend/internal/metrics"
	"github.com/fastpay/fastpay-backend/internal/middleware"
	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/fastpay/fastpay-backend/internal/services"
)

type RouterDeps struct {
	Gateway      *gateway.Gateway
	PaymentSvc   *services.PaymentService
	MerchantSvc  *services.MerchantService
	AnalyticsSvc *services.AnalyticsService
	Tokens       *auth.TokenManager
}

type paymentResponse struct {
	PaymentID           string `json:"payment_id"`
	Status              string `json:"status"`
	Message             string `json:"message"`
	EstimatedCompletion string `json:"estimated_completion,omitempty"`
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "fastpay-backend"})
	})
	r.Handle("/metrics", metrics.Handler())

	authmw := middleware.NewAuthMiddleware(d.Tokens)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- payments ----------
		r.Post("/payments", func(w http.ResponseWriter, r *http.Request) {
			var req models.PaymentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.BadRequest(w, "malformed request body", nil)
				return
			}

			merchant, err := d.Gateway.Authenticate(r.Context(), r.Header.Get("X-API-Key"), req.MerchantID)
			if err != nil {
				if errors.Is(err, gateway.ErrUnauthenticated) {
					httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid merchant credentials", nil)
					return
				}
				httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
				return
			}
			req.MerchantID = merchant.MerchantID

			if !d.Gateway.Allow(merchant.MerchantID) {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", gateway.ErrRateLimited.Error(), nil)
				return
			}

			p, err := d.PaymentSvc.Create(r.Context(), req)
			if err != nil {
				var verrs validate.Errs
				if errors.As(err, &verrs) {
					httpx.BadRequest(w, "validation failed", verrs)
					return
				}
				httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
				return
			}

			httpx.WriteJSON(w, http.StatusAccepted, paymentResponse{
				PaymentID:           p.ID,
				Status:              string(p.Status),
				Message:             "Payment initiated successfully",
				EstimatedCompletion: "2-5 seconds",
			})
		})

		r.Get("/payments/{id}", func(w http.ResponseWriter, r *http.Request) {
			view, err := d.PaymentSvc.GetStatus(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					httpx.NotFound(w, "payment not found")
					return
				}
				httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, view)
		})

		// ---------- merchants ----------
		r.Post("/merchants/register", func(w http.ResponseWriter, r *http.Request) {
			var reg services.MerchantRegistration
			if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
				httpx.BadRequest(w, "malformed request body", nil)
				return
			}
			m, err := d.MerchantSvc.Register(r.Context(), reg)
			if err != nil {
				if errors.Is(err, services.ErrEmailTaken) {
					httpx.WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
					return
				}
				httpx.BadRequest(w, err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, m)
		})

		r.Post("/merchants/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				APIKey    string `json:"api_key"`
				APISecret string `json:"api_secret"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.BadRequest(w, "malformed request body", nil)
				return
			}
			pair, err := d.MerchantSvc.Login(r.Context(), req.APIKey, req.APISecret)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, pair)
		})

		// ---------- QR codes (dashboard, JWT) ----------
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			r.Post("/merchants/qrcodes", func(w http.ResponseWriter, r *http.Request) {
				mid, _ := middleware.MerchantID(r.Context())
				var req services.QRCodeRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.BadRequest(w, "malformed request body", nil)
					return
				}
				q, data, err := d.MerchantSvc.CreateQR(r.Context(), mid, req)
				if err != nil {
					httpx.BadRequest(w, err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, map[string]any{"qr_code": q, "qr_data": data})
			})

			r.Get("/merchants/qrcodes", func(w http.ResponseWriter, r *http.Request) {
				mid, _ := middleware.MerchantID(r.Context())
				codes, err := d.MerchantSvc.ListQR(r.Context(), mid)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, codes)
			})
		})

		r.Post("/qrcodes/{id}/validate", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Redeem bool `json:"redeem"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			q, err := d.MerchantSvc.ValidateQR(r.Context(), chi.URLParam(r, "id"), req.Redeem)
			if err != nil {
				switch {
				case errors.Is(err, services.ErrQRInactive):
					httpx.NotFound(w, err.Error())
				case errors.Is(err, services.ErrQRExpired), errors.Is(err, services.ErrQRUsageExceeded):
					httpx.WriteError(w, http.StatusGone, "qr_unusable", err.Error(), nil)
				default:
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
				}
				return
			}
			httpx.WriteJSON(w, http.StatusOK, q)
		})

		// ---------- analytics ----------
		r.Get("/analytics/dashboard", func(w http.ResponseWriter, r *http.Request) {
			dash, err := d.AnalyticsSvc.Dashboard(r.Context())
			if err != nil {
				httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, dash)
		})
	})

	return r
}
