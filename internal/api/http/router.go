package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice-service/internal/api/http/handlers"
	"github.com/spec-kit/backoffice-service/internal/auth"
	"github.com/spec-kit/backoffice-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Clients        *handlers.ClientsHandler
	Tickets        *handlers.TicketsHandler
	Payments       *handlers.PaymentsHandler
	PaymentPlans   *handlers.PaymentPlansHandler
	Subscriptions  *handlers.SubscriptionsHandler
	Finance        *handlers.FinanceHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Role guards here only trim routes no
// member of other roles could ever use; per-resource decisions belong to
// the policy engine behind the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	clients := api.Group("/clients")
	clients.Get("/me", cfg.Clients.GetOwnClient)
	clients.Get("/", cfg.Clients.ListClients)
	clients.Post("/", cfg.Clients.CreateClient)
	clients.Get("/:id", cfg.Clients.GetClient)
	clients.Patch("/:id", cfg.Clients.UpdateClient)
	clients.Delete("/:id", cfg.Clients.DeleteClient)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/notes", cfg.Tickets.ListNotes)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	payments := api.Group("/payments")
	payments.Get("/", cfg.Payments.ListPayments)
	payments.Post("/", cfg.Payments.CreatePayment)
	payments.Get("/:id", cfg.Payments.GetPayment)
	payments.Patch("/:id", cfg.Payments.UpdatePayment)
	payments.Delete("/:id", cfg.Payments.DeletePayment)

	plans := api.Group("/payment-plans")
	plans.Get("/", cfg.PaymentPlans.ListPlans)
	plans.Post("/", cfg.PaymentPlans.CreatePlan)
	plans.Get("/:id", cfg.PaymentPlans.GetPlan)
	plans.Get("/:id/payments", cfg.PaymentPlans.ListPlanPayments)
	plans.Post("/:id/payments", cfg.PaymentPlans.RecordPlanPayment)
	plans.Patch("/:id", cfg.PaymentPlans.UpdatePlan)
	plans.Delete("/:id", cfg.PaymentPlans.DeletePlan)

	subscriptions := api.Group("/subscriptions")
	subscriptions.Get("/", cfg.Subscriptions.ListSubscriptions)
	subscriptions.Post("/", cfg.Subscriptions.CreateSubscription)
	subscriptions.Get("/:id", cfg.Subscriptions.GetSubscription)
	subscriptions.Patch("/:id", cfg.Subscriptions.UpdateSubscription)
	subscriptions.Delete("/:id", cfg.Subscriptions.DeleteSubscription)

	finance := api.Group("/finance", auth.RequireRole(domain.RoleAdmin))
	finance.Get("/expenses", cfg.Finance.ListExpenses)
	finance.Post("/expenses", cfg.Finance.CreateExpense)
	finance.Put("/expenses/:id", cfg.Finance.UpdateExpense)
	finance.Delete("/expenses/:id", cfg.Finance.DeleteExpense)
	finance.Get("/accounts", cfg.Finance.ListAccounts)
	finance.Post("/accounts", cfg.Finance.CreateAccount)
	finance.Put("/accounts/:id", cfg.Finance.UpdateAccount)
	finance.Delete("/accounts/:id", cfg.Finance.DeleteAccount)

	stats := api.Group("/stats", auth.RequireStaff())
	stats.Get("/dashboard", cfg.Stats.Dashboard)
}
