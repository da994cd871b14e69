package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/repository"
)

// The stubs mirror the SQL repositories over in-memory maps, returning
// pgx.ErrNoRows exactly where a query would.

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

var testIDs idSeq

// stubTx serializes transactional sections with a single mutex, standing
// in for the row lock the SQL layer takes.
type stubTx struct {
	mu sync.Mutex
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]domain.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = testIDs.next("user")
	}
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

type stubClientRepo struct {
	mu      sync.Mutex
	clients map[string]domain.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: map[string]domain.Client{}}
}

func (r *stubClientRepo) Create(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client.ID == "" {
		client.ID = testIDs.next("client")
	}
	r.clients[client.ID] = *client
	return nil
}

func (r *stubClientRepo) Update(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.clients[client.ID] = *client
	return nil
}

func (r *stubClientRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.clients, id)
	return nil
}

func (r *stubClientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &client, nil
}

func (r *stubClientRepo) GetByOwnerUserID(_ context.Context, userID string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.OwnerUserID == userID {
			c := client
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubClientRepo) ListWithFilter(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Client{}
	for _, client := range r.clients {
		if filter.AgentID != nil && (client.AgentID == nil || *client.AgentID != *filter.AgentID) {
			continue
		}
		if filter.OwnerUserID != nil && client.OwnerUserID != *filter.OwnerUserID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsClientStatus(filter.Statuses, client.Status) {
			continue
		}
		out = append(out, client)
	}
	return out, nil
}

func containsClientStatus(set []domain.ClientStatus, s domain.ClientStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type stubPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: map[string]domain.Payment{}}
}

func (r *stubPaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID == "" {
		payment.ID = testIDs.next("payment")
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *stubPaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *stubPaymentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.payments, id)
	return nil
}

func (r *stubPaymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &payment, nil
}

func (r *stubPaymentRepo) ListWithFilter(_ context.Context, filter repository.PaymentFilter) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Payment{}
	for _, payment := range r.payments {
		if filter.ClientID != nil && payment.ClientID != *filter.ClientID {
			continue
		}
		if len(filter.ClientIDs) > 0 && !containsString(filter.ClientIDs, payment.ClientID) {
			continue
		}
		if filter.PaymentPlanID != nil && (payment.PaymentPlanID == nil || *payment.PaymentPlanID != *filter.PaymentPlanID) {
			continue
		}
		out = append(out, payment)
	}
	return out, nil
}

func (r *stubPaymentRepo) CountByPlan(_ context.Context, planID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, payment := range r.payments {
		if payment.PaymentPlanID != nil && *payment.PaymentPlanID == planID {
			count++
		}
	}
	return count, nil
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type stubPlanRepo struct {
	mu    sync.Mutex
	plans map[string]domain.PaymentPlan
}

func newStubPlanRepo() *stubPlanRepo {
	return &stubPlanRepo{plans: map[string]domain.PaymentPlan{}}
}

func (r *stubPlanRepo) Create(_ context.Context, plan *domain.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID == "" {
		plan.ID = testIDs.next("plan")
	}
	r.plans[plan.ID] = *plan
	return nil
}

func (r *stubPlanRepo) Update(_ context.Context, plan *domain.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.plans[plan.ID] = *plan
	return nil
}

func (r *stubPlanRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.plans, id)
	return nil
}

func (r *stubPlanRepo) GetByID(_ context.Context, id string) (*domain.PaymentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &plan, nil
}

func (r *stubPlanRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.PaymentPlan, error) {
	return r.GetByID(ctx, id)
}

func (r *stubPlanRepo) ListWithFilter(_ context.Context, filter repository.PaymentPlanFilter) ([]domain.PaymentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.PaymentPlan{}
	for _, plan := range r.plans {
		if filter.UserID != nil && plan.UserID != *filter.UserID {
			continue
		}
		if len(filter.UserIDs) > 0 && !containsString(filter.UserIDs, plan.UserID) {
			continue
		}
		out = append(out, plan)
	}
	return out, nil
}

type stubTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *stubTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = testIDs.next("ticket")
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *stubTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *stubTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *stubTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ticket{}
	for _, ticket := range r.tickets {
		if filter.ClientID != nil && ticket.ClientID != *filter.ClientID {
			continue
		}
		if filter.AgentID != nil {
			assignedToAgent := ticket.AssignedAgentID != nil && *ticket.AssignedAgentID == *filter.AgentID
			unassigned := ticket.AssignedAgentID == nil
			if !assignedToAgent && !(filter.IncludeUnassigned && unassigned) {
				continue
			}
		}
		if filter.TechID != nil && (ticket.AssignedTechID == nil || *ticket.AssignedTechID != *filter.TechID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsTicketStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(ticket.Title), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *stubTicketRepo) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func containsTicketStatus(set []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type stubNoteRepo struct {
	mu    sync.Mutex
	notes []domain.TicketNote
}

func newStubNoteRepo() *stubNoteRepo {
	return &stubNoteRepo{}
}

func (r *stubNoteRepo) Create(_ context.Context, note *domain.TicketNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if note.ID == "" {
		note.ID = testIDs.next("note")
	}
	r.notes = append(r.notes, *note)
	return nil
}

func (r *stubNoteRepo) ListByTicket(_ context.Context, ticketID string, internalVisible bool) ([]domain.TicketNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TicketNote{}
	for _, note := range r.notes {
		if note.TicketID != ticketID {
			continue
		}
		if note.IsInternal && !internalVisible {
			continue
		}
		out = append(out, note)
	}
	return out, nil
}

type stubSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]domain.Subscription
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{subs: map[string]domain.Subscription{}}
}

func (r *stubSubscriptionRepo) Create(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == "" {
		sub.ID = testIDs.next("sub")
	}
	r.subs[sub.ID] = *sub
	return nil
}

func (r *stubSubscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.subs[sub.ID] = *sub
	return nil
}

func (r *stubSubscriptionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.subs, id)
	return nil
}

func (r *stubSubscriptionRepo) GetByID(_ context.Context, id string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sub, nil
}

func (r *stubSubscriptionRepo) ListWithFilter(_ context.Context, filter repository.SubscriptionFilter) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Subscription{}
	for _, sub := range r.subs {
		if filter.UserID != nil && sub.UserID != *filter.UserID {
			continue
		}
		if len(filter.UserIDs) > 0 && !containsString(filter.UserIDs, sub.UserID) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}
