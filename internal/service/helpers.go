package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice-service/internal/domain"
	"github.com/spec-kit/backoffice-service/internal/events"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	apperrors "github.com/spec-kit/backoffice-service/pkg/util"
)

// notFoundOr maps a missing row to the structured not-found error and
// passes every other failure through untouched.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}

func generateReferenceCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func actorEvent(actor domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Role: actor.Role}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

// bookClientIDs resolves the client rows in an agent's book, returning
// their ids and owning user ids.
func bookClientIDs(ctx context.Context, clients repository.ClientRepository, agentID string) ([]string, []string, error) {
	book, err := clients.ListWithFilter(ctx, repository.ClientFilter{AgentID: &agentID, Limit: 1000})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	ids := make([]string, 0, len(book))
	userIDs := make([]string, 0, len(book))
	for _, c := range book {
		ids = append(ids, c.ID)
		userIDs = append(userIDs, c.OwnerUserID)
	}
	return ids, userIDs, nil
}

// forbidden is the uniform policy denial. The message stays generic so a
// denial never reveals more about the row than its existence, which the
// caller already established.
func forbidden() error {
	return apperrors.NewForbidden("operation not permitted")
}

// requireVerdict collapses a policy evaluation into the service error
// contract.
func requireVerdict(v policy.Verdict, err error) (policy.Verdict, error) {
	if err != nil {
		return v, apperrors.MapError(err)
	}
	if !v.Allowed {
		return v, forbidden()
	}
	return v, nil
}
