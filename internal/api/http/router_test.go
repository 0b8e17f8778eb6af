package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/identity"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/store"
)

type testApp struct {
	app  *fiber.App
	auth *service.AuthService
}

// newTestApp spins up the full route stack over a seeded store. With
// guestFallback the unauthenticated caller acts as seed user 1 (admin).
func newTestApp(t *testing.T, guestFallback bool) *testApp {
	t.Helper()
	return newTestAppWithStore(t, guestFallback, store.Options{Seed: true}, 5*time.Second)
}

func newTestAppWithStore(t *testing.T, guestFallback bool, storeOpts store.Options, timeout time.Duration) *testApp {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            4,
		},
	}

	db := store.New(storeOpts)
	userRepo := repository.NewUserRepository(db)
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db),
		CommentRepo: repository.NewCommentRepository(db),
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})

	fallbackUserID := ""
	if guestFallback {
		fallbackUserID = db.DefaultUserID()
	}
	resolver := identity.NewResolver(authService.TokenManager(), userRepo, fallbackUserID)

	logger := zap.NewNop()
	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), timeout)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("helpdesk-test", "test", nil),
		Auth:     handlers.NewAuthHandler(authService),
		Users:    handlers.NewUsersHandler(ticketService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Identity: auth.NewMiddleware(resolver.Resolve),
	})
	return &testApp{app: app, auth: authService}
}

func (ta *testApp) do(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (ta *testApp) loginToken(t *testing.T, email string) string {
	t.Helper()
	resp := ta.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": email, "password": "anything"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data dto.AuthResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func TestRoutes_ListTickets(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodGet, "/tickets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.TicketListResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, 2, body.Meta.Total)
	require.Equal(t, 1, body.Meta.Page)
	require.Equal(t, 10, body.Meta.Limit)
	require.Len(t, body.Data, 2)
	require.NotNil(t, body.Data[0].Comments)
}

func TestRoutes_CreateTicket_GuestFallback(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodPost, "/tickets", "", fiber.Map{
		"title":       "Printer jam",
		"description": "Third floor printer again",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.TicketResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "OPEN", string(body.Data.Status))
	require.Equal(t, "MEDIUM", string(body.Data.Priority))
	require.Nil(t, body.Data.AssignedTo)
	// No credential: the request runs as the first seeded user.
	require.Equal(t, "1", body.Data.CreatedBy.ID)
}

func TestRoutes_CreateTicket_Validation(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodPost, "/tickets", "", fiber.Map{"title": "no description"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestRoutes_PatchOmittingAssigneeClearsIt(t *testing.T) {
	ta := newTestApp(t, true)

	// Seed ticket 1 starts assigned to Jane.
	resp := ta.do(t, http.MethodPatch, "/tickets/1", "", fiber.Map{"status": "RESOLVED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.TicketResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "RESOLVED", string(body.Data.Status))
	require.Nil(t, body.Data.AssignedTo)
}

func TestRoutes_GetTicket_NotFound(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodGet, "/tickets/999", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRoutes_DeleteTicket_RoleGate(t *testing.T) {
	ta := newTestApp(t, true)

	// Guest fallback resolves to the seeded admin: allowed.
	resp := ta.do(t, http.MethodDelete, "/tickets/2", "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// A plain USER token is rejected.
	bobToken := ta.loginToken(t, "bob@example.com")
	resp = ta.do(t, http.MethodDelete, "/tickets/1", bobToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoutes_NoFallbackMeans401(t *testing.T) {
	ta := newTestApp(t, false)

	resp := ta.do(t, http.MethodGet, "/tickets", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Auth endpoints stay open.
	resp = ta.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_TokenIdentityUsedForFilters(t *testing.T) {
	ta := newTestApp(t, true)
	janeToken := ta.loginToken(t, "jane@example.com")

	resp := ta.do(t, http.MethodGet, "/tickets?assignedToMe=true", janeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.TicketListResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, 1, body.Meta.Total)
	require.Equal(t, "1", body.Data[0].ID)
}

func TestRoutes_SortOrderDefaultsDescending(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodGet, "/tickets?sortBy=title", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.TicketListResponse
	decodeJSON(t, resp, &body)
	require.Equal(t, "Ticket 2", body.Data[0].Title)
	require.Equal(t, "Ticket 1", body.Data[1].Title)

	resp = ta.do(t, http.MethodGet, "/tickets?sortBy=title&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &body)
	require.Equal(t, "Ticket 1", body.Data[0].Title)
}

func TestRoutes_TimeoutReachesStore(t *testing.T) {
	// 100ms per store operation: identity resolution consumes one delay,
	// the list a second, so a 150ms deadline expires inside the store.
	ta := newTestAppWithStore(t, true, store.Options{Seed: true, Latency: 100 * time.Millisecond}, 150*time.Millisecond)

	resp := ta.do(t, http.MethodGet, "/tickets", "", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestRoutes_StatsNotShadowedByIDRoute(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodGet, "/tickets/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.StatsResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, 2, body.Data.Total)
	require.Equal(t, 1, body.Data.Open)
	require.Equal(t, 1, body.Data.InProgress)
}

func TestRoutes_CommentOnAnyID(t *testing.T) {
	ta := newTestApp(t, true)

	// Comments skip the ticket existence check on purpose.
	resp := ta.do(t, http.MethodPost, "/tickets/does-not-exist/comments", "", fiber.Map{"content": "hello?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, "/tickets/does-not-exist/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data []dto.CommentResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Data, 1)
}

func TestRoutes_RegisterThenLogin(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"name":     "Dana",
		"email":    "dana@example.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		Data dto.AuthResponse `json:"data"`
	}
	decodeJSON(t, resp, &reg)
	require.Equal(t, "USER", string(reg.Data.User.Role))

	// Login with a completely different password still succeeds.
	token := ta.loginToken(t, "dana@example.com")
	require.NotEmpty(t, token)
}

func TestRoutes_HealthLive(t *testing.T) {
	ta := newTestApp(t, true)

	resp := ta.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
