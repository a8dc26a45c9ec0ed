package internalhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockInvitationDomain struct {
	inbound.InvitationDomain
	mock.Mock
}

func (m *mockInvitationDomain) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func setupRouter(d inbound.InvitationDomain, p Publisher) *gin.Engine {
	r := gin.New()
	NewHandler(d, p, nil).RegisterRoutes(r.Group("/internal"))
	return r
}

func post(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSweepInvitations(t *testing.T) {
	t.Run("reports_cleaned", func(t *testing.T) {
		d := new(mockInvitationDomain)
		d.On("Sweep", mock.Anything).Return(int64(3), nil)

		w := post(setupRouter(d, nil), "/internal/jobs/sweep-invitations", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cleaned":3}`, w.Body.String())
	})

	t.Run("failure", func(t *testing.T) {
		d := new(mockInvitationDomain)
		d.On("Sweep", mock.Anything).Return(int64(0), errors.New("db down"))

		w := post(setupRouter(d, nil), "/internal/jobs/sweep-invitations", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTriggers(t *testing.T) {
	t.Run("invitation_created", func(t *testing.T) {
		p := new(mockPublisher)
		id := uuid.New()
		p.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(*events.InvitationCreated)
			return ok && ev.Invitation.ID == id
		})).Return(nil)

		w := post(setupRouter(nil, p), "/internal/triggers/invitations",
			gin.H{"invitation": model.Invitation{ID: id, Status: model.InvitationStatusPending}})

		assert.Equal(t, http.StatusAccepted, w.Code)
		p.AssertExpectations(t)
	})

	t.Run("request_updated", func(t *testing.T) {
		p := new(mockPublisher)
		id := uuid.New()
		before := model.Request{ID: id, Status: model.RequestStatusDraft, CurrentLevel: 1}
		after := model.Request{ID: id, Status: model.RequestStatusPendingApproval, CurrentLevel: 1}
		p.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(*events.RequestUpdated)
			return ok && ev.Before.Status == model.RequestStatusDraft && ev.After.Status == model.RequestStatusPendingApproval
		})).Return(nil)

		w := post(setupRouter(nil, p), "/internal/triggers/requests", gin.H{"before": before, "after": after})

		assert.Equal(t, http.StatusAccepted, w.Code)
		p.AssertExpectations(t)
	})

	t.Run("mismatched_ids", func(t *testing.T) {
		p := new(mockPublisher)
		w := post(setupRouter(nil, p), "/internal/triggers/requests", gin.H{
			"before": model.Request{ID: uuid.New()},
			"after":  model.Request{ID: uuid.New()},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		p.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("handler_failure_requests_redelivery", func(t *testing.T) {
		p := new(mockPublisher)
		p.On("Publish", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		w := post(setupRouter(nil, p), "/internal/triggers/invitations",
			gin.H{"invitation": model.Invitation{ID: uuid.New()}})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing_snapshot", func(t *testing.T) {
		p := new(mockPublisher)
		w := post(setupRouter(nil, p), "/internal/triggers/invitations", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
