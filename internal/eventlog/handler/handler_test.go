package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"cardauth/internal/eventlog"
	"cardauth/internal/eventlog/store/memory"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/requestcontext"
	"cardauth/pkg/testutil"
)

// HandlerSuite exercises the event log endpoints against the in-memory ring.
type HandlerSuite struct {
	suite.Suite
	store  *memory.Store
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = memory.New(3)
	h := New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) seed(ids ...string) {
	for _, id := range ids {
		s.Require().NoError(s.store.Append(context.Background(), eventlog.Event{ID: id, Type: "issuing_authorization.created"}))
	}
}

func (s *HandlerSuite) TestList() {
	s.seed("evt_1", "evt_2")

	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/webhooks/events"))
	s.Equal(http.StatusOK, rec.Code)

	var resp ListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(2, resp.Count)
	s.Require().Len(resp.Events, 2)
	s.Equal("evt_2", resp.Events[0].ID)
}

func (s *HandlerSuite) TestList_EmptyIsArray() {
	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/webhooks/events"))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"events":[]`)
}

func (s *HandlerSuite) TestList_Limit() {
	s.seed("evt_1", "evt_2", "evt_3")

	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/webhooks/events?limit=1"))
	var resp ListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Events, 1)
	s.Equal(3, resp.Count)

	rec = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/webhooks/events?limit=abc"))
	desc := testutil.AssertError(s.T(), rec, http.StatusBadRequest, dErrors.CodeBadRequest)
	s.Contains(desc, "limit")
}

func (s *HandlerSuite) TestAppend() {
	s.Run("stores the event", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/events", map[string]any{
			"id":   "evt_manual",
			"type": "issuing_card.created",
			"data": map[string]any{"id": "ic_1"},
		})
		fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		req = req.WithContext(requestcontext.WithTime(req.Context(), fixed))

		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rec.Code)

		events, err := s.store.List(context.Background(), 1)
		s.Require().NoError(err)
		s.Equal("evt_manual", events[0].ID)
		s.Equal(eventlog.SourceManual, events[0].Source)
		s.Equal(fixed.Unix(), events[0].Created)
		s.JSONEq(`{"id":"ic_1"}`, string(events[0].Data))
	})

	s.Run("rejects a missing type", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/events", map[string]any{"id": "evt_x"})
		rec := testutil.DoRequest(s.router, req)
		testutil.AssertError(s.T(), rec, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})

	s.Run("rejects malformed json", func() {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/events", bytes.NewBufferString("{"))
		rec := testutil.DoRequest(s.router, req)
		s.Equal("invalid JSON body", testutil.AssertError(s.T(), rec, http.StatusBadRequest, dErrors.CodeBadRequest))
	})
}

func (s *HandlerSuite) TestClear() {
	s.seed("evt_1", "evt_2")

	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/webhooks/events"))
	s.Equal(http.StatusOK, rec.Code)

	var resp CountResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("All 2 events cleared", resp.Message)
	s.Zero(resp.Count)
}

func (s *HandlerSuite) TestMock() {
	for _, eventType := range []string{"", "issuing_authorization.updated", "account.updated", "something.else"} {
		s.Run("type "+eventType, func() {
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/test", map[string]any{"eventType": eventType})
			rec := testutil.DoRequest(s.router, req)
			s.Equal(http.StatusOK, rec.Code)

			var resp MockResponse
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			want := eventType
			if want == "" {
				want = defaultMockEventType
			}
			s.Equal(want, resp.Event.Type)
			s.Equal(eventlog.SourceMock, resp.Event.Source)
			s.Equal(mockAccount, resp.Event.Account)
			s.Contains(resp.Event.ID, "evt_test_")
			s.NotEmpty(resp.Event.Data)
		})
	}
}
