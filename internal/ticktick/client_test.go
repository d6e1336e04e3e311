package ticktick

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitcast/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("token-123", WithBaseURL(srv.URL), WithCookie("t=abc"))
}

func TestQueryCheckins(t *testing.T) {
	var gotBody queryRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/habitCheckins/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Cookie"); got != "t=abc" {
			t.Errorf("Cookie = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"checkins":{
			"h1":[{"checkinStamp":20250923,"value":3,"goal":5},{"checkinStamp":"20250922","value":1}],
			"h2":null,
			"h3":[]
		}}`))
	})

	got, err := client.QueryCheckins(context.Background(), []string{"h1", "h2", "h3"}, 20250920)
	if err != nil {
		t.Fatalf("QueryCheckins() error = %v", err)
	}

	if gotBody.AfterStamp != 20250920 || len(gotBody.HabitIDs) != 3 {
		t.Errorf("request body = %+v", gotBody)
	}
	if len(got) != 3 {
		t.Fatalf("got %d habits, want 3", len(got))
	}
	if len(got["h1"]) != 2 {
		t.Fatalf("h1 entries = %d, want 2", len(got["h1"]))
	}
	first := got["h1"][0]
	if first.Stamp != 20250923 || first.Value == nil || *first.Value != 3 || first.HabitID != "h1" {
		t.Errorf("h1[0] = %+v", first)
	}
	if got["h1"][1].Stamp != 20250922 {
		t.Errorf("h1[1] stamp = %v, want 20250922", got["h1"][1].Stamp)
	}
	if got["h2"] == nil || len(got["h2"]) != 0 {
		t.Errorf("h2 = %v, want empty list", got["h2"])
	}
}

func TestQueryCheckinsMissingField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.QueryCheckins(context.Background(), []string{"h1"}, 1)
	var verr *apperrors.ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != "checkins" {
		t.Errorf("Field = %q, want checkins", verr.Field)
	}
}

func TestQueryCheckinsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.QueryCheckins(context.Background(), []string{"h1"}, 1)
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || !apiErr.ServerError() {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Body != "upstream down" {
		t.Errorf("Body = %q", apiErr.Body)
	}

	var verr *apperrors.ValidationError
	if stderrors.As(err, &verr) {
		t.Error("transport failure reported as validation error")
	}
}

func TestListHabits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/habits" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id":"h1","name":"Read","goal":30},{"id":"h2","name":"Walk","step":1000}]`))
	})

	habits, err := client.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("ListHabits() error = %v", err)
	}
	if len(habits) != 2 || habits[0].Name != "Read" || *habits[1].TargetGoal() != 1000 {
		t.Errorf("habits = %+v", habits)
	}
}

func TestListHabitsUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListHabits(context.Background())
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 APIError", err)
	}
	if apiErr.ServerError() {
		t.Error("401 reported as server error")
	}
}

func TestFetchCheckin(t *testing.T) {
	day := time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC)

	t.Run("matching date", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/habits/h1/checkins" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if r.URL.Query().Get("from") != "2025-09-23" || r.URL.Query().Get("to") != "2025-09-23" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"checkins":[{"date":"2025-09-22","status":1},{"date":"2025-09-23","status":2,"value":4}]}`))
		})

		got, err := client.FetchCheckin(context.Background(), "h1", day)
		if err != nil {
			t.Fatalf("FetchCheckin() error = %v", err)
		}
		if got == nil || got.Status == nil || *got.Status != 2 || got.HabitID != "h1" {
			t.Errorf("FetchCheckin() = %+v", got)
		}
	})

	t.Run("falls back to data and first entry", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{"date":"2025-09-20","status":3}]}`))
		})

		got, err := client.FetchCheckin(context.Background(), "h1", day)
		if err != nil {
			t.Fatalf("FetchCheckin() error = %v", err)
		}
		if got == nil || *got.Status != 3 {
			t.Errorf("FetchCheckin() = %+v, want first entry", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		got, err := client.FetchCheckin(context.Background(), "missing", day)
		if err != nil || got != nil {
			t.Errorf("FetchCheckin() = %+v, %v; want nil, nil", got, err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		got, err := client.FetchCheckin(context.Background(), "h1", day)
		if err != nil || got != nil {
			t.Errorf("FetchCheckin() = %+v, %v; want nil, nil", got, err)
		}
	})
}
