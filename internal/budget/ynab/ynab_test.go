package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wattbudget/internal/budget"
	"wattbudget/internal/core"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, AccessToken: "tok", BudgetID: "budget-1"})
}

func TestCurrentTarget_MilliunitConversion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/budgets/budget-1/categories/cat-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"data":{"category":{"goal_target":177540}}}`))
	}))
	defer srv.Close()

	amount, known, err := newTestClient(srv.URL).CurrentTarget(context.Background(), "cat-1")
	if err != nil {
		t.Fatalf("CurrentTarget: %v", err)
	}
	if !known {
		t.Fatal("expected known target")
	}
	if amount.Cents != 17754 {
		t.Errorf("expected 17754 cents, got %d", amount.Cents)
	}
}

func TestCurrentTarget_NoGoalConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"category":{"goal_target":null}}}`))
	}))
	defer srv.Close()

	_, known, err := newTestClient(srv.URL).CurrentTarget(context.Background(), "cat-1")
	if err != nil {
		t.Fatalf("CurrentTarget: %v", err)
	}
	if known {
		t.Error("expected unknown target when goal_target is null")
	}
}

func TestSetTarget_PatchBody(t *testing.T) {
	var got patchCategoryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"data":{"category":{"goal_target":177540}}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SetTarget(context.Background(), "cat-1",
		core.Money{Cents: 17754}, "Updated to $177.54")
	if err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if got.Category.GoalTarget == nil || *got.Category.GoalTarget != 177540 {
		t.Errorf("expected goal_target 177540 milliunits, got %v", got.Category.GoalTarget)
	}
	if got.Category.Note == nil || *got.Category.Note != "Updated to $177.54" {
		t.Errorf("unexpected note %v", got.Category.Note)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		class  budget.ErrorClass
	}{
		{http.StatusUnauthorized, budget.ClassAuthentication},
		{http.StatusNotFound, budget.ClassNotFound},
		{http.StatusTooManyRequests, budget.ClassRateLimited},
		{http.StatusServiceUnavailable, budget.ClassTransientNetwork},
		{http.StatusConflict, budget.ClassUnexpectedResponse},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, _, err := newTestClient(srv.URL).CurrentTarget(context.Background(), "cat-1")
		srv.Close()

		var se *budget.SystemError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: expected SystemError, got %v", tc.status, err)
		}
		if se.Class != tc.class {
			t.Errorf("status %d: expected class %s, got %s", tc.status, tc.class, se.Class)
		}
	}
	if !budget.IsNotFound(budget.NewError(budget.ClassNotFound, "x", nil)) {
		t.Error("IsNotFound should match not-found class")
	}
}
