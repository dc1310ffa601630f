// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func penaltyStatus(t *testing.T, handler *PenaltyHandler, userID string) models.PenaltyStatusResponse {
	t.Helper()
	w := httptest.NewRecorder()
	handler.MyPenalty(w, userRequest("GET", "/me/penalty", nil, userID))
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.PenaltyStatusResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

// createPenalty puts userID under a week long cooldown.
func createPenalty(t *testing.T, db *sqlx.DB, userID string) models.UserPenalty {
	t.Helper()
	ends := time.Now().UTC().Add(7 * 24 * time.Hour)
	p := models.UserPenalty{
		ID:           auth.NewID(),
		UserID:       userID,
		PenaltyType:  models.PenaltyCooldown,
		ReasonCode:   rules.ReasonAutoThreshold,
		StartsAt:     time.Now().UTC().Add(-time.Minute),
		EndsAt:       &ends,
		Restrictions: models.NewJSON(rules.RestrictionsFor(models.PenaltyCooldown)),
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreatePenalty(context.Background(), db, &p); err != nil {
		t.Fatalf("Failed to create penalty: %v", err)
	}
	return p
}

func TestMyPenaltyClean(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, "clean")

	resp := penaltyStatus(t, NewPenaltyHandler(db, testutil.GetTestConfig()), user.ID)
	if resp.Penalty != nil {
		t.Errorf("Expected no penalty, got %+v", resp.Penalty)
	}
	if !resp.CanBuy || !resp.CanSell || resp.ActiveIssues != 0 {
		t.Errorf("Expected an unrestricted user, got %+v", resp)
	}
	if len(resp.Issues) != 0 || len(resp.History) != 0 {
		t.Errorf("Expected an empty record, got %d issues and %d penalties", len(resp.Issues), len(resp.History))
	}
}

func TestRecordIssueEscalates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewPenaltyHandler(db, testutil.GetTestConfig())
	staff := testutil.CreateTestUser(t, db, "support")
	testutil.GrantTestRole(t, db, staff.ID, models.RoleStaffSupport)
	offender := testutil.CreateTestUser(t, db, "offender")

	record := func(userID string, req models.CreateIssueRequest) *httptest.ResponseRecorder {
		r := userRequest("POST", "/admin/users/"+userID+"/issues", req, staff.ID)
		r.SetPathValue("id", userID)
		w := httptest.NewRecorder()
		handler.RecordIssue(w, r)
		return w
	}

	t.Run("validation", func(t *testing.T) {
		testutil.AssertStatus(t, record(offender.ID, models.CreateIssueRequest{Severity: 11}), http.StatusBadRequest)
		testutil.AssertStatus(t, record(offender.ID, models.CreateIssueRequest{Severity: -1}), http.StatusBadRequest)
		testutil.AssertStatus(t, record("nobody", models.CreateIssueRequest{}), http.StatusNotFound)
	})

	expected := []struct {
		penalty string
		canBuy  bool
		canSell bool
	}{
		{"", true, true},
		{"", true, true},
		{models.PenaltyWarning, true, true},
		{models.PenaltyWarning, true, true},
		{models.PenaltyCooldown, true, false},
	}

	for i, want := range expected {
		w := record(offender.ID, models.CreateIssueRequest{IssueType: "late_shipment"})
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.PenaltyStatusResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ActiveIssues != i+1 {
			t.Errorf("Issue %d: expected %d active issues, got %d", i+1, i+1, resp.ActiveIssues)
		}
		got := ""
		if resp.Penalty != nil {
			got = resp.Penalty.PenaltyType
		}
		if got != want.penalty || resp.CanBuy != want.canBuy || resp.CanSell != want.canSell {
			t.Errorf("Issue %d: expected %q (buy %v, sell %v), got %q (buy %v, sell %v)",
				i+1, want.penalty, want.canBuy, want.canSell, got, resp.CanBuy, resp.CanSell)
		}
	}

	status := penaltyStatus(t, handler, offender.ID)
	if len(status.Issues) != 5 || status.Issues[0].IssueType != "LATE_SHIPMENT" || status.Issues[0].Severity != 1 {
		t.Errorf("Expected 5 LATE_SHIPMENT issues of severity 1, got %+v", status.Issues)
	}
	var kinds []string
	for _, p := range status.History {
		kinds = append(kinds, p.PenaltyType)
	}
	if len(kinds) != 2 || !slices.Contains(kinds, models.PenaltyWarning) || !slices.Contains(kinds, models.PenaltyCooldown) {
		t.Errorf("Expected a WARNING and a COOLDOWN on record, got %v", kinds)
	}

	entries, err := store.ListAudit(context.Background(), db, "user", offender.ID)
	if err != nil {
		t.Fatalf("Failed to list audit log: %v", err)
	}
	if len(entries) != 5 || entries[0].Action != "user.issue" || entries[0].UserID == nil || *entries[0].UserID != staff.ID {
		t.Errorf("Expected 5 user.issue audit entries by %s, got %+v", staff.ID, entries)
	}
}

func TestPenaltyAppealFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewPenaltyHandler(db, testutil.GetTestConfig())
	user := testutil.CreateTestUser(t, db, "penalized")
	other := testutil.CreateTestUser(t, db, "other")
	staff := testutil.CreateTestUser(t, db, "support")
	penalty := createPenalty(t, db, user.ID)

	if resp := penaltyStatus(t, handler, user.ID); resp.CanSell || resp.Message == "" {
		t.Errorf("Expected a selling restriction with a message, got %+v", resp)
	}

	appeal := func(userID, text string) *httptest.ResponseRecorder {
		r := userRequest("POST", "/penalties/"+penalty.ID+"/appeal", models.AppealRequest{Text: text}, userID)
		r.SetPathValue("id", penalty.ID)
		w := httptest.NewRecorder()
		handler.Appeal(w, r)
		return w
	}
	decide := func(id string, approve bool) *httptest.ResponseRecorder {
		r := userRequest("POST", "/admin/penalties/"+id+"/appeal-decision", models.ApprovalDecisionRequest{Approve: approve}, staff.ID)
		r.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.DecideAppeal(w, r)
		return w
	}

	testutil.AssertStatus(t, appeal(user.ID, "   "), http.StatusBadRequest)
	testutil.AssertStatus(t, appeal(other.ID, "not mine"), http.StatusNotFound)
	testutil.AssertStatus(t, decide(penalty.ID, true), http.StatusConflict)

	w := appeal(user.ID, "The parcel was lost by the carrier.")
	testutil.AssertStatus(t, w, http.StatusOK)
	var appealed models.UserPenalty
	testutil.AssertJSON(t, w, &appealed)
	if appealed.AppealStatus == nil || *appealed.AppealStatus != models.ReviewPending {
		t.Errorf("Expected a pending appeal, got %v", appealed.AppealStatus)
	}

	testutil.AssertStatus(t, appeal(user.ID, "again"), http.StatusConflict)
	testutil.AssertStatus(t, decide("nope", true), http.StatusNotFound)

	w = decide(penalty.ID, true)
	testutil.AssertStatus(t, w, http.StatusOK)
	var decided models.UserPenalty
	testutil.AssertJSON(t, w, &decided)
	if decided.AppealStatus == nil || *decided.AppealStatus != models.ReviewApproved {
		t.Errorf("Expected an approved appeal, got %v", decided.AppealStatus)
	}

	testutil.AssertStatus(t, decide(penalty.ID, false), http.StatusConflict)

	// An approved appeal lifts the penalty.
	if resp := penaltyStatus(t, handler, user.ID); resp.Penalty != nil || !resp.CanSell {
		t.Errorf("Expected the penalty lifted, got %+v", resp)
	}

	entries, err := store.ListAudit(context.Background(), db, "user_penalty", penalty.ID)
	if err != nil {
		t.Fatalf("Failed to list audit log: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "penalty.appeal_decision" {
		t.Errorf("Expected one appeal decision audit entry, got %+v", entries)
	}
}
