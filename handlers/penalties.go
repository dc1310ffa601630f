// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

const maxIssueSeverity = 10

type PenaltyHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewPenaltyHandler(db *sqlx.DB, cfg cliparse.Config) *PenaltyHandler {
	return &PenaltyHandler{db: db, cfg: cfg}
}

// MyPenalty handles GET /me/penalty
func (h *PenaltyHandler) MyPenalty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	t := now()

	p, err := rules.CurrentPenalty(ctx, h.db, userID, t)
	if err != nil {
		dbError(w, "failed to load penalty", err, "user_id", userID)
		return
	}
	cfg, err := rules.LoadPenaltyConfig(ctx, h.db, t)
	if err != nil {
		dbError(w, "failed to load penalty config", err)
		return
	}
	count, err := rules.CountActiveIssues(ctx, h.db, cfg, userID, t)
	if err != nil {
		dbError(w, "failed to count issues", err, "user_id", userID)
		return
	}
	issues, err := store.ListUserIssues(ctx, h.db, userID)
	if err != nil {
		dbError(w, "failed to list issues", err, "user_id", userID)
		return
	}
	history, err := store.ListUserPenalties(ctx, h.db, userID)
	if err != nil {
		dbError(w, "failed to list penalties", err, "user_id", userID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PenaltyStatusResponse{
		Penalty:      p,
		ActiveIssues: count,
		CanBuy:       rules.CanBuy(p),
		CanSell:      rules.CanSell(p),
		Message:      rules.RestrictionMessage(p, t),
		Issues:       issues,
		History:      history,
	})
}

// Appeal handles POST /penalties/{id}/appeal
func (h *PenaltyHandler) Appeal(w http.ResponseWriter, r *http.Request) {
	var req models.AppealRequest
	if !decode(w, r, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	err := rules.SubmitAppeal(ctx, h.db, id, middleware.UserID(ctx), req.Text)
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Penalty not found.")
		return
	case errors.Is(err, rules.ErrAppealClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Penalty has already been appealed.")
		return
	case err != nil:
		dbError(w, "failed to submit appeal", err, "penalty_id", id)
		return
	}

	p, err := store.GetPenalty(ctx, h.db, id)
	if err != nil {
		dbError(w, "failed to reload penalty", err, "penalty_id", id)
		return
	}
	slog.Info("penalty appealed", "penalty_id", id, "user_id", p.UserID)
	middleware.JSONResponse(w, http.StatusOK, p)
}

// DecideAppeal handles POST /admin/penalties/{id}/appeal-decision
func (h *PenaltyHandler) DecideAppeal(w http.ResponseWriter, r *http.Request) {
	var req models.ApprovalDecisionRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	var p *models.UserPenalty
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		before, err := store.GetPenalty(ctx, tx, id)
		if err != nil {
			return notFound(err, "Penalty not found.")
		}
		if before.AppealStatus == nil || *before.AppealStatus != models.ReviewPending {
			return fail(http.StatusConflict, "Penalty has no pending appeal.")
		}
		if p, err = rules.DecideAppeal(ctx, tx, id, req.Approve, middleware.UserID(ctx), now()); err != nil {
			return err
		}
		return audit(ctx, tx, r, h.cfg, "penalty.appeal_decision", "user_penalty", id,
			models.JSONMap{"appeal_status": models.ReviewPending, "ends_at": before.EndsAt},
			models.JSONMap{"appeal_status": p.AppealStatus, "ends_at": p.EndsAt},
			req.Notes)
	})
	if err != nil {
		writeError(w, "failed to decide appeal", err, "penalty_id", id)
		return
	}

	slog.Info("penalty appeal decided", "penalty_id", id, "approved", req.Approve)
	middleware.JSONResponse(w, http.StatusOK, p)
}

// RecordIssue handles POST /admin/users/{id}/issues
func (h *PenaltyHandler) RecordIssue(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIssueRequest
	if !decode(w, r, &req) {
		return
	}
	req.IssueType = strings.ToUpper(strings.TrimSpace(req.IssueType))
	if req.IssueType == "" {
		req.IssueType = models.IssueManual
	}
	if req.Severity == 0 {
		req.Severity = 1
	}
	if req.Severity < 1 || req.Severity > maxIssueSeverity {
		middleware.ErrorResponse(w, http.StatusBadRequest, "severity must be between 1 and 10")
		return
	}

	ctx := r.Context()
	userID := r.PathValue("id")
	t := now()
	var (
		p     *models.UserPenalty
		count int
	)
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if _, err := store.GetUser(ctx, tx, userID); err != nil {
			return notFound(err, "User not found.")
		}
		_, err := rules.RecordIssue(ctx, tx, rules.Issue{
			UserID:         userID,
			Type:           req.IssueType,
			Severity:       req.Severity,
			RelatedOrderID: req.RelatedOrderID,
			Description:    req.Description,
		}, t)
		if err != nil {
			return err
		}
		if p, err = rules.CurrentPenalty(ctx, tx, userID, t); err != nil {
			return err
		}
		cfg, err := rules.LoadPenaltyConfig(ctx, tx, t)
		if err != nil {
			return err
		}
		if count, err = rules.CountActiveIssues(ctx, tx, cfg, userID, t); err != nil {
			return err
		}
		return audit(ctx, tx, r, h.cfg, "user.issue", "user", userID, nil,
			models.JSONMap{"issue_type": req.IssueType, "severity": req.Severity}, req.Description)
	})
	if err != nil {
		writeError(w, "failed to record issue", err, "user_id", userID)
		return
	}

	slog.Info("issue recorded", "user_id", userID, "issue_type", req.IssueType, "severity", req.Severity)
	middleware.JSONResponse(w, http.StatusCreated, models.PenaltyStatusResponse{
		Penalty:      p,
		ActiveIssues: count,
		CanBuy:       rules.CanBuy(p),
		CanSell:      rules.CanSell(p),
		Message:      rules.RestrictionMessage(p, t),
	})
}
