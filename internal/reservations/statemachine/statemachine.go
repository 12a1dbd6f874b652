// Package statemachine is the single authority for reservation status
// transitions. Every surface (service methods, the completion sweep) must
// route status changes through it; nothing else writes status fields.
package statemachine

import (
	"fmt"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

// Actor carries the capability information the transition guards need.
type Actor struct {
	ID       string
	Operator bool
}

// System is the actor used by scheduled jobs.
var System = Actor{ID: "system", Operator: true}

// allowTransition is the directed graph of legal status flows.
var allowTransition = map[model.Status][]model.Status{
	model.StatusPending:  {model.StatusApproved, model.StatusCancelled, model.StatusRejected},
	model.StatusApproved: {model.StatusCompleted, model.StatusCancelled},
	// Terminal states never flow anywhere.
	model.StatusCompleted: {},
	model.StatusCancelled: {},
	model.StatusRejected:  {},
}

// CanTransition reports whether from -> to is a legal status flow,
// ignoring guards.
func CanTransition(from, to model.Status) bool {
	for _, s := range allowTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Approve moves a pending reservation to approved. Requires operator
// capability.
func Approve(r *model.Reservation, actor Actor, now time.Time) error {
	if !actor.Operator {
		return apperrors.Unauthorized("approving reservations requires operator capability")
	}
	if err := checkTransition(r, model.StatusApproved); err != nil {
		return err
	}

	r.Status = model.StatusApproved
	if r.ApprovedAt == nil {
		t := now
		r.ApprovedAt = &t
	}
	return nil
}

// Cancel terminates a pending or approved reservation. The requester may
// cancel their own reservation; operators may cancel any. An operator
// cancelling someone else's pending reservation records it as rejected.
// An approved reservation can only be cancelled before its window starts.
func Cancel(r *model.Reservation, actor Actor, now time.Time) error {
	if !actor.Operator && actor.ID != r.RequesterID {
		return apperrors.Unauthorized("only the requester or an operator may cancel a reservation")
	}

	target := model.StatusCancelled
	if r.Status == model.StatusPending && actor.Operator && actor.ID != r.RequesterID {
		target = model.StatusRejected
	}
	if err := checkTransition(r, target); err != nil {
		return err
	}

	if r.Status == model.StatusApproved && r.Window.StartedBy(now) {
		return apperrors.Conflict("cannot cancel a trip that has already started")
	}

	r.Status = target
	if r.CancelledAt == nil {
		t := now
		r.CancelledAt = &t
	}
	return nil
}

// Complete closes out an approved reservation whose window has ended. Only
// the requester, an operator, or the system sweep may complete; operators may
// force completion early, the scheduled sweep never does.
func Complete(r *model.Reservation, actor Actor, now time.Time, force bool) error {
	if !actor.Operator && actor.ID != r.RequesterID {
		return apperrors.Unauthorized("only the requester or an operator may complete a reservation")
	}
	if force && !actor.Operator {
		return apperrors.Unauthorized("forcing completion requires operator capability")
	}
	if err := checkTransition(r, model.StatusCompleted); err != nil {
		return err
	}

	if !force && !r.Window.EndedBy(now) {
		return apperrors.TooEarly("reservation window has not ended yet")
	}

	r.Status = model.StatusCompleted
	if r.CompletedAt == nil {
		t := now
		r.CompletedAt = &t
	}
	return nil
}

func checkTransition(r *model.Reservation, to model.Status) error {
	if r.Status.Terminal() {
		return apperrors.TerminalState(string(r.Status))
	}
	if !CanTransition(r.Status, to) {
		return apperrors.Conflict(fmt.Sprintf("cannot move a %s reservation to %s", r.Status, to))
	}
	return nil
}
