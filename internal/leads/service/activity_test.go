package service

import (
	"context"
	"testing"
	"time"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/platform/apperr"
)

func TestUpdateStatusRecordsTransition(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"))
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	updated, err := svc.UpdateStatus(context.Background(), lead.ID, domain.StatusContacted, 10, "spoke briefly")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Fatalf("status %s, want CONTACTED", updated.Status)
	}

	changes := repo.activitiesOfType(domain.ActivityStatusChange)
	if len(changes) != 1 {
		t.Fatalf("got %d STATUS_CHANGE activities, want 1", len(changes))
	}
	want := "Status changed from NEW to CONTACTED. Notes: spoke briefly"
	if changes[0].Description != want {
		t.Fatalf("description %q, want %q", changes[0].Description, want)
	}
	if changes[0].OldStatus == nil || *changes[0].OldStatus != "NEW" ||
		changes[0].NewStatus == nil || *changes[0].NewStatus != "CONTACTED" {
		t.Fatalf("status fields %v -> %v", changes[0].OldStatus, changes[0].NewStatus)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"))
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	_, err := svc.UpdateStatus(context.Background(), lead.ID, domain.Status("ARCHIVED"), 10, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestAddActivityRejectsUnknownType(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"))
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	if err := svc.AddActivity(context.Background(), lead.ID, 10, "FAX", "sent a fax"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if err := svc.AddActivity(context.Background(), lead.ID, 10, domain.ActivityCall, "called"); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}

	activities, err := svc.Activities(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Type != domain.ActivityCall {
		t.Fatalf("unexpected timeline %+v", activities)
	}
}

func TestFollowUpLifecycle(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), franchiseCaller(2, "Rohan"))
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	due := fixedNow.Add(48 * time.Hour)
	followUp, err := svc.ScheduleFollowUp(context.Background(), lead.ID, 1, due, "call after lunch")
	if err != nil {
		t.Fatalf("ScheduleFollowUp: %v", err)
	}
	if followUp.LeadID != lead.ID || followUp.AssignedToID != 1 || !followUp.ScheduledDate.Equal(due) {
		t.Fatalf("unexpected follow-up %+v", followUp)
	}

	// The other caller has nothing pending.
	other, err := svc.PendingFollowUps(context.Background(), int64Ptr(2))
	if err != nil {
		t.Fatalf("PendingFollowUps: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("caller 2 sees %d follow-ups, want 0", len(other))
	}

	pending, err := svc.PendingFollowUps(context.Background(), int64Ptr(1))
	if err != nil {
		t.Fatalf("PendingFollowUps: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("caller 1 sees %d follow-ups, want 1", len(pending))
	}

	done, err := svc.CompleteFollowUp(context.Background(), followUp.ID)
	if err != nil {
		t.Fatalf("CompleteFollowUp: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(fixedNow) {
		t.Fatalf("follow-up not completed: %+v", done)
	}

	pending, err = svc.PendingFollowUps(context.Background(), nil)
	if err != nil {
		t.Fatalf("PendingFollowUps: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("completed follow-up still pending")
	}
}

func TestScheduleFollowUpUnknownAssignee(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"))
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	_, err := svc.ScheduleFollowUp(context.Background(), lead.ID, 99, fixedNow, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}
