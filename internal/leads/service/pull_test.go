package service

import (
	"context"
	"strings"
	"testing"

	"travelcrm_backend/internal/events"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
)

func TestPullByIDsMovesLead(t *testing.T) {
	svc, repo, bus := newTestService(
		franchiseCaller(1, "Asha"),
		supervisor(5, "Meera"),
	)
	lead := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	result, err := svc.PullByIDs(context.Background(), []int64{lead.ID}, 5, "stale number")
	if err != nil {
		t.Fatalf("PullByIDs: %v", err)
	}
	if len(result.Pulled) != 1 || len(result.Failed) != 0 {
		t.Fatalf("pulled %d failed %d, want 1 and 0", len(result.Pulled), len(result.Failed))
	}

	// The source row is gone, not copied.
	if _, err := repo.GetLead(context.Background(), lead.ID); err != repository.ErrNotFound {
		t.Fatalf("source lead still present, err=%v", err)
	}

	pulled := result.Pulled[0]
	if pulled.OriginalLeadID != lead.ID || pulled.Phone != lead.Phone || pulled.Name != lead.Name {
		t.Fatalf("snapshot mismatch: %+v", pulled)
	}
	if pulled.OriginalCategory != domain.CategoryFranchise || pulled.OriginalStatus != domain.StatusNew {
		t.Fatalf("snapshot category/status mismatch: %+v", pulled)
	}
	if pulled.PulledByID != 5 || pulled.PulledFromID != 1 {
		t.Fatalf("pulled by %d from %d, want 5 and 1", pulled.PulledByID, pulled.PulledFromID)
	}
	if pulled.PullReason != "stale number" {
		t.Fatalf("pull reason %q", pulled.PullReason)
	}
	if pulled.FilterCriteria.Method != "by_ids" || !pulled.FilterCriteria.DeletedFromSource {
		t.Fatalf("filter criteria %+v", pulled.FilterCriteria)
	}

	if !containsLog(pulled.Notes, "--- PULL LOG ---") {
		t.Fatalf("notes missing pull log: %v", pulled.Notes)
	}
	if !containsLog(pulled.Notes, "Pulled by: Meera Lead") ||
		!containsLog(pulled.Notes, "Reason: stale number") {
		t.Fatalf("pull log incomplete: %q", *pulled.Notes)
	}

	if len(result.Deleted) != 1 || result.Deleted[0].ID != lead.ID {
		t.Fatalf("deleted summary %+v", result.Deleted)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	event, ok := bus.published[0].(events.LeadsPulled)
	if !ok || event.Method != "by_ids" || event.PulledBy != 5 {
		t.Fatalf("unexpected event: %+v", bus.published[0])
	}
}

func TestPullByIDsFailureReasons(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	assigned := seedLead(repo, "Assigned", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	unassigned := seedLead(repo, "Orphan", "9876543211", domain.CategoryFranchise, nil)

	// First pull takes the assigned lead into quarantine.
	if _, err := svc.PullByIDs(context.Background(), []int64{assigned.ID}, 5, "first"); err != nil {
		t.Fatalf("first pull: %v", err)
	}
	// Same phone, same source caller, still un-exported.
	again := seedLead(repo, "Assigned Again", "9876543210", domain.CategoryFranchise, int64Ptr(1))

	result, err := svc.PullByIDs(context.Background(),
		[]int64{9999, unassigned.ID, again.ID}, 5, "second")
	if err != nil {
		t.Fatalf("PullByIDs: %v", err)
	}
	if len(result.Pulled) != 0 || len(result.Failed) != 3 {
		t.Fatalf("pulled %d failed %d, want 0 and 3", len(result.Pulled), len(result.Failed))
	}

	wantReasons := map[int64]string{
		9999:          "Lead not found",
		unassigned.ID: "Lead is not assigned",
		again.ID:      "Lead already pulled and not exported",
	}
	for _, failure := range result.Failed {
		if failure.Reason != wantReasons[failure.LeadID] {
			t.Fatalf("lead %d reason %q, want %q", failure.LeadID, failure.Reason, wantReasons[failure.LeadID])
		}
	}

	// The failed leads stay in the active table.
	if _, err := repo.GetLead(context.Background(), again.ID); err != nil {
		t.Fatalf("failed lead removed from active table: %v", err)
	}
}

func TestPullByIDsBounds(t *testing.T) {
	svc, _, _ := newTestService(supervisor(5, "Meera"))

	if _, err := svc.PullByIDs(context.Background(), nil, 5, "r"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty list: got %v, want validation error", err)
	}

	tooMany := make([]int64, maxPullIDs+1)
	for i := range tooMany {
		tooMany[i] = int64(i + 1)
	}
	if _, err := svc.PullByIDs(context.Background(), tooMany, 5, "r"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("oversized list: got %v, want validation error", err)
	}
}

func TestPullAfterExportAllowsRepull(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	first := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	pullResult, err := svc.PullByIDs(context.Background(), []int64{first.ID}, 5, "first")
	if err != nil {
		t.Fatalf("first pull: %v", err)
	}

	// Export releases the (phone, source) uniqueness hold.
	if _, err := svc.ExportQuarantine(context.Background(),
		[]int64{pullResult.Pulled[0].ID}, repository.QuarantineFilter{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	second := seedLead(repo, "Traveler Again", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	result, err := svc.PullByIDs(context.Background(), []int64{second.ID}, 5, "second")
	if err != nil {
		t.Fatalf("second pull: %v", err)
	}
	if len(result.Pulled) != 1 || len(result.Failed) != 0 {
		t.Fatalf("re-pull after export failed: %+v", result.Failed)
	}
}

func TestPullByFilter(t *testing.T) {
	svc, repo, _ := newTestService(
		franchiseCaller(1, "Asha"),
		franchiseCaller(2, "Rohan"),
		supervisor(5, "Meera"),
	)

	keep := seedLead(repo, "Keep", "9876543210", domain.CategoryFranchise, int64Ptr(2))
	target := seedLead(repo, "Take", "9876543211", domain.CategoryFranchise, int64Ptr(1))

	callerID := int64(1)
	result, err := svc.PullByFilter(context.Background(),
		repository.PullFilter{CallerID: &callerID}, 5, "cleanup")
	if err != nil {
		t.Fatalf("PullByFilter: %v", err)
	}
	if len(result.Pulled) != 1 {
		t.Fatalf("pulled %d, want 1", len(result.Pulled))
	}

	pulled := result.Pulled[0]
	if pulled.OriginalLeadID != target.ID {
		t.Fatalf("pulled lead %d, want %d", pulled.OriginalLeadID, target.ID)
	}
	if pulled.FilterCriteria.Method != "by_filters" || pulled.FilterCriteria.Filter == nil {
		t.Fatalf("filter criteria %+v", pulled.FilterCriteria)
	}
	if !containsLog(pulled.Notes, "Pulled using filters") {
		t.Fatalf("notes missing filter pull log: %v", pulled.Notes)
	}

	// The other caller's lead stays put.
	if _, err := repo.GetLead(context.Background(), keep.ID); err != nil {
		t.Fatalf("untargeted lead removed: %v", err)
	}
}

func TestPullByFilterHonorsLimit(t *testing.T) {
	svc, repo, _ := newTestService(packageCaller(3, "Divya"), supervisor(5, "Meera"))

	seedLead(repo, "One", "9876543210", domain.CategoryPackage, int64Ptr(3))
	seedLead(repo, "Two", "9876543211", domain.CategoryPackage, int64Ptr(3))
	seedLead(repo, "Three", "9876543212", domain.CategoryPackage, int64Ptr(3))

	category := domain.CategoryPackage
	result, err := svc.PullByFilter(context.Background(),
		repository.PullFilter{Category: &category, Limit: 1}, 5, "trim")
	if err != nil {
		t.Fatalf("PullByFilter: %v", err)
	}
	if len(result.Pulled) != 1 || len(result.Failed) != 0 {
		t.Fatalf("pulled %d failed %d, want 1 and 0", len(result.Pulled), len(result.Failed))
	}
	if len(repo.leads) != 2 || len(repo.pulled) != 1 {
		t.Fatalf("active %d quarantined %d, want 2 and 1", len(repo.leads), len(repo.pulled))
	}
}

func TestPullByFilterReportsUnassigned(t *testing.T) {
	svc, repo, _ := newTestService(supervisor(5, "Meera"))
	orphan := seedLead(repo, "Orphan", "9876543210", domain.CategoryFranchise, nil)

	category := domain.CategoryFranchise
	result, err := svc.PullByFilter(context.Background(),
		repository.PullFilter{Category: &category}, 5, "cleanup")
	if err != nil {
		t.Fatalf("PullByFilter: %v", err)
	}
	if len(result.Pulled) != 0 || len(result.Failed) != 1 {
		t.Fatalf("pulled %d failed %d, want 0 and 1", len(result.Pulled), len(result.Failed))
	}
	if result.Failed[0].LeadID != orphan.ID || result.Failed[0].Reason != "Lead is not assigned" {
		t.Fatalf("unexpected failure %+v", result.Failed[0])
	}
}

func TestPullByFilterSkipsQuarantinedSilently(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	first := seedLead(repo, "Traveler", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	if _, err := svc.PullByIDs(context.Background(), []int64{first.ID}, 5, "first"); err != nil {
		t.Fatalf("seed pull: %v", err)
	}
	seedLead(repo, "Traveler Again", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	fresh := seedLead(repo, "Fresh", "9876543211", domain.CategoryFranchise, int64Ptr(1))

	callerID := int64(1)
	result, err := svc.PullByFilter(context.Background(),
		repository.PullFilter{CallerID: &callerID}, 5, "cleanup")
	if err != nil {
		t.Fatalf("PullByFilter: %v", err)
	}

	// The quarantined duplicate is skipped without a failure entry.
	if len(result.Failed) != 0 {
		t.Fatalf("failed %+v, want none", result.Failed)
	}
	if len(result.Pulled) != 1 || result.Pulled[0].OriginalLeadID != fresh.ID {
		t.Fatalf("pulled %+v, want only lead %d", result.Pulled, fresh.ID)
	}
}

func TestPullByFilterRequiresCriteria(t *testing.T) {
	svc, _, _ := newTestService(supervisor(5, "Meera"))

	_, err := svc.PullByFilter(context.Background(), repository.PullFilter{Limit: 50}, 5, "r")
	if !apperr.Is(err, apperr.KindPolicy) {
		t.Fatalf("got %v, want policy error", err)
	}
}

func TestPreviewPullDoesNotMutate(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	pullable := seedLead(repo, "Pullable", "9876543210", domain.CategoryFranchise, int64Ptr(1))
	orphan := seedLead(repo, "Orphan", "9876543211", domain.CategoryFranchise, nil)

	quarantined := seedLead(repo, "Quarantined", "9876543212", domain.CategoryFranchise, int64Ptr(1))
	if _, err := svc.PullByIDs(context.Background(), []int64{quarantined.ID}, 5, "r"); err != nil {
		t.Fatalf("seed pull: %v", err)
	}
	duplicate := seedLead(repo, "Duplicate", "9876543212", domain.CategoryFranchise, int64Ptr(1))

	category := domain.CategoryFranchise
	candidates, err := svc.PreviewPull(context.Background(), repository.PullFilter{Category: &category})
	if err != nil {
		t.Fatalf("PreviewPull: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}

	byID := make(map[int64]PullCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.Lead.ID] = c
	}
	if c := byID[pullable.ID]; !c.CanBePulled || c.AlreadyPulled {
		t.Fatalf("pullable annotated %+v", c)
	}
	if c := byID[orphan.ID]; c.CanBePulled {
		t.Fatalf("unassigned lead marked pullable: %+v", c)
	}
	if c := byID[duplicate.ID]; !c.AlreadyPulled || c.CanBePulled {
		t.Fatalf("duplicate annotated %+v", c)
	}

	// Nothing moved.
	if len(repo.leads) != 3 {
		t.Fatalf("active table has %d rows after preview, want 3", len(repo.leads))
	}
	if len(repo.pulled) != 1 {
		t.Fatalf("quarantine has %d rows after preview, want 1", len(repo.pulled))
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		limit, def, max, want int
	}{
		{0, 300, 1000, 300},
		{-5, 300, 1000, 300},
		{50, 300, 1000, 50},
		{5000, 300, 1000, 1000},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.limit, tc.def, tc.max); got != tc.want {
			t.Fatalf("clampLimit(%d, %d, %d) = %d, want %d", tc.limit, tc.def, tc.max, got, tc.want)
		}
	}
}

func TestAppendPullLog(t *testing.T) {
	existing := "customer prefers evening calls"
	got := appendPullLog(&existing, "entry")
	if !strings.HasPrefix(got, existing) || !strings.Contains(got, "--- PULL LOG ---") {
		t.Fatalf("appendPullLog lost existing notes: %q", got)
	}

	if got := appendPullLog(nil, "entry"); !strings.Contains(got, "--- PULL LOG ---\nentry") {
		t.Fatalf("appendPullLog without notes: %q", got)
	}
}
