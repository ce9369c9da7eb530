package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
	"travelcrm_backend/platform/excel"
	"travelcrm_backend/platform/phone"
)

// seedPulled moves a fresh lead into quarantine and returns the snapshot.
func seedPulled(t *testing.T, svc *Service, repo *fakeRepo, name, mobile string, pulledByID int64) repository.PulledLead {
	t.Helper()
	lead := seedLead(repo, name, mobile, domain.CategoryFranchise, int64Ptr(1))
	result, err := svc.PullByIDs(context.Background(), []int64{lead.ID}, pulledByID, "test pull")
	if err != nil {
		t.Fatalf("seed pull: %v", err)
	}
	if len(result.Pulled) != 1 {
		t.Fatalf("seed pull failed: %+v", result.Failed)
	}
	return result.Pulled[0]
}

func TestExportQuarantineMarksExported(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	first := seedPulled(t, svc, repo, "One", "9876543210", 5)
	second := seedPulled(t, svc, repo, "Two", "9876543211", 5)

	result, err := svc.ExportQuarantine(context.Background(),
		[]int64{first.ID, second.ID}, repository.QuarantineFilter{})
	if err != nil {
		t.Fatalf("ExportQuarantine: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count %d, want 2", result.Count)
	}
	if len(result.Data) == 0 {
		t.Fatalf("empty workbook")
	}

	for _, id := range []int64{first.ID, second.ID} {
		row, err := repo.GetPulledLead(context.Background(), id)
		if err != nil {
			t.Fatalf("GetPulledLead(%d): %v", id, err)
		}
		if !row.Exported || row.ExportedAt == nil || !row.ExportedAt.Equal(fixedNow) {
			t.Fatalf("row %d not marked exported: %+v", id, row)
		}
	}
}

func TestExportQuarantineWritesE164Phones(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))
	pulled := seedPulled(t, svc, repo, "One", "9876543210", 5)

	result, err := svc.ExportQuarantine(context.Background(),
		[]int64{pulled.ID}, repository.QuarantineFilter{})
	if err != nil {
		t.Fatalf("ExportQuarantine: %v", err)
	}

	rows, err := excel.ParseLeadRows(bytes.NewReader(result.Data), nil)
	if err != nil {
		t.Fatalf("reading export back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Phone != "+919876543210" {
		t.Fatalf("exported phone %q, want E.164 +919876543210", rows[0].Phone)
	}

	// A re-upload of the export normalizes back to the stored form.
	mobile, err := phone.NormalizeMobile(rows[0].Phone)
	if err != nil || mobile != "9876543210" {
		t.Fatalf("export phone does not round-trip: %q, %v", mobile, err)
	}
}

func TestExportQuarantineNoMatch(t *testing.T) {
	svc, _, _ := newTestService(supervisor(5, "Meera"))

	_, err := svc.ExportQuarantine(context.Background(), []int64{42}, repository.QuarantineFilter{})
	if !apperr.Is(err, apperr.KindNoData) {
		t.Fatalf("got %v, want no-data error", err)
	}
	if err.Error() != "No lead found to export" {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}

func TestReExportRefreshesTimestamp(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))
	pulled := seedPulled(t, svc, repo, "One", "9876543210", 5)

	if _, err := svc.ExportQuarantine(context.Background(), []int64{pulled.ID}, repository.QuarantineFilter{}); err != nil {
		t.Fatalf("first export: %v", err)
	}

	later := fixedNow.Add(time.Hour)
	svc.now = func() time.Time { return later }
	if _, err := svc.ExportQuarantine(context.Background(), []int64{pulled.ID}, repository.QuarantineFilter{}); err != nil {
		t.Fatalf("second export: %v", err)
	}

	row, err := repo.GetPulledLead(context.Background(), pulled.ID)
	if err != nil {
		t.Fatalf("GetPulledLead: %v", err)
	}
	if row.ExportedAt == nil || !row.ExportedAt.Equal(later) {
		t.Fatalf("exported at %v, want refreshed to %v", row.ExportedAt, later)
	}
}

func TestPrepareUploadExportedOnly(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))

	exported := seedPulled(t, svc, repo, "Exported", "9876543210", 5)
	fresh := seedPulled(t, svc, repo, "Fresh", "9876543211", 5)

	if _, err := svc.ExportQuarantine(context.Background(), []int64{exported.ID}, repository.QuarantineFilter{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	rows, err := svc.PrepareUpload(context.Background(), []int64{exported.ID, fresh.ID})
	if err != nil {
		t.Fatalf("PrepareUpload: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want only the exported one", len(rows))
	}
	if rows[0].Name != "Exported" || rows[0].Phone != "9876543210" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestPrepareUploadRequiresIDs(t *testing.T) {
	svc, _, _ := newTestService(supervisor(5, "Meera"))

	if _, err := svc.PrepareUpload(context.Background(), nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestListQuarantineVisibility(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"), supervisor(6, "Kiran"))

	seedPulled(t, svc, repo, "By Meera", "9876543210", 5)
	seedPulled(t, svc, repo, "By Kiran", "9876543211", 6)

	cases := []struct {
		name   string
		role   string
		userID int64
		want   int
	}{
		{"super admin sees all", domain.RoleSuperAdmin, 1, 2},
		{"team leader sees own", domain.RoleTeamLeader, 5, 1},
		{"distributer sees own", domain.RoleLeadDistributer, 6, 1},
		{"caller sees nothing", domain.RoleFranchiseCaller, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := svc.ListQuarantine(context.Background(), tc.role, tc.userID,
				repository.QuarantineFilter{}, repository.ListParams{})
			if err != nil {
				t.Fatalf("ListQuarantine: %v", err)
			}
			if list.Total != tc.want || len(list.Items) != tc.want {
				t.Fatalf("total %d items %d, want %d", list.Total, len(list.Items), tc.want)
			}
		})
	}
}

func TestGetPulledLeadScoping(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"))
	pulled := seedPulled(t, svc, repo, "By Meera", "9876543210", 5)

	if _, err := svc.GetPulledLead(context.Background(), domain.RoleSuperAdmin, 1, pulled.ID); err != nil {
		t.Fatalf("super admin denied: %v", err)
	}
	if _, err := svc.GetPulledLead(context.Background(), domain.RoleTeamLeader, 5, pulled.ID); err != nil {
		t.Fatalf("owner denied: %v", err)
	}

	// Another supervisor's pull reads as missing, not forbidden.
	if _, err := svc.GetPulledLead(context.Background(), domain.RoleTeamLeader, 6, pulled.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
	if _, err := svc.GetPulledLead(context.Background(), domain.RoleFranchiseCaller, 1, pulled.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}
}

func TestQuarantineStatisticsScoped(t *testing.T) {
	svc, repo, _ := newTestService(franchiseCaller(1, "Asha"), supervisor(5, "Meera"), supervisor(6, "Kiran"))

	mine := seedPulled(t, svc, repo, "Mine", "9876543210", 5)
	seedPulled(t, svc, repo, "Other", "9876543211", 6)
	if _, err := svc.ExportQuarantine(context.Background(), []int64{mine.ID}, repository.QuarantineFilter{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	all, err := svc.QuarantineStatistics(context.Background(), domain.RoleSuperAdmin, 1)
	if err != nil {
		t.Fatalf("QuarantineStatistics: %v", err)
	}
	if all.Total != 2 || all.Exported != 1 || all.NotExported != 1 {
		t.Fatalf("admin stats %+v", all)
	}

	own, err := svc.QuarantineStatistics(context.Background(), domain.RoleTeamLeader, 5)
	if err != nil {
		t.Fatalf("QuarantineStatistics: %v", err)
	}
	if own.Total != 1 || own.Exported != 1 {
		t.Fatalf("own stats %+v", own)
	}
}
