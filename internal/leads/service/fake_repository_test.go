package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/events"
	"travelcrm_backend/platform/logger"
)

// fakeRepo is an in-memory LeadsRepository for service tests. Ordering
// follows creation order: later ids are newer.
type fakeRepo struct {
	leads        map[int64]repository.Lead
	pulled       map[int64]repository.PulledLead
	activities   []repository.Activity
	transferLogs []repository.TransferLog
	followUps    map[int64]repository.FollowUp

	nextLeadID     int64
	nextPulledID   int64
	nextFollowUpID int64
	clock          time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:     make(map[int64]repository.Lead),
		pulled:    make(map[int64]repository.PulledLead),
		followUps: make(map[int64]repository.FollowUp),
		clock:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRepo) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

// ---- LeadStore ----

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	for _, l := range f.leads {
		if l.Phone == params.Phone {
			return repository.Lead{}, repository.ErrDuplicatePhone
		}
	}
	f.nextLeadID++
	now := f.tick()
	lead := repository.Lead{
		ID:               f.nextLeadID,
		Name:             params.Name,
		Email:            params.Email,
		Phone:            params.Phone,
		Company:          params.Company,
		City:             params.City,
		State:            params.State,
		Category:         params.Category,
		Status:           params.Status,
		AssignedToID:     params.AssignedToID,
		UploadedByID:     params.UploadedByID,
		OriginalCategory: params.OriginalCategory,
		Notes:            params.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetLead(_ context.Context, id int64) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) LeadPhoneExists(_ context.Context, phone string) (bool, error) {
	for _, l := range f.leads {
		if l.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SelectLeadsForPull(_ context.Context, filter repository.PullFilter) ([]repository.Lead, error) {
	matched := make([]repository.Lead, 0)
	for _, l := range f.leads {
		if !matchesPullFilter(l, filter) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesPullFilter(l repository.Lead, filter repository.PullFilter) bool {
	if filter.CallerID != nil {
		if l.AssignedToID == nil || *l.AssignedToID != *filter.CallerID {
			return false
		}
	} else if len(filter.CallerIDs) > 0 {
		found := false
		for _, id := range filter.CallerIDs {
			if l.AssignedToID != nil && *l.AssignedToID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.FromDate != nil && l.CreatedAt.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && l.CreatedAt.After(*filter.ToDate) {
		return false
	}
	if filter.Category != nil && l.Category != *filter.Category {
		return false
	}
	if filter.Status != nil {
		if l.Status != *filter.Status {
			return false
		}
	} else if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if l.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeRepo) ConvertLead(_ context.Context, params repository.ConvertLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	original := params.OriginalCategory
	lead.Category = params.NewCategory
	lead.OriginalCategory = &original
	lead.AssignedToID = &params.AssignedToID
	lead.ConvertedByID = &params.ConvertedByID
	lead.ConvertedAt = &params.ConvertedAt
	lead.UpdatedAt = f.tick()
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateLeadStatus(_ context.Context, id int64, status domain.Status) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	lead.UpdatedAt = f.tick()
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) DeleteLead(_ context.Context, id int64) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) CallerLeadSummaries(_ context.Context) ([]repository.CallerLeadSummary, error) {
	counts := make(map[int64]*repository.CallerLeadSummary)
	for _, l := range f.leads {
		if l.AssignedToID == nil {
			continue
		}
		summary, ok := counts[*l.AssignedToID]
		if !ok {
			summary = &repository.CallerLeadSummary{CallerID: *l.AssignedToID}
			counts[*l.AssignedToID] = summary
		}
		summary.Total++
		switch l.Status {
		case domain.StatusNew:
			summary.New++
		case domain.StatusContacted:
			summary.Contacted++
		case domain.StatusInterested:
			summary.Interested++
		case domain.StatusFollowUp:
			summary.FollowUp++
		}
	}
	out := make([]repository.CallerLeadSummary, 0, len(counts))
	for _, s := range counts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallerID < out[j].CallerID })
	return out, nil
}

// ---- QuarantineStore ----

func (f *fakeRepo) CreatePulledLead(_ context.Context, params repository.CreatePulledLeadParams) (repository.PulledLead, error) {
	for _, p := range f.pulled {
		if p.Phone == params.Phone && p.PulledFromID == params.PulledFromID && !p.Exported {
			return repository.PulledLead{}, repository.ErrDuplicatePhone
		}
	}
	f.nextPulledID++
	now := f.tick()
	pulled := repository.PulledLead{
		ID:               f.nextPulledID,
		OriginalLeadID:   params.OriginalLeadID,
		Name:             params.Name,
		Email:            params.Email,
		Phone:            params.Phone,
		Company:          params.Company,
		City:             params.City,
		State:            params.State,
		Notes:            params.Notes,
		OriginalCategory: params.OriginalCategory,
		OriginalStatus:   params.OriginalStatus,
		PulledByID:       params.PulledByID,
		PulledFromID:     params.PulledFromID,
		PullReason:       params.PullReason,
		FilterCriteria:   params.FilterCriteria,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.pulled[pulled.ID] = pulled
	return pulled, nil
}

func (f *fakeRepo) GetPulledLead(_ context.Context, id int64) (repository.PulledLead, error) {
	pulled, ok := f.pulled[id]
	if !ok {
		return repository.PulledLead{}, repository.ErrPulledNotFound
	}
	return pulled, nil
}

func (f *fakeRepo) UnexportedPullExists(_ context.Context, phone string, pulledFromID int64) (bool, error) {
	for _, p := range f.pulled {
		if p.Phone == phone && p.PulledFromID == pulledFromID && !p.Exported {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SelectPulledLeads(_ context.Context, filter repository.QuarantineFilter) ([]repository.PulledLead, error) {
	matched := make([]repository.PulledLead, 0)
	for _, p := range f.pulled {
		if !matchesQuarantineFilter(p, filter) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesQuarantineFilter(p repository.PulledLead, filter repository.QuarantineFilter) bool {
	if len(filter.IDs) > 0 {
		found := false
		for _, id := range filter.IDs {
			if p.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.FromDate != nil && p.CreatedAt.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && p.CreatedAt.After(*filter.ToDate) {
		return false
	}
	if filter.OriginalStatus != nil && p.OriginalStatus != *filter.OriginalStatus {
		return false
	}
	if filter.OriginalCategory != nil && p.OriginalCategory != *filter.OriginalCategory {
		return false
	}
	if filter.Exported != nil && p.Exported != *filter.Exported {
		return false
	}
	if filter.PulledByID != nil && p.PulledByID != *filter.PulledByID {
		return false
	}
	return true
}

func (f *fakeRepo) ListPulledLeads(ctx context.Context, scope domain.QuarantineScope, userID int64, filter repository.QuarantineFilter, page repository.ListParams) ([]repository.PulledLead, int, error) {
	if scope == domain.ScopeNone {
		return []repository.PulledLead{}, 0, nil
	}
	if scope == domain.ScopeOwn {
		filter.PulledByID = &userID
	}
	limit := filter.Limit
	filter.Limit = 0
	all, err := f.SelectPulledLeads(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	filter.Limit = limit

	total := len(all)
	if page.PageSize <= 0 {
		page.PageSize = 20
	}
	if page.Page <= 0 {
		page.Page = 1
	}
	start := (page.Page - 1) * page.PageSize
	if start >= len(all) {
		return []repository.PulledLead{}, total, nil
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeRepo) MarkExported(_ context.Context, ids []int64, at time.Time) (int, error) {
	count := 0
	for _, id := range ids {
		p, ok := f.pulled[id]
		if !ok {
			continue
		}
		p.Exported = true
		exportedAt := at
		p.ExportedAt = &exportedAt
		f.pulled[id] = p
		count++
	}
	return count, nil
}

func (f *fakeRepo) DeletePulledLead(_ context.Context, id int64) error {
	if _, ok := f.pulled[id]; !ok {
		return repository.ErrPulledNotFound
	}
	delete(f.pulled, id)
	return nil
}

func (f *fakeRepo) PullStatistics(_ context.Context, scope domain.QuarantineScope, userID int64) (repository.PullStatistics, error) {
	var stats repository.PullStatistics
	if scope == domain.ScopeNone {
		return stats, nil
	}
	for _, p := range f.pulled {
		if scope == domain.ScopeOwn && p.PulledByID != userID {
			continue
		}
		stats.Total++
		if p.Exported {
			stats.Exported++
		} else {
			stats.NotExported++
		}
		switch p.OriginalCategory {
		case domain.CategoryFranchise:
			stats.Franchise++
		case domain.CategoryPackage:
			stats.Package++
		}
	}
	return stats, nil
}

// ---- ActivityStore ----

func (f *fakeRepo) AddActivity(_ context.Context, params repository.AddActivityParams) error {
	f.activities = append(f.activities, repository.Activity{
		ID:          int64(len(f.activities) + 1),
		LeadID:      params.LeadID,
		UserID:      params.UserID,
		Type:        params.Type,
		Description: params.Description,
		OldStatus:   params.OldStatus,
		NewStatus:   params.NewStatus,
		CreatedAt:   f.tick(),
	})
	return nil
}

func (f *fakeRepo) ListActivities(_ context.Context, leadID int64) ([]repository.Activity, error) {
	out := make([]repository.Activity, 0)
	for _, a := range f.activities {
		if a.LeadID == leadID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) activitiesOfType(activityType string) []repository.Activity {
	out := make([]repository.Activity, 0)
	for _, a := range f.activities {
		if a.Type == activityType {
			out = append(out, a)
		}
	}
	return out
}

// ---- TransferLogStore ----

func (f *fakeRepo) AddTransferLog(_ context.Context, params repository.AddTransferLogParams) error {
	f.transferLogs = append(f.transferLogs, repository.TransferLog{
		ID:            int64(len(f.transferLogs) + 1),
		TransferredBy: params.TransferredBy,
		AssignedTo:    params.AssignedTo,
		Method:        params.Method,
		PulledLeadIDs: params.PulledLeadIDs,
		NewLeadIDs:    params.NewLeadIDs,
		Notes:         params.Notes,
		CreatedAt:     f.tick(),
	})
	return nil
}

// ---- FollowUpStore ----

func (f *fakeRepo) CreateFollowUp(_ context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error) {
	f.nextFollowUpID++
	now := f.tick()
	followUp := repository.FollowUp{
		ID:            f.nextFollowUpID,
		LeadID:        params.LeadID,
		AssignedToID:  params.AssignedToID,
		ScheduledDate: params.ScheduledDate,
		Notes:         params.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.followUps[followUp.ID] = followUp
	return followUp, nil
}

func (f *fakeRepo) ListPendingFollowUps(_ context.Context, assignedToID *int64) ([]repository.FollowUp, error) {
	out := make([]repository.FollowUp, 0)
	for _, fu := range f.followUps {
		if fu.Completed {
			continue
		}
		if assignedToID != nil && fu.AssignedToID != *assignedToID {
			continue
		}
		out = append(out, fu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (f *fakeRepo) CompleteFollowUp(_ context.Context, id int64, at time.Time) (repository.FollowUp, error) {
	followUp, ok := f.followUps[id]
	if !ok {
		return repository.FollowUp{}, repository.ErrNotFound
	}
	followUp.Completed = true
	completedAt := at
	followUp.CompletedAt = &completedAt
	followUp.UpdatedAt = f.tick()
	f.followUps[id] = followUp
	return followUp, nil
}

var _ repository.LeadsRepository = (*fakeRepo)(nil)

// ---- AgentDirectory fake ----

type fakeDirectory struct {
	agents []ports.Agent
}

func (d *fakeDirectory) EligibleAgents(_ context.Context, category domain.Category, includeAbsent bool) ([]ports.Agent, error) {
	role := category.CallerRole()
	out := make([]ports.Agent, 0)
	for _, a := range d.agents {
		if a.Role != role || !a.Active {
			continue
		}
		if !includeAbsent && !a.Present {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeDirectory) GetAgent(_ context.Context, id int64) (ports.Agent, error) {
	for _, a := range d.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return ports.Agent{}, ports.ErrAgentNotFound
}

// ---- event bus fake ----

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

// containsLog reports whether the notes carry a provenance marker.
func containsLog(notes *string, marker string) bool {
	return notes != nil && strings.Contains(*notes, marker)
}

// ---- harness ----

var fixedNow = time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)

func newTestService(agents ...ports.Agent) (*Service, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, &fakeDirectory{agents: agents}, bus, logger.New("development"))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, bus
}

func franchiseCaller(id int64, first string) ports.Agent {
	return ports.Agent{ID: id, FirstName: first, LastName: "Caller", Role: domain.RoleFranchiseCaller, Active: true, Present: true}
}

func packageCaller(id int64, first string) ports.Agent {
	return ports.Agent{ID: id, FirstName: first, LastName: "Caller", Role: domain.RolePackageCaller, Active: true, Present: true}
}

func supervisor(id int64, first string) ports.Agent {
	return ports.Agent{ID: id, FirstName: first, LastName: "Lead", Role: domain.RoleTeamLeader, Active: true, Present: true}
}

// seedLead inserts an active lead directly into the fake store.
func seedLead(repo *fakeRepo, name, mobile string, category domain.Category, assignedTo *int64) repository.Lead {
	lead, err := repo.CreateLead(context.Background(), repository.CreateLeadParams{
		Name:         name,
		Phone:        mobile,
		Category:     category,
		Status:       domain.StatusNew,
		AssignedToID: assignedTo,
	})
	if err != nil {
		panic(err)
	}
	return lead
}

func int64Ptr(v int64) *int64 { return &v }
