/*
schedule.go - Schedule CRUD with ownership checks

PURPOSE:
  Owns schedule create/read/update/delete for the authenticated user and
  invokes the reconciler whenever a write touches the category.

OWNERSHIP:
  Every read/update/delete verifies schedule.UserID against the caller and
  fails with an OwnershipError (ErrForbidden) otherwise.

RECONCILIATION COUPLING:
  The reconciler runs after a successful save, as an explicit call rather
  than a storage-layer hook. A reconciliation failure is logged and does
  not fail the schedule write.

SEE ALSO:
  - reconcile.go: The diff algorithm
  - achievement.go: Completion flips and statistics deltas
*/
package ecotrack

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ScheduleService owns schedule CRUD for authenticated users.
type ScheduleService struct {
	Schedules  ScheduleStore
	Reconciler *Reconciler
}

func NewScheduleService(store Store) *ScheduleService {
	return &ScheduleService{
		Schedules:  store,
		Reconciler: NewReconciler(store),
	}
}

// ScheduleInput carries the fields a caller may set on create.
type ScheduleInput struct {
	Title       string
	Description string
	AllDay      bool
	Start       time.Time
	End         time.Time
	CategoryID  *CategoryID
}

// ScheduleUpdate carries a partial update: only non-nil fields are applied.
// A non-nil CategoryID pointing at the empty value clears the category.
type ScheduleUpdate struct {
	Title       *string
	Description *string
	AllDay      *bool
	Start       *time.Time
	End         *time.Time
	CategoryID  *CategoryID
}

func validatePeriod(allDay bool, start, end time.Time) error {
	if allDay {
		return nil
	}
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return ErrInvalidPeriod
	}
	return nil
}

// Create stores a new schedule owned by userID and reconciles its
// achievement set.
func (s *ScheduleService) Create(ctx context.Context, userID UserID, in ScheduleInput) (*Schedule, error) {
	if err := validatePeriod(in.AllDay, in.Start, in.End); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	schedule := Schedule{
		ID:          ScheduleID(NewID()),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		AllDay:      in.AllDay,
		Start:       in.Start,
		End:         in.End,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Schedules.SaveSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	s.reconcileAfterWrite(ctx, &schedule)
	return &schedule, nil
}

// Get returns a schedule if the caller owns it.
func (s *ScheduleService) Get(ctx context.Context, callerID UserID, id ScheduleID) (*Schedule, error) {
	return s.owned(ctx, callerID, id)
}

// ListForUser returns all schedules owned by the caller.
func (s *ScheduleService) ListForUser(ctx context.Context, userID UserID) ([]Schedule, error) {
	return s.Schedules.ListSchedulesByUser(ctx, userID)
}

// Update applies the fields present in the partial update and reconciles if
// the category was among them.
func (s *ScheduleService) Update(ctx context.Context, callerID UserID, id ScheduleID, upd ScheduleUpdate) (*Schedule, error) {
	schedule, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	categoryTouched := false
	if upd.Title != nil {
		schedule.Title = *upd.Title
	}
	if upd.Description != nil {
		schedule.Description = *upd.Description
	}
	if upd.AllDay != nil {
		schedule.AllDay = *upd.AllDay
	}
	if upd.Start != nil {
		schedule.Start = *upd.Start
	}
	if upd.End != nil {
		schedule.End = *upd.End
	}
	if upd.CategoryID != nil {
		categoryTouched = true
		if *upd.CategoryID == "" {
			schedule.CategoryID = nil
		} else {
			cid := *upd.CategoryID
			schedule.CategoryID = &cid
		}
	}

	if err := validatePeriod(schedule.AllDay, schedule.Start, schedule.End); err != nil {
		return nil, err
	}

	schedule.UpdatedAt = time.Now().UTC()
	if err := s.Schedules.SaveSchedule(ctx, *schedule); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	if categoryTouched {
		s.reconcileAfterWrite(ctx, schedule)
	}
	return schedule, nil
}

// Delete removes the schedule; the store cascades achievement deletion.
func (s *ScheduleService) Delete(ctx context.Context, callerID UserID, id ScheduleID) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	return s.Schedules.DeleteSchedule(ctx, id)
}

func (s *ScheduleService) owned(ctx context.Context, callerID UserID, id ScheduleID) (*Schedule, error) {
	schedule, err := s.Schedules.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != callerID {
		return nil, &OwnershipError{ScheduleID: id, CallerID: callerID}
	}
	return schedule, nil
}

// reconcileAfterWrite runs reconciliation for a just-saved schedule. The
// schedule write already succeeded, so a reconciliation failure is logged
// rather than surfaced.
func (s *ScheduleService) reconcileAfterWrite(ctx context.Context, schedule *Schedule) {
	if err := s.Reconciler.Reconcile(ctx, schedule); err != nil {
		log.Printf("Warning: reconciliation failed for schedule %s: %v", schedule.ID, err)
	}
}
