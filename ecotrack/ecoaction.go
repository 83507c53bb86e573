/*
ecoaction.go - Eco-action administrative surface

PURPOSE:
  Create and update catalog entries. An update that moves an action to a
  different category is the side-channel mutation that must ripple into
  every schedule's achievement set, so it triggers the fan-out after the
  write completes.
*/
package ecotrack

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// EcoActionService owns the admin mutation path for the eco-action catalog.
type EcoActionService struct {
	Actions    EcoActionStore
	Categories CategoryStore
	Fanout     *Fanout
}

func NewEcoActionService(store Store, fanout *Fanout) *EcoActionService {
	return &EcoActionService{Actions: store, Categories: store, Fanout: fanout}
}

// EcoActionInput carries the admin-editable fields.
type EcoActionInput struct {
	CategoryID CategoryID
	Content    string
	MoneySaved decimal.Decimal
	CO2Saved   decimal.Decimal
}

func (s *EcoActionService) validCategory(ctx context.Context, id CategoryID) error {
	cat, err := s.Categories.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrInvalidCategoryRef
	}
	return nil
}

// Create adds a catalog entry. New actions ripple into schedules of their
// category the same way a category change does.
func (s *EcoActionService) Create(ctx context.Context, in EcoActionInput) (*EcoAction, error) {
	if err := s.validCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	action := EcoAction{
		ID:         EcoActionID(NewID()),
		CategoryID: in.CategoryID,
		Content:    in.Content,
		Savings:    Savings{Money: in.MoneySaved, CO2: in.CO2Saved},
	}
	if err := s.Actions.SaveEcoAction(ctx, action); err != nil {
		return nil, fmt.Errorf("save eco action: %w", err)
	}

	s.triggerFanout(ctx)
	return &action, nil
}

// Update modifies a catalog entry and, once the write is durable, fans
// reconciliation out over all schedules.
func (s *EcoActionService) Update(ctx context.Context, id EcoActionID, in EcoActionInput) (*EcoAction, error) {
	action, err := s.Actions.GetEcoAction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	action.CategoryID = in.CategoryID
	action.Content = in.Content
	action.Savings = Savings{Money: in.MoneySaved, CO2: in.CO2Saved}

	if err := s.Actions.SaveEcoAction(ctx, *action); err != nil {
		return nil, fmt.Errorf("save eco action: %w", err)
	}

	s.triggerFanout(ctx)
	return action, nil
}

// OnCategoryChanged is the external hook for mutations made outside this
// service (e.g. direct admin tooling). It only fans out; the write must
// already be committed.
func (s *EcoActionService) OnCategoryChanged(ctx context.Context, _ EcoActionID) {
	s.triggerFanout(ctx)
}

func (s *EcoActionService) triggerFanout(ctx context.Context) {
	if s.Fanout == nil {
		return
	}
	if err := s.Fanout.EnqueueAll(ctx); err != nil {
		log.Printf("Warning: failed to enqueue reconciliation fan-out: %v", err)
	}
}
