package orders

import (
	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
)

// resolvedLine is a submitted line with its amount already snapshotted from
// current product pricing.
type resolvedLine struct {
	input       LineInput
	amountCents int64
}

// linePlan is the outcome of diffing the submitted line set against the rows
// currently on the order. It is built without touching the database so the
// whole rewrite can happen in one transaction.
type linePlan struct {
	updates   []models.OrderLine
	creates   []models.OrderLine
	deleteIDs []uuid.UUID
}

func (p linePlan) counts() (updated, created, deleted int) {
	return len(p.updates), len(p.creates), len(p.deleteIDs)
}

// buildLinePlan reconciles by diff: a submitted line whose ID matches an
// existing row updates that row in place, anything else is created fresh, and
// existing rows omitted from the submission are deleted.
func buildLinePlan(orderID uuid.UUID, existing []models.OrderLine, submitted []resolvedLine) linePlan {
	existingByID := make(map[uuid.UUID]models.OrderLine, len(existing))
	for _, line := range existing {
		existingByID[line.ID] = line
	}

	plan := linePlan{}
	kept := make(map[uuid.UUID]bool, len(submitted))

	for _, res := range submitted {
		if res.input.ID != nil {
			if current, ok := existingByID[*res.input.ID]; ok {
				current.ProductID = res.input.ProductID
				current.Quantity = res.input.Quantity
				current.AmountCents = res.amountCents
				plan.updates = append(plan.updates, current)
				kept[current.ID] = true
				continue
			}
		}
		plan.creates = append(plan.creates, models.OrderLine{
			OrderID:     orderID,
			ProductID:   res.input.ProductID,
			Quantity:    res.input.Quantity,
			AmountCents: res.amountCents,
		})
	}

	for _, line := range existing {
		if !kept[line.ID] {
			plan.deleteIDs = append(plan.deleteIDs, line.ID)
		}
	}

	return plan
}

// planTotal sums the amounts the order will carry once the plan is applied.
func planTotal(plan linePlan) int64 {
	var total int64
	for _, line := range plan.updates {
		total += line.AmountCents
	}
	for _, line := range plan.creates {
		total += line.AmountCents
	}
	return total
}
