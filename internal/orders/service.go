package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/pricing"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/outbox/payloads"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order placement, reconciliation, and fulfillment operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderView, error)
	Update(ctx context.Context, input UpdateInput) (*OrderView, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetForCompany(ctx context.Context, orderID, companyID uuid.UUID) (*CompanyOrderView, error)
	ListForCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*CompanyOrderList, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*FulfillmentView, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery location required")
	}
	if input.DeliveryTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery time required")
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		resolved, products, err := resolveLines(ctx, repo, input.Lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:       input.UserID,
			Location:     input.Location,
			DeliveryTime: input.DeliveryTime,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		lines := make([]models.OrderLine, 0, len(resolved))
		var total int64
		for _, res := range resolved {
			lines = append(lines, models.OrderLine{
				OrderID:     order.ID,
				ProductID:   res.input.ProductID,
				Quantity:    res.input.Quantity,
				AmountCents: res.amountCents,
			})
			total += res.amountCents
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}

		if total != 0 {
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"total_cents": total}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order total")
			}
		}

		companyIDs, err := s.fanOutStatuses(ctx, repo, order.ID, lines, products)
		if err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.UserID, nil, input.ActorRole),
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				UserID:     input.UserID,
				CompanyIDs: companyIDs,
				TotalCents: total,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		loaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		v, err := s.assembleView(ctx, repo, *loaded)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}

		// A nil line set leaves the existing lines alone; an empty one
		// reconciles the order down to zero lines.
		total := order.TotalCents
		var updated, created, deleted int
		if input.Lines != nil {
			resolved, _, err := resolveLines(ctx, repo, input.Lines)
			if err != nil {
				return err
			}

			plan := buildLinePlan(order.ID, order.Lines, resolved)
			for _, line := range plan.updates {
				if err := repo.UpdateLine(ctx, line); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
				}
			}
			if err := repo.CreateLines(ctx, plan.creates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
			}
			if err := repo.DeleteLines(ctx, order.ID, plan.deleteIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order lines")
			}
			total = planTotal(plan)
			updated, created, deleted = plan.counts()
		}

		updates := map[string]any{"total_cents": total}
		if input.Location != nil {
			updates["location"] = *input.Location
		}
		if input.DeliveryTime != nil {
			updates["delivery_time"] = *input.DeliveryTime
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order total")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.UserID, nil, input.ActorRole),
			Data: payloads.OrderUpdatedEvent{
				OrderID:      order.ID,
				UserID:       input.UserID,
				LinesUpdated: updated,
				LinesCreated: created,
				LinesDeleted: deleted,
				TotalCents:   total,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		loaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		v, err := s.assembleView(ctx, repo, *loaded)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	return s.assembleView(ctx, s.repo, *order)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, next, err := s.repo.ListUserOrders(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderView, 0, len(rows))}
	for _, order := range rows {
		view, err := s.assembleView(ctx, s.repo, order)
		if err != nil {
			return nil, err
		}
		list.Orders = append(list.Orders, *view)
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) GetForCompany(ctx context.Context, orderID, companyID uuid.UUID) (*CompanyOrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	products, err := s.loadProducts(ctx, s.repo, order.Lines)
	if err != nil {
		return nil, err
	}
	view := buildCompanyOrderView(*order, companyID, products)
	return &view, nil
}

func (s *service) ListForCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*CompanyOrderList, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}

	rows, next, err := s.repo.ListCompanyOrders(ctx, companyID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list company orders")
	}

	list := &CompanyOrderList{Orders: make([]CompanyOrderView, 0, len(rows))}
	for _, order := range rows {
		products, err := s.loadProducts(ctx, s.repo, order.Lines)
		if err != nil {
			return nil, err
		}
		list.Orders = append(list.Orders, buildCompanyOrderView(order, companyID, products))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*FulfillmentView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment status")
	}

	var view *FulfillmentView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindOrder(ctx, input.OrderID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		status, err := repo.FindFulfillmentStatus(ctx, input.OrderID, input.CompanyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order has no items for company")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment status")
		}

		if status.Status == input.Status {
			view = &FulfillmentView{
				OrderID:     input.OrderID,
				CompanyID:   input.CompanyID,
				Status:      status.Status,
				LastUpdated: status.LastUpdated,
			}
			return nil
		}
		if status.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfillment already finalized")
		}

		now := time.Now()
		updates := map[string]any{
			"status":       input.Status,
			"last_updated": now,
		}
		if err := repo.UpdateFulfillmentStatus(ctx, status.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fulfillment status")
		}
		view = &FulfillmentView{
			OrderID:     input.OrderID,
			CompanyID:   input.CompanyID,
			Status:      input.Status,
			LastUpdated: now,
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventFulfillmentStatusChanged,
			AggregateType: enums.AggregateFulfillmentStatus,
			AggregateID:   status.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, &input.CompanyID, input.ActorRole),
			Data: payloads.FulfillmentStatusChangedEvent{
				OrderID:   input.OrderID,
				CompanyID: input.CompanyID,
				Status:    input.Status,
				ChangedAt: now,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// fanOutStatuses creates one pending row per fulfilling company at order
// creation. Later line edits never touch the status set, so the rows created
// here are the only ones a company can transition.
func (s *service) fanOutStatuses(ctx context.Context, repo Repository, orderID uuid.UUID, lines []models.OrderLine, products map[uuid.UUID]models.Product) ([]uuid.UUID, error) {
	companyIDs := companyIDsForLines(lines, products)
	statuses := make([]models.FulfillmentStatus, 0, len(companyIDs))
	for _, companyID := range companyIDs {
		statuses = append(statuses, models.FulfillmentStatus{
			OrderID:   orderID,
			CompanyID: companyID,
			Status:    enums.FulfillmentStatePending,
		})
	}
	if err := repo.UpsertFulfillmentStatuses(ctx, statuses); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fan out fulfillment statuses")
	}
	return companyIDs, nil
}

func (s *service) assembleView(ctx context.Context, repo Repository, order models.Order) (*OrderView, error) {
	products, err := s.loadProducts(ctx, repo, order.Lines)
	if err != nil {
		return nil, err
	}
	companies, err := repo.FindCompaniesByIDs(ctx, statusCompanyIDs(order.Statuses))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load companies")
	}
	view := buildOrderView(order, products, companyMap(companies))
	return &view, nil
}

func (s *service) loadProducts(ctx context.Context, repo Repository, lines []models.OrderLine) (map[uuid.UUID]models.Product, error) {
	products, err := repo.FindProductsByIDs(ctx, lineProductIDs(lines))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return productMap(products), nil
}

// resolveLines loads the referenced products and snapshots each line amount
// from current pricing. Unknown products fail the whole submission.
func resolveLines(ctx context.Context, repo Repository, inputs []LineInput) ([]resolvedLine, map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, input := range inputs {
		if input.ProductID == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required on every line")
		}
		if !seen[input.ProductID] {
			seen[input.ProductID] = true
			ids = append(ids, input.ProductID)
		}
	}

	products, err := repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := productMap(products)

	resolved := make([]resolvedLine, 0, len(inputs))
	for _, input := range inputs {
		product, ok := byID[input.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product on order line")
		}
		amount, err := pricing.LineAmountCents(product, input.Quantity)
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, resolvedLine{input: input, amountCents: amount})
	}
	return resolved, byID, nil
}

func buildActor(userID uuid.UUID, companyID *uuid.UUID, role string) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
}
