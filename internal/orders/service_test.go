package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	orders    map[uuid.UUID]*models.Order
	lines     map[uuid.UUID]*models.OrderLine
	products  map[uuid.UUID]models.Product
	companies map[uuid.UUID]models.Company
	statuses  map[uuid.UUID]*models.FulfillmentStatus
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:    make(map[uuid.UUID]*models.Order),
		lines:     make(map[uuid.UUID]*models.OrderLine),
		products:  make(map[uuid.UUID]models.Product),
		companies: make(map[uuid.UUID]models.Company),
		statuses:  make(map[uuid.UUID]*models.FulfillmentStatus),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	for i := range lines {
		line := lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		s.lines[line.ID] = &line
	}
	return nil
}

func (s *stubOrdersRepo) UpdateLine(ctx context.Context, line models.OrderLine) error {
	existing, ok := s.lines[line.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	existing.ProductID = line.ProductID
	existing.Quantity = line.Quantity
	existing.AmountCents = line.AmountCents
	return nil
}

func (s *stubOrdersRepo) DeleteLines(ctx context.Context, orderID uuid.UUID, lineIDs []uuid.UUID) error {
	for _, id := range lineIDs {
		delete(s.lines, id)
	}
	return nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "total_cents":
			if v, ok := value.(int64); ok {
				order.TotalCents = v
			}
		case "location":
			if v, ok := value.(string); ok {
				order.Location = v
			}
		case "delivery_time":
			if v, ok := value.(time.Time); ok {
				order.DeliveryTime = v
			}
		}
	}
	return nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	loaded := *order
	loaded.Lines = nil
	loaded.Statuses = nil
	for _, line := range s.lines {
		if line.OrderID == orderID {
			loaded.Lines = append(loaded.Lines, *line)
		}
	}
	for _, status := range s.statuses {
		if status.OrderID == orderID {
			loaded.Statuses = append(loaded.Statuses, *status)
		}
	}
	return &loaded, nil
}

func (s *stubOrdersRepo) FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	for _, line := range s.lines {
		if line.OrderID == orderID {
			lines = append(lines, *line)
		}
	}
	return lines, nil
}

func (s *stubOrdersRepo) FindProductsByIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	for _, id := range productIDs {
		if product, ok := s.products[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

func (s *stubOrdersRepo) FindCompaniesByIDs(ctx context.Context, companyIDs []uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	for _, id := range companyIDs {
		if company, ok := s.companies[id]; ok {
			companies = append(companies, company)
		}
	}
	return companies, nil
}

func (s *stubOrdersRepo) UpsertFulfillmentStatuses(ctx context.Context, statuses []models.FulfillmentStatus) error {
	for i := range statuses {
		status := statuses[i]
		if s.findStatus(status.OrderID, status.CompanyID) != nil {
			continue
		}
		if status.ID == uuid.Nil {
			status.ID = uuid.New()
		}
		s.statuses[status.ID] = &status
	}
	return nil
}

func (s *stubOrdersRepo) findStatus(orderID, companyID uuid.UUID) *models.FulfillmentStatus {
	for _, status := range s.statuses {
		if status.OrderID == orderID && status.CompanyID == companyID {
			return status
		}
	}
	return nil
}

func (s *stubOrdersRepo) FindFulfillmentStatus(ctx context.Context, orderID, companyID uuid.UUID) (*models.FulfillmentStatus, error) {
	if status := s.findStatus(orderID, companyID); status != nil {
		return status, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) UpdateFulfillmentStatus(ctx context.Context, statusID uuid.UUID, updates map[string]any) error {
	status, ok := s.statuses[statusID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			if v, ok := value.(enums.FulfillmentState); ok {
				status.Status = v
			}
		case "last_updated":
			if v, ok := value.(time.Time); ok {
				status.LastUpdated = v
			}
		}
	}
	return nil
}

func (s *stubOrdersRepo) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	var rows []models.Order
	for id, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		loaded, _ := s.FindOrder(ctx, id)
		rows = append(rows, *loaded)
	}
	return rows, nil, nil
}

func (s *stubOrdersRepo) ListCompanyOrders(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	var rows []models.Order
	for id := range s.orders {
		if s.findStatus(id, companyID) == nil {
			continue
		}
		loaded, _ := s.FindOrder(ctx, id)
		rows = append(rows, *loaded)
	}
	return rows, nil, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func seedProduct(repo *stubOrdersRepo, companyID *uuid.UUID, priceCents int64, discount float64) models.Product {
	product := models.Product{
		ID:              uuid.New(),
		Name:            "product",
		PriceCents:      priceCents,
		DiscountPercent: discount,
		CompanyID:       companyID,
	}
	repo.products[product.ID] = product
	return product
}

func newTestService(t *testing.T, repo *stubOrdersRepo) (Service, *stubOutboxPublisher) {
	t.Helper()
	events := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, events)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, events
}

func TestCreateSnapshotsAmountsAndFansOut(t *testing.T) {
	repo := newStubOrdersRepo()
	companyA := uuid.New()
	companyB := uuid.New()
	repo.companies[companyA] = models.Company{ID: companyA, Name: "Acme"}
	repo.companies[companyB] = models.Company{ID: companyB, Name: "Globex"}

	productA := seedProduct(repo, &companyA, 10000, 10)
	productB := seedProduct(repo, &companyB, 5000, 0)
	productA2 := seedProduct(repo, &companyA, 2000, 0)

	svc, events := newTestService(t, repo)
	userID := uuid.New()

	view, err := svc.Create(context.Background(), CreateInput{
		UserID:       userID,
		Location:     "12 Harbor Road",
		DeliveryTime: time.Now().Add(48 * time.Hour),
		Lines: []LineInput{
			{ProductID: productA.ID, Quantity: 2},
			{ProductID: productB.ID, Quantity: 1},
			{ProductID: productA2.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if view.TotalCents != 25000 {
		t.Fatalf("expected total 25000 got %d", view.TotalCents)
	}
	if len(view.Lines) != 3 {
		t.Fatalf("expected 3 lines got %d", len(view.Lines))
	}

	// two distinct companies, one status row each
	if len(view.Statuses) != 2 {
		t.Fatalf("expected 2 fulfillment rows got %d", len(view.Statuses))
	}
	for _, status := range view.Statuses {
		if status.Status != enums.FulfillmentStatePending {
			t.Fatalf("expected pending status got %s", status.Status)
		}
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 outbox event got %d", len(events.events))
	}
	if events.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", events.events[0].EventType)
	}
}

func TestCreateAllowsEmptyOrder(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, _ := newTestService(t, repo)

	view, err := svc.Create(context.Background(), CreateInput{
		UserID:       uuid.New(),
		Location:     "14 Dock Street",
		DeliveryTime: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if view.TotalCents != 0 || len(view.Lines) != 0 || len(view.Statuses) != 0 {
		t.Fatalf("expected empty order, got %+v", view)
	}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:       uuid.New(),
		Location:     "somewhere",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines:        []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code got %v", err)
	}
}

func TestUpdateReconcilesByDiff(t *testing.T) {
	repo := newStubOrdersRepo()
	companyA := uuid.New()
	productA := seedProduct(repo, &companyA, 10000, 10)
	productB := seedProduct(repo, &companyA, 5000, 0)
	productC := seedProduct(repo, &companyA, 3000, 0)

	svc, events := newTestService(t, repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       userID,
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines: []LineInput{
			{ProductID: productA.ID, Quantity: 1},
			{ProductID: productB.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var keptLineID uuid.UUID
	for _, line := range created.Lines {
		if line.ProductID == productA.ID {
			keptLineID = line.ID
		}
	}

	updated, err := svc.Update(context.Background(), UpdateInput{
		OrderID: created.ID,
		UserID:  userID,
		Lines: []LineInput{
			{ID: &keptLineID, ProductID: productA.ID, Quantity: 3},
			{ProductID: productC.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// 3*9000 + 2*3000, productB line deleted
	if updated.TotalCents != 33000 {
		t.Fatalf("expected total 33000 got %d", updated.TotalCents)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("expected 2 lines got %d", len(updated.Lines))
	}
	for _, line := range updated.Lines {
		if line.ProductID == productB.ID {
			t.Fatal("omitted line should have been deleted")
		}
		if line.ProductID == productA.ID && line.ID != keptLineID {
			t.Fatal("matched line should keep its identity")
		}
	}

	last := events.events[len(events.events)-1]
	if last.EventType != enums.EventOrderUpdated {
		t.Fatalf("unexpected event type %s", last.EventType)
	}
}

func TestUpdateForbiddenForOtherUser(t *testing.T) {
	repo := newStubOrdersRepo()
	svc, _ := newTestService(t, repo)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       owner,
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(context.Background(), UpdateInput{
		OrderID: created.ID,
		UserID:  uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestUpdateStatusGuardsTerminalStates(t *testing.T) {
	repo := newStubOrdersRepo()
	companyID := uuid.New()
	product := seedProduct(repo, &companyID, 1000, 0)
	svc, events := newTestService(t, repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       userID,
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines:        []LineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	input := StatusUpdateInput{
		OrderID:     created.ID,
		CompanyID:   companyID,
		Status:      enums.FulfillmentStateDelivered,
		ActorUserID: uuid.New(),
		ActorRole:   "admin",
	}
	row, err := svc.UpdateStatus(context.Background(), input)
	if err != nil {
		t.Fatalf("transition to delivered failed: %v", err)
	}
	if row.OrderID != created.ID || row.CompanyID != companyID {
		t.Fatalf("returned row keyed wrong: %+v", row)
	}
	if row.Status != enums.FulfillmentStateDelivered || row.LastUpdated.IsZero() {
		t.Fatalf("returned row must reflect the stored transition: %+v", row)
	}

	last := events.events[len(events.events)-1]
	if last.EventType != enums.EventFulfillmentStatusChanged {
		t.Fatalf("unexpected event type %s", last.EventType)
	}

	// same target is a no-op that still echoes the stored row
	row, err = svc.UpdateStatus(context.Background(), input)
	if err != nil {
		t.Fatalf("idempotent resubmit should succeed: %v", err)
	}
	if row.Status != enums.FulfillmentStateDelivered {
		t.Fatalf("no-op resubmit must echo the stored state, got %s", row.Status)
	}

	// moving off a terminal state is blocked
	input.Status = enums.FulfillmentStateShipped
	_, err = svc.UpdateStatus(context.Background(), input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestUpdateStatusDistinguishesNotFoundAndForbidden(t *testing.T) {
	repo := newStubOrdersRepo()
	companyID := uuid.New()
	product := seedProduct(repo, &companyID, 1000, 0)
	svc, _ := newTestService(t, repo)

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       uuid.New(),
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines:        []LineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderID:   uuid.New(),
		CompanyID: companyID,
		Status:    enums.FulfillmentStateShipped,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderID:   created.ID,
		CompanyID: uuid.New(),
		Status:    enums.FulfillmentStateShipped,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestGetForCompanyRedactsLinesAndTotal(t *testing.T) {
	repo := newStubOrdersRepo()
	companyA := uuid.New()
	companyB := uuid.New()
	productA := seedProduct(repo, &companyA, 10000, 10)
	productB := seedProduct(repo, &companyB, 5000, 0)

	svc, _ := newTestService(t, repo)

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       uuid.New(),
		Location:     "9 Quay",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines: []LineInput{
			{ProductID: productA.ID, Quantity: 2},
			{ProductID: productB.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	view, err := svc.GetForCompany(context.Background(), created.ID, companyA)
	if err != nil {
		t.Fatalf("company view failed: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != productA.ID {
		t.Fatalf("expected only company A lines, got %+v", view.Lines)
	}
	if view.TotalCents != 18000 {
		t.Fatalf("expected redacted total 18000 got %d", view.TotalCents)
	}

	// a company with no slice of the order gets an empty view, not an error
	empty, err := svc.GetForCompany(context.Background(), created.ID, uuid.New())
	if err != nil {
		t.Fatalf("zero-line company view failed: %v", err)
	}
	if empty.Lines == nil || len(empty.Lines) != 0 {
		t.Fatalf("expected an empty line list, got %+v", empty.Lines)
	}
	if empty.TotalCents != 0 {
		t.Fatalf("expected zero filtered total, got %d", empty.TotalCents)
	}
	if empty.Status != enums.FulfillmentStatePending {
		t.Fatalf("expected pending default status, got %s", empty.Status)
	}
}

func TestUpdateNeverFansOutStatuses(t *testing.T) {
	repo := newStubOrdersRepo()
	companyA := uuid.New()
	companyB := uuid.New()
	productA := seedProduct(repo, &companyA, 1000, 0)
	productB := seedProduct(repo, &companyB, 2000, 0)

	svc, _ := newTestService(t, repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       userID,
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines:        []LineInput{{ProductID: productA.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// advance company A before the update
	if _, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderID:   created.ID,
		CompanyID: companyA,
		Status:    enums.FulfillmentStateShipped,
	}); err != nil {
		t.Fatalf("status update failed: %v", err)
	}

	var lineID uuid.UUID
	for _, line := range created.Lines {
		lineID = line.ID
	}

	// adding a company B line must not mint a status row for company B
	updated, err := svc.Update(context.Background(), UpdateInput{
		OrderID: created.ID,
		UserID:  userID,
		Lines: []LineInput{
			{ID: &lineID, ProductID: productA.ID, Quantity: 1},
			{ProductID: productB.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(updated.Statuses) != 1 {
		t.Fatalf("expected the create-time status row only, got %d", len(updated.Statuses))
	}
	if updated.Statuses[0].CompanyID != companyA {
		t.Fatalf("unexpected company %s", updated.Statuses[0].CompanyID)
	}
	if updated.Statuses[0].Status != enums.FulfillmentStateShipped {
		t.Fatalf("existing row should keep its state, got %s", updated.Statuses[0].Status)
	}
}

func TestUpdateNilLinesLeaveLinesAlone(t *testing.T) {
	repo := newStubOrdersRepo()
	companyID := uuid.New()
	product := seedProduct(repo, &companyID, 1500, 0)

	svc, _ := newTestService(t, repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:       userID,
		Location:     "1 Main",
		DeliveryTime: time.Now().Add(time.Hour),
		Lines:        []LineInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	location := "7 Harbour Lane"
	updated, err := svc.Update(context.Background(), UpdateInput{
		OrderID:  created.ID,
		UserID:   userID,
		Location: &location,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Location != location {
		t.Fatalf("expected relocated order, got %q", updated.Location)
	}
	if len(updated.Lines) != 1 || updated.Lines[0].Quantity != 2 {
		t.Fatalf("nil line set must leave lines untouched, got %+v", updated.Lines)
	}
	if updated.TotalCents != 3000 {
		t.Fatalf("expected total 3000 got %d", updated.TotalCents)
	}

	// an explicit empty set clears the order
	cleared, err := svc.Update(context.Background(), UpdateInput{
		OrderID: created.ID,
		UserID:  userID,
		Lines:   []LineInput{},
	})
	if err != nil {
		t.Fatalf("clearing update failed: %v", err)
	}
	if len(cleared.Lines) != 0 || cleared.TotalCents != 0 {
		t.Fatalf("empty line set must clear the order, got %+v", cleared)
	}
}
