package orders

import (
	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
)

// buildOrderView assembles the customer-facing projection. The caller supplies
// lookup maps so list endpoints can batch their product and company reads.
func buildOrderView(order models.Order, products map[uuid.UUID]models.Product, companies map[uuid.UUID]models.Company) OrderView {
	view := OrderView{
		ID:           order.ID,
		UserID:       order.UserID,
		Location:     order.Location,
		DeliveryTime: order.DeliveryTime,
		TotalCents:   order.TotalCents,
		Lines:        make([]LineView, 0, len(order.Lines)),
		Statuses:     make([]StatusView, 0, len(order.Statuses)),
		CreatedAt:    order.CreatedAt,
	}

	for _, line := range order.Lines {
		lineView := LineView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		}
		if product, ok := products[line.ProductID]; ok {
			lineView.ProductName = product.Name
		}
		view.Lines = append(view.Lines, lineView)
	}

	for _, status := range order.Statuses {
		statusView := StatusView{
			CompanyID:   status.CompanyID,
			Status:      status.Status,
			LastUpdated: status.LastUpdated,
		}
		if company, ok := companies[status.CompanyID]; ok {
			statusView.CompanyName = company.Name
		}
		view.Statuses = append(view.Statuses, statusView)
	}

	return view
}

// buildCompanyOrderView redacts an order down to the slice one company is
// allowed to see: only the lines it fulfills and a total covering those lines.
func buildCompanyOrderView(order models.Order, companyID uuid.UUID, products map[uuid.UUID]models.Product) CompanyOrderView {
	view := CompanyOrderView{
		OrderID:      order.ID,
		Location:     order.Location,
		DeliveryTime: order.DeliveryTime,
		Status:       enums.FulfillmentStatePending,
		Lines:        []LineView{},
		CreatedAt:    order.CreatedAt,
	}

	for _, status := range order.Statuses {
		if status.CompanyID == companyID {
			view.Status = status.Status
			break
		}
	}

	for _, line := range order.Lines {
		product, ok := products[line.ProductID]
		if !ok || product.CompanyID == nil || *product.CompanyID != companyID {
			continue
		}
		view.Lines = append(view.Lines, LineView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
		view.TotalCents += line.AmountCents
	}

	return view
}

// companyIDsForLines derives the distinct fulfilling companies for a line set.
// Products without an owning company contribute nothing.
func companyIDsForLines(lines []models.OrderLine, products map[uuid.UUID]models.Product) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || product.CompanyID == nil {
			continue
		}
		if !seen[*product.CompanyID] {
			seen[*product.CompanyID] = true
			ids = append(ids, *product.CompanyID)
		}
	}
	return ids
}

func productMap(products []models.Product) map[uuid.UUID]models.Product {
	out := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		out[product.ID] = product
	}
	return out
}

func companyMap(companies []models.Company) map[uuid.UUID]models.Company {
	out := make(map[uuid.UUID]models.Company, len(companies))
	for _, company := range companies {
		out[company.ID] = company
	}
	return out
}

func lineProductIDs(lines []models.OrderLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}

func statusCompanyIDs(statuses []models.FulfillmentStatus) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, status := range statuses {
		if !seen[status.CompanyID] {
			seen[status.CompanyID] = true
			ids = append(ids, status.CompanyID)
		}
	}
	return ids
}
