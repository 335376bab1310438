package companies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MemberView is a company member as exposed to that company's staff.
type MemberView struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      enums.UserRole `json:"role"`
	IsActive  bool           `json:"is_active"`
}

// CompanyView is the company read model. Members are only populated for
// callers inside the company.
type CompanyView struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Members   []MemberView `json:"members,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// CompanyList is a cursor page of companies.
type CompanyList struct {
	Companies  []CompanyView `json:"companies"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Service defines company management operations.
type Service interface {
	Create(ctx context.Context, ownerUserID uuid.UUID, name string) (*CompanyView, error)
	Get(ctx context.Context, companyID uuid.UUID, includeMembers bool) (*CompanyView, error)
	List(ctx context.Context, params pagination.Params) (*CompanyList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a company service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create registers a company and promotes the creator to its admin. A user
// may own at most one company.
func (s *service) Create(ctx context.Context, ownerUserID uuid.UUID, name string) (*CompanyView, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}

	var view *CompanyView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		company := &models.Company{
			Name:        name,
			OwnerUserID: ownerUserID,
		}
		if _, err := repo.Create(ctx, company); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "user already owns a company")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
		}
		if err := repo.BindMember(ctx, ownerUserID, company.ID, enums.UserRoleAdmin); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind company owner")
		}
		view = buildCompanyView(company, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Get(ctx context.Context, companyID uuid.UUID, includeMembers bool) (*CompanyView, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return buildCompanyView(company, includeMembers), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*CompanyList, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list companies")
	}
	list := &CompanyList{Companies: make([]CompanyView, 0, len(rows))}
	for i := range rows {
		list.Companies = append(list.Companies, *buildCompanyView(&rows[i], false))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func buildCompanyView(company *models.Company, includeMembers bool) *CompanyView {
	view := &CompanyView{
		ID:        company.ID,
		Name:      company.Name,
		CreatedAt: company.CreatedAt,
	}
	if includeMembers {
		view.Members = make([]MemberView, 0, len(company.Members))
		for _, member := range company.Members {
			view.Members = append(view.Members, MemberView{
				ID:        member.ID,
				Email:     member.Email,
				FirstName: member.FirstName,
				LastName:  member.LastName,
				Role:      member.Role,
				IsActive:  member.IsActive,
			})
		}
	}
	return view
}
