// Package services – CalculationService
//
// This file implements CalculationService, which wraps the stateless
// hydraulic calculator with persistence: moderators can save named
// calculations, browse and refine them, duplicate a calculation as a
// starting point, and see aggregate statistics over their saved set.
//
// The fixture counts are stored verbatim alongside the results so a saved
// calculation can be reopened in the calculator UI exactly as entered.
package services

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vfg-store/moderation-backend/internal/domain"
	"github.com/vfg-store/moderation-backend/internal/hydraulic"
	"github.com/vfg-store/moderation-backend/internal/repo"
)

// duplicateNameSuffix is appended when duplicating without an explicit name.
const duplicateNameSuffix = " (Kopie)"

// CalculationService owns saved hydraulic calculations.
type CalculationService struct {
	DB *gorm.DB
}

// CalculationStats aggregates a user's saved calculations.
type CalculationStats struct {
	Total     int64            `json:"total"`
	ByMethod  map[string]int64 `json:"by_method"`
	ByDN      map[string]int64 `json:"by_dn"`
	AverageLU float64          `json:"average_lu"`
}

// Compute runs the sizing calculation without persisting anything.
func (s *CalculationService) Compute(ctx context.Context, in hydraulic.Input) (*hydraulic.Result, error) {
	_, span := otel.Tracer("services/CalculationService").Start(ctx, "Compute",
		trace.WithAttributes(attribute.String("method", string(in.Method))),
	)
	defer span.End()

	if !hydraulic.ValidMethod(in.Method) {
		return nil, ErrInvalidMethod
	}
	res := hydraulic.Calculate(in)
	return &res, nil
}

// Create computes and persists a named calculation for a user.
func (s *CalculationService) Create(ctx context.Context, userID, name string, in hydraulic.Input) (*domain.Calculation, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !hydraulic.ValidMethod(in.Method) {
		return nil, ErrInvalidMethod
	}

	res := hydraulic.Calculate(in)
	calc := &domain.Calculation{
		UserID:              userID,
		Name:                name,
		Method:              string(in.Method),
		IncludeHydrantExtra: includeHydrant(in),
		TotalLU:             res.TotalLU,
		TotalLps:            res.TotalLps,
		TotalM3PerHour:      res.TotalM3PerHour,
		RecommendedDN:       res.RecommendedDN,
		FixtureCounts:       countsToJSONMap(in.Counts),
	}
	if err := repo.CreateCalculation(ctx, s.DB, calc); err != nil {
		return nil, err
	}
	return calc, nil
}

// List returns one page of saved calculations plus the total matching count.
func (s *CalculationService) List(ctx context.Context, f repo.CalculationFilter, page, pageSize int) ([]domain.Calculation, int64, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := repo.CountCalculations(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	calcs, err := repo.ListCalculations(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return calcs, total, nil
}

// Get returns a single saved calculation, or ErrCalculationNotFound.
func (s *CalculationService) Get(ctx context.Context, id string) (*domain.Calculation, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("calculation.id", id)),
	)
	defer span.End()

	calc, err := repo.GetCalculation(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrCalculationNotFound
		}
		return nil, err
	}
	return calc, nil
}

// Update renames and recomputes an existing calculation from new inputs.
func (s *CalculationService) Update(ctx context.Context, id, name string, in hydraulic.Input) (*domain.Calculation, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("calculation.id", id)),
	)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !hydraulic.ValidMethod(in.Method) {
		return nil, ErrInvalidMethod
	}

	calc, err := repo.GetCalculation(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrCalculationNotFound
		}
		return nil, err
	}

	res := hydraulic.Calculate(in)
	calc.Name = name
	calc.Method = string(in.Method)
	calc.IncludeHydrantExtra = includeHydrant(in)
	calc.TotalLU = res.TotalLU
	calc.TotalLps = res.TotalLps
	calc.TotalM3PerHour = res.TotalM3PerHour
	calc.RecommendedDN = res.RecommendedDN
	calc.FixtureCounts = countsToJSONMap(in.Counts)

	if err := repo.SaveCalculation(ctx, s.DB, calc); err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrCalculationNotFound
		}
		return nil, err
	}
	return calc, nil
}

// Delete removes a saved calculation.
func (s *CalculationService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("calculation.id", id)),
	)
	defer span.End()

	if err := repo.DeleteCalculation(ctx, s.DB, id); err != nil {
		if err == repo.ErrNotFound {
			return ErrCalculationNotFound
		}
		return err
	}
	return nil
}

// Duplicate copies an existing calculation under a new name. When name is
// empty the copy gets the original name with a " (Kopie)" suffix.
func (s *CalculationService) Duplicate(ctx context.Context, id, name string) (*domain.Calculation, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Duplicate",
		trace.WithAttributes(attribute.String("calculation.id", id)),
	)
	defer span.End()

	src, err := repo.GetCalculation(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrCalculationNotFound
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = src.Name + duplicateNameSuffix
	}

	copy := &domain.Calculation{
		UserID:              src.UserID,
		Name:                name,
		Method:              src.Method,
		IncludeHydrantExtra: src.IncludeHydrantExtra,
		TotalLU:             src.TotalLU,
		TotalLps:            src.TotalLps,
		TotalM3PerHour:      src.TotalM3PerHour,
		RecommendedDN:       src.RecommendedDN,
		FixtureCounts:       src.FixtureCounts,
	}
	if err := repo.CreateCalculation(ctx, s.DB, copy); err != nil {
		return nil, err
	}
	return copy, nil
}

// Stats aggregates a user's saved calculations by method and recommended
// diameter. Pass an empty userID for a global view.
func (s *CalculationService) Stats(ctx context.Context, userID string) (*CalculationStats, error) {
	tr := otel.Tracer("services/CalculationService")
	ctx, span := tr.Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	calcs, err := repo.AllCalculations(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	stats := &CalculationStats{
		ByMethod: map[string]int64{},
		ByDN:     map[string]int64{},
	}
	var luSum float64
	for _, c := range calcs {
		stats.Total++
		stats.ByMethod[c.Method]++
		if c.RecommendedDN != nil {
			stats.ByDN[*c.RecommendedDN]++
		}
		luSum += c.TotalLU
	}
	if stats.Total > 0 {
		stats.AverageLU = roundRate(luSum / float64(stats.Total))
	}
	return stats, nil
}

// includeHydrant resolves the effective hydrant allowance flag the same way
// the calculator does, so the stored value reflects what was computed.
func includeHydrant(in hydraulic.Input) bool {
	if in.IncludeHydrantExtra != nil {
		return *in.IncludeHydrantExtra
	}
	return in.Counts["hydrant"] > 0
}

func countsToJSONMap(counts map[string]int) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	for k, v := range counts {
		m[k] = float64(v)
	}
	return m
}
