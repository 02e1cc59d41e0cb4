// Package parcel assembles the zoning report for one parcel.
package parcel

import (
	"context"
	"errors"
	"strings"

	"github.com/woozymasta/lotinfo/internal/config"
	"github.com/woozymasta/lotinfo/internal/geo"
	"github.com/woozymasta/lotinfo/internal/gis"
	"github.com/woozymasta/lotinfo/internal/metrics"
	"github.com/woozymasta/lotinfo/internal/zoning"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Fetcher reads parcel records from the remote layers.
type Fetcher interface {
	First(ctx context.Context, layer int, id string) (gis.Record, error)
	All(ctx context.Context, layer int, id string) ([]gis.Record, error)
}

// Report is everything known about a parcel after one lookup.
// Failed lookups leave Primary empty or Supplemental nil and keep the cause
// in PrimaryErr/SupplementalErr.
type Report struct {
	PrimaryErr      error
	SupplementalErr error

	Location  *geo.GeoPoint
	Projected *geo.ProjectedPoint
	Rule      *zoning.Rule
	Params    *zoning.Parameters

	ID       string
	ZoneCode string

	Primary      gis.Record
	Supplemental []gis.Record

	LotArea           float64
	PrimaryLayer      int
	SupplementalLayer int
	Found             bool
}

// ZoneWarning reports whether the parcel was found but no parameters could be
// computed, because the zone is unknown or the lot area is not positive.
func (r *Report) ZoneWarning() bool {
	return r.Found && r.Params == nil
}

// Service builds reports from the GIS layers and the zoning table.
type Service struct {
	fetcher    Fetcher
	table      *zoning.Table
	fields     config.Fields
	projection config.Projection
	layers     [2]int
}

// NewService wires a Service. The table and configuration are only read.
func NewService(fetcher Fetcher, table *zoning.Table, cfg *config.Config) *Service {
	return &Service{
		fetcher:    fetcher,
		table:      table,
		fields:     cfg.Fields,
		projection: cfg.Projection,
		layers:     [2]int{cfg.GIS.PrimaryLayer, cfg.GIS.SupplementalLayer},
	}
}

// Report looks up the parcel identified by id. It never fails: remote errors
// are logged and the affected part of the report stays empty.
func (s *Service) Report(ctx context.Context, id string) *Report {
	logger := zerolog.Ctx(ctx).With().Str("parcel", id).Logger()

	rep := &Report{
		ID:                id,
		PrimaryLayer:      s.layers[0],
		SupplementalLayer: s.layers[1],
	}

	// both layers are independent; failures are recorded, not propagated
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.fetcher.First(gctx, rep.PrimaryLayer, id)
		if err != nil {
			if !errors.Is(err, gis.ErrNotFound) {
				rep.PrimaryErr = err
				logger.Warn().Err(err).Int("layer", rep.PrimaryLayer).Msg("Primary lookup failed")
			}
			return nil
		}
		rep.Primary = rec
		rep.Found = true
		return nil
	})
	g.Go(func() error {
		records, err := s.fetcher.All(gctx, rep.SupplementalLayer, id)
		if err != nil {
			rep.SupplementalErr = err
			logger.Warn().Err(err).Int("layer", rep.SupplementalLayer).Msg("Supplemental lookup failed")
			return nil
		}
		rep.Supplemental = records
		return nil
	})
	_ = g.Wait()

	if !rep.Found {
		logger.Debug().Msg("Parcel not found")
		return rep
	}

	s.locate(rep, logger)
	s.applyZoning(rep)

	logger.Debug().
		Str("zone", rep.ZoneCode).
		Float64("lot_area", rep.LotArea).
		Bool("params", rep.Params != nil).
		Int("supplemental", len(rep.Supplemental)).
		Msg("Parcel report ready")

	return rep
}

func (s *Service) locate(rep *Report, logger zerolog.Logger) {
	if !rep.Primary.Has(s.fields.X) || !rep.Primary.Has(s.fields.Y) {
		return
	}

	x, errX := rep.Primary.Float(s.fields.X)
	y, errY := rep.Primary.Float(s.fields.Y)
	if err := errors.Join(errX, errY); err != nil {
		metrics.Conversions.WithLabelValues("invalid").Inc()
		logger.Warn().Err(err).Msg("Coordinate conversion failed")
		return
	}

	pp := geo.ProjectedPoint{
		Easting:  x,
		Northing: y,
		Zone:     s.projection.Zone,
		Southern: s.projection.Southern,
	}
	pt := geo.ToGeographic(pp)
	if !pt.Valid() {
		metrics.Conversions.WithLabelValues("invalid").Inc()
		logger.Warn().
			Float64("easting", x).
			Float64("northing", y).
			Msg("Coordinate conversion produced an invalid point")
		return
	}

	metrics.Conversions.WithLabelValues("ok").Inc()
	rep.Projected = &pp
	rep.Location = &pt
}

func (s *Service) applyZoning(rep *Report) {
	rep.ZoneCode = strings.TrimSpace(rep.Primary.String(s.fields.Zoning))

	area, err := rep.Primary.Float(s.fields.LotArea)
	if err != nil {
		area = 0
	}
	rep.LotArea = area

	rule, ok := s.table.Lookup(rep.ZoneCode)
	if !ok {
		return
	}
	params, err := rule.Compute(area)
	if err != nil {
		return
	}

	rep.Rule = &rule
	rep.Params = &params
}
