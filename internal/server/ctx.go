package server

import (
	"context"
	"regexp"

	"github.com/woozymasta/lotinfo/internal/config"
	"github.com/woozymasta/lotinfo/internal/parcel"
	"github.com/woozymasta/lotinfo/internal/render"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Reporter builds parcel reports. *parcel.Service implements it.
type Reporter interface {
	Report(ctx context.Context, id string) *parcel.Report
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Parcels   Reporter
	Renderer  *render.Renderer
	Validator *validator.Validate
}

// parcelIDPattern is the alphabet accepted for fiscal indications,
// e.g. "53.081.003.000-5".
var parcelIDPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z ./-]*$`)

// NewServerContext wires the handler dependencies and registers the
// custom validation tags.
func NewServerContext(cfg *config.Config, parcels Reporter, renderer *render.Renderer) *ServerContext {
	v := validator.New()
	if err := v.RegisterValidation("parcelid", func(fl validator.FieldLevel) bool {
		return parcelIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register parcel id validation")
	}

	log.Debug().
		Str("gis", cfg.GIS.BaseURL).
		Int("primary_layer", cfg.GIS.PrimaryLayer).
		Int("supplemental_layer", cfg.GIS.SupplementalLayer).
		Int("zone", cfg.Projection.Zone).
		Bool("southern", cfg.Projection.Southern).
		Msg("Server context initialized")

	return &ServerContext{
		Config:    cfg,
		Parcels:   parcels,
		Renderer:  renderer,
		Validator: v,
	}
}
