// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/woozymasta/lotinfo/internal/geo"
	"github.com/woozymasta/lotinfo/internal/render"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// FormField is the name of the parcel identifier form field.
const FormField = "indicacao_fiscal"

const invalidParcelMessage = "Indicação fiscal inválida: use apenas letras, números, espaços e os caracteres . / - (máx. 64)."

type lookupForm struct {
	ParcelID string `validate:"required,max=64,parcelid"`
}

// validateParcelID trims id and checks it against the accepted alphabet.
func (s *ServerContext) validateParcelID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if err := s.Validator.Struct(lookupForm{ParcelID: id}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return id, errors.New(verrs[0].Tag())
		}
		return id, err
	}
	return id, nil
}

// HandleIndex serves the lookup form (GET) and the parcel report (POST).
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.renderPage(w, r, http.StatusOK, render.Input{})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, r, http.StatusBadRequest, render.Input{Invalid: invalidParcelMessage})
			return
		}

		id, err := s.validateParcelID(r.PostFormValue(FormField))
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().
				Str("input", id).
				Str("rule", err.Error()).
				Msg("Rejected parcel id")
			s.renderPage(w, r, http.StatusBadRequest, render.Input{Query: id, Invalid: invalidParcelMessage})
			return
		}

		rep := s.Parcels.Report(r.Context(), id)
		s.renderPage(w, r, http.StatusOK, render.Input{Query: id, Report: rep})

	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *ServerContext) renderPage(w http.ResponseWriter, r *http.Request, status int, in render.Input) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := s.Renderer.Page(w, in); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render page")
	}
}

// HandleGeoJSON serves the parcel position as a GeoJSON feature collection
// with the primary layer attributes as properties.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	id, err := s.validateParcelID(r.URL.Query().Get("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid parcel id")
		return
	}

	rep := s.Parcels.Report(r.Context(), id)
	if !rep.Found {
		writeJSONError(w, http.StatusNotFound, "parcel not found")
		return
	}
	if rep.Location == nil {
		writeJSONError(w, http.StatusNotFound, "parcel has no coordinates")
		return
	}

	props := rep.Primary.Map()
	if rep.Projected != nil {
		props["utm_easting"] = rep.Projected.Easting
		props["utm_northing"] = rep.Projected.Northing
		props["utm_zone"] = rep.Projected.Zone
		props["utm_southern"] = rep.Projected.Southern
	}
	if rep.Params != nil {
		props["max_built_area"] = rep.Params.MaxBuiltArea
		props["max_occupied_area"] = rep.Params.MaxOccupiedArea
		props["min_permeable_area"] = rep.Params.MinPermeableArea
	}

	w.Header().Set("Content-Type", "application/geo+json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(geo.PointCollection(*rep.Location, props))
}

// HandleFavicon serves the site icon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Renderer.Favicon())
}

// HandleHealth reports liveness. It does not probe the remote service.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
