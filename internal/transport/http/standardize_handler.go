// Package http exposes the standardization engine over a small JSON API.
// The engine itself stays pure; this package only translates between wire
// payloads and the in-memory dataset.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"factorstd/internal/config"
	"factorstd/internal/dataset"
	apierrors "factorstd/internal/errors"
	"factorstd/internal/infrastructure"
	"factorstd/internal/standardize"
)

// StandardizeHandler handles standardization requests
type StandardizeHandler struct {
	engine   *standardize.Engine
	logger   *slog.Logger
	validate *validator.Validate
	defaults config.StandardizeConfig
}

// NewStandardizeHandler creates a handler around the given engine
func NewStandardizeHandler(engine *standardize.Engine, logger *slog.Logger, defaults config.StandardizeConfig) *StandardizeHandler {
	return &StandardizeHandler{
		engine:   engine,
		logger:   logger.With(slog.String("component", "standardize_handler")),
		validate: validator.New(),
		defaults: defaults,
	}
}

// ColumnPayload is the wire form of one table column. Numeric cells use
// JSON null for missing values.
type ColumnPayload struct {
	Name    string     `json:"name" validate:"required"`
	Kind    string     `json:"kind" validate:"required,oneof=numeric string"`
	Values  []*float64 `json:"values,omitempty"`
	Strings []string   `json:"strings,omitempty"`
}

// SpecPayload is the wire form of one column spec. Outlier uses the
// configuration syntax, e.g. "percentile(5)".
type SpecPayload struct {
	Column  string `json:"column" validate:"required"`
	Method  string `json:"method,omitempty"`
	Missing string `json:"missing,omitempty"`
	Outlier string `json:"outlier,omitempty"`
	Replace bool   `json:"replace,omitempty"`
	Output  string `json:"output,omitempty"`
}

// StandardizeRequest is the request body for POST /api/standardize
type StandardizeRequest struct {
	Columns []ColumnPayload `json:"columns" validate:"required,min=1,dive"`
	Specs   []SpecPayload   `json:"specs" validate:"required,min=1,dive"`
	GroupBy []string        `json:"group_by,omitempty"`
}

// StandardizeResponse is the response body for POST /api/standardize
type StandardizeResponse struct {
	Columns  []ColumnPayload       `json:"columns"`
	Warnings []standardize.Warning `json:"warnings"`
}

// Standardize handles POST /api/standardize
func (h *StandardizeHandler) Standardize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req StandardizeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, apierrors.NewConfigError("body", "malformed request body: %v", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.renderError(w, r, apierrors.NewConfigError("body", "request validation failed: %v", err))
		return
	}

	table, err := decodeTable(req.Columns)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	cfg, err := h.decodeConfig(req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	out, warnings, err := h.engine.Standardize(ctx, table, cfg)
	if err != nil {
		h.logger.ErrorContext(ctx, "standardization failed", "error", err)
		h.renderError(w, r, err)
		return
	}

	observeStandardize("ok", time.Since(start))
	if warnings == nil {
		warnings = []standardize.Warning{}
	}
	render.JSON(w, r, &StandardizeResponse{
		Columns:  encodeTable(out),
		Warnings: warnings,
	})
}

func (h *StandardizeHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	observeStandardize("error", 0)
	problem := apierrors.ToProblem(err, infrastructure.GetTraceID(r.Context()))
	apierrors.WriteProblem(w, problem)
}

// decodeConfig converts wire specs into an engine config, filling unset
// fields from the service defaults
func (h *StandardizeHandler) decodeConfig(req StandardizeRequest) (standardize.Config, error) {
	cfg := standardize.Config{GroupBy: req.GroupBy}
	for _, p := range req.Specs {
		method := p.Method
		if method == "" {
			method = h.defaults.DefaultMethod
		}
		missing := p.Missing
		if missing == "" {
			missing = h.defaults.DefaultMissing
		}
		outlierSpec := p.Outlier
		if outlierSpec == "" {
			outlierSpec = h.defaults.DefaultOutlier
		}
		outlier, err := standardize.ParseOutlierPolicy(outlierSpec)
		if err != nil {
			return standardize.Config{}, apierrors.NewConfigError("outlier", "%v", err)
		}

		cfg.Specs = append(cfg.Specs, standardize.ColumnSpec{
			Column:  p.Column,
			Method:  standardize.Method(method),
			Missing: standardize.MissingPolicy(missing),
			Outlier: outlier,
			Replace: p.Replace,
			Output:  p.Output,
		})
	}
	return cfg, nil
}

func decodeTable(columns []ColumnPayload) (*dataset.Table, error) {
	table := dataset.New()
	for _, c := range columns {
		switch c.Kind {
		case "numeric":
			values := make([]float64, len(c.Values))
			for i, v := range c.Values {
				if v == nil {
					values[i] = dataset.Null()
				} else {
					values[i] = *v
				}
			}
			if err := table.AddNumeric(c.Name, values); err != nil {
				return nil, apierrors.NewConfigError("columns", "%v", err)
			}
		default:
			if err := table.AddString(c.Name, c.Strings); err != nil {
				return nil, apierrors.NewConfigError("columns", "%v", err)
			}
		}
	}
	return table, nil
}

func encodeTable(t *dataset.Table) []ColumnPayload {
	out := make([]ColumnPayload, 0, t.NumColumns())
	for _, c := range t.Columns() {
		payload := ColumnPayload{Name: c.Name}
		if c.Kind == dataset.Numeric {
			payload.Kind = "numeric"
			payload.Values = make([]*float64, len(c.Floats))
			for i := range c.Floats {
				if !dataset.IsNull(c.Floats[i]) {
					v := c.Floats[i]
					payload.Values[i] = &v
				}
			}
		} else {
			payload.Kind = "string"
			payload.Strings = c.Strings
		}
		out = append(out, payload)
	}
	return out
}
