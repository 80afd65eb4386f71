package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/hazyhaar/termfix/pkg/history"
	"github.com/hazyhaar/termfix/pkg/kit"
	"github.com/hazyhaar/termfix/pkg/terms"
)

// Shared request/response types used by both HTTP and MCP transports.

type fixTermsReq struct {
	Text string `json:"text"`
}

type addTermReq struct {
	Correct       string   `json:"correct" validate:"required,max=200"`
	WrongVariants []string `json:"wrong_variants" validate:"max=100,dive,max=200"`
}

type historyReq struct {
	Canonical string `json:"canonical" validate:"max=200"`
	Limit     int    `json:"limit" validate:"gte=0,lte=500"`
}

type termsResponse struct {
	Path     string            `json:"path"`
	Digest   string            `json:"digest,omitempty"`
	Variants int               `json:"variants"`
	Terms    []terms.TermEntry `json:"terms"`
}

type historyResponse struct {
	Events []history.Event `json:"events"`
}

var errHistoryDisabled = errors.New("history is not enabled")

// Endpoints are the actions exposed by every transport.
type Endpoints struct {
	FixTerms  kit.Endpoint
	AddTerm   kit.Endpoint
	ListTerms kit.Endpoint
	History   kit.Endpoint

	norm *terms.Normalizer
}

// NewEndpoints wires the actions to norm. hist may be nil.
func NewEndpoints(norm *terms.Normalizer, hist *history.DB, logger *slog.Logger) *Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
	}
	return &Endpoints{
		FixTerms:  wrap("fix_terms", fixTermsEndpoint(norm)),
		AddTerm:   wrap("add_term", addTermEndpoint(norm, v)),
		ListTerms: wrap("list_terms", listTermsEndpoint(norm)),
		History:   wrap("term_history", historyEndpoint(hist, v)),
		norm:      norm,
	}
}

// fixTermsEndpoint never fails: any text, of any size, comes back normalized
// or unchanged.
func fixTermsEndpoint(norm *terms.Normalizer) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*fixTermsReq)
		return norm.FixTerms(req.Text), nil
	}
}

func addTermEndpoint(norm *terms.Normalizer, v *validator.Validate) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*addTermReq)
		if err := v.Struct(req); err != nil {
			return nil, err
		}
		return norm.AddTerm(req.Correct, req.WrongVariants)
	}
}

func listTermsEndpoint(norm *terms.Normalizer) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		d, err := norm.Terms()
		if err != nil {
			return nil, err
		}
		return termsResponse{
			Path:     norm.Path(),
			Digest:   d.Digest(),
			Variants: d.VariantCount(),
			Terms:    d.Entries(),
		}, nil
	}
}

func historyEndpoint(hist *history.DB, v *validator.Validate) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		if hist == nil {
			return nil, errHistoryDisabled
		}
		req := request.(*historyReq)
		if err := v.Struct(req); err != nil {
			return nil, err
		}
		events, err := hist.List(req.Canonical, req.Limit)
		if err != nil {
			return nil, err
		}
		return historyResponse{Events: events}, nil
	}
}
