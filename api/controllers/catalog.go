package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/api/validators"
	"github.com/rtavares/movelaria-backend/internal/catalog"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
	"github.com/rtavares/movelaria-backend/pkg/pagination"
)

// CatalogList serves the filtered, cursor-paginated catalog page.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := buildCatalogFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CatalogDetail serves one variation with its resolved price.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variationID, err := validators.PathUUID(chi.URLParam(r, "variationId"), "variationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetVariation(r.Context(), variationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func buildCatalogFilters(r *http.Request) (catalog.ListFilters, error) {
	filters := catalog.ListFilters{
		Name: strings.TrimSpace(r.URL.Query().Get("nome")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("categorias")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id").
					WithDetails(map[string]any{"field": "categorias"})
			}
			filters.CategoryIDs = append(filters.CategoryIDs, id)
		}
	}

	outlet, err := validators.ParseQueryBool(r, "outlet", false)
	if err != nil {
		return filters, err
	}
	filters.OutletOnly = outlet

	// atributos=cor:nogueira,estilo:rustico
	if raw := strings.TrimSpace(r.URL.Query().Get("atributos")); raw != "" {
		filters.Attributes = map[string]string{}
		for _, part := range strings.Split(raw, ",") {
			name, value, found := strings.Cut(part, ":")
			if !found || strings.TrimSpace(name) == "" {
				return filters, pkgerrors.New(pkgerrors.CodeValidation, "attribute filter must be nome:valor").
					WithDetails(map[string]any{"field": "atributos"})
			}
			filters.Attributes[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	switch strings.TrimSpace(r.URL.Query().Get("situacao_estoque")) {
	case "":
	case "em_estoque":
		yes := true
		filters.InStockOnly = &yes
	case "esgotado":
		no := false
		filters.InStockOnly = &no
	default:
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown stock filter").
			WithDetails(map[string]any{"field": "situacao_estoque"})
	}

	return filters, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
