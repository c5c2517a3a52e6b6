package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rtavares/movelaria-backend/api/responses"
	"github.com/rtavares/movelaria-backend/api/validators"
	"github.com/rtavares/movelaria-backend/internal/ledger"
	"github.com/rtavares/movelaria-backend/pkg/enums"
	pkgerrors "github.com/rtavares/movelaria-backend/pkg/errors"
	"github.com/rtavares/movelaria-backend/pkg/logger"
)

// LedgerList serves the bookkeeping entries page.
func LedgerList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := buildLedgerFilters(r)
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

func buildLedgerFilters(r *http.Request) (ledger.ListFilters, error) {
	var filters ledger.ListFilters

	orderID, err := validators.ParseQueryUUID(r, "id_ordem")
	if err != nil {
		return filters, err
	}
	filters.OrderID = orderID

	if raw := strings.TrimSpace(r.URL.Query().Get("tipo")); raw != "" {
		kind, err := enums.ParseLedgerEntryKind(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown entry kind").
				WithDetails(map[string]any{"field": "tipo"})
		}
		filters.Kind = &kind
	}

	from, err := parseTimeParam(r, "de")
	if err != nil {
		return filters, err
	}
	filters.From = from

	to, err := parseTimeParam(r, "ate")
	if err != nil {
		return filters, err
	}
	filters.To = to

	return filters, nil
}

func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "timestamp must be RFC 3339").
			WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
