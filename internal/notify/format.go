package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Title renders a short human-readable heading for an event.
func Title(ev domain.Event) string {
	switch ev.Type {
	case domain.EventBetPlaced:
		return "Bet placed"
	case domain.EventCatalogRefreshed:
		return "Catalog refreshed"
	case domain.EventCatalogRefreshFailed:
		return "Catalog refresh failed"
	case domain.EventLedgerExported:
		return "Ledger exported"
	default:
		return string(ev.Type)
	}
}

// Body renders the event subject and its detail as sorted key=value lines.
func Body(ev domain.Event) string {
	var b strings.Builder
	if ev.Subject != "" {
		b.WriteString(ev.Subject)
		b.WriteByte('\n')
	}
	keys := make([]string, 0, len(ev.Detail))
	for k := range ev.Detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v\n", k, ev.Detail[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
