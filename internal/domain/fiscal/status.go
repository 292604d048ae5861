package fiscal

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the closed set of local fiscal document statuses. The same
// values are enforced by the fiscal_documents status CHECK constraint.
type Status string

const (
	StatusPending    Status = "pendente"
	StatusAuthorized Status = "autorizada"
	StatusRejected   Status = "rejeitada"
	StatusDenied     Status = "denegada"
	StatusCancelled  Status = "cancelada"
)

// AllStatuses returns every status in a stable order
func AllStatuses() []Status {
	return []Status{StatusAuthorized, StatusRejected, StatusDenied, StatusCancelled, StatusPending}
}

// IsValid checks if the status is part of the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAuthorized, StatusRejected, StatusDenied, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no local command can move the status further
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusDenied, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks local command transitions. Remote reports are
// applied regardless, since the fiscal authority overrides local state.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusAuthorized || target == StatusRejected ||
			target == StatusDenied || target == StatusCancelled
	case StatusAuthorized:
		return target == StatusCancelled
	}
	return false
}

// remoteStatuses maps folded vendor labels to local statuses
var remoteStatuses = map[string]Status{
	"autorizado":              StatusAuthorized,
	"autorizada":              StatusAuthorized,
	"authorized":              StatusAuthorized,
	"aprovado":                StatusAuthorized,
	"erro_cancelamento":       StatusAuthorized,
	"cancelamento_rejeitado":  StatusAuthorized,
	"rejeitado":               StatusRejected,
	"rejeitada":               StatusRejected,
	"rejected":                StatusRejected,
	"erro_autorizacao":        StatusRejected,
	"erro":                    StatusRejected,
	"denegado":                StatusDenied,
	"denegada":                StatusDenied,
	"denied":                  StatusDenied,
	"cancelado":               StatusCancelled,
	"cancelada":               StatusCancelled,
	"cancelled":               StatusCancelled,
	"canceled":                StatusCancelled,
	"pendente":                StatusPending,
	"pending":                 StatusPending,
	"processando":             StatusPending,
	"processando_autorizacao": StatusPending,
	"em_processamento":        StatusPending,
}

// stems catch inflections the table does not list ("autorizacao", "cancelamento_homologado")
var statusStems = []struct {
	stem   string
	status Status
}{
	{"autoriz", StatusAuthorized},
	{"deneg", StatusDenied},
	{"cancel", StatusCancelled},
}

// failureTokens mark a cancellation that did not go through
var failureTokens = []string{"erro", "rejeit", "negad", "falh", "pendente", "processa"}

func containsAny(s string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// NormalizeStatus maps a vendor status string to a local Status. Matching
// ignores case and accents. Unrecognized input maps to StatusPending.
func NormalizeStatus(remote string) Status {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(shared.Fold(remote))
	if key == "" {
		return StatusPending
	}
	if s, ok := remoteStatuses[key]; ok {
		return s
	}
	switch {
	case strings.Contains(key, "cancel") && containsAny(key, failureTokens...):
		// a refused or unfinished cancellation leaves the invoice authorized
		return StatusAuthorized
	case containsAny(key, "erro", "rejeit"):
		return StatusRejected
	case containsAny(key, "pendente", "processa"):
		return StatusPending
	}
	for _, st := range statusStems {
		if strings.HasPrefix(key, st.stem) {
			return st.status
		}
	}
	return StatusPending
}

// legacyLabels are the status spellings seen in databases created before the
// status CHECK constraint was derived from Status.
var legacyLabels = []string{"autorizada", "rejeitada", "denegada", "cancelada", "pendente", "processando"}

// LegacyStatusCandidates lists the spellings to try, in order, against a
// store whose status constraint is not known: the normalized value, its
// capitalized form, then every legacy label in lower and title case.
func LegacyStatusCandidates(normalized Status) []string {
	title := cases.Title(language.BrazilianPortuguese)
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(string(normalized))
	add(title.String(string(normalized)))
	for _, label := range legacyLabels {
		add(label)
		add(title.String(label))
	}
	return out
}

// StoredSpellings lists every value LegacyStatusCandidates can leave in the
// status column that reads back as s. Queries filtering by status match on
// all of them.
func StoredSpellings(s Status) []string {
	var out []string
	for _, candidate := range LegacyStatusCandidates(s) {
		if NormalizeStatus(candidate) == s {
			out = append(out, candidate)
		}
	}
	return out
}
