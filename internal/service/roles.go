// Package service holds the engine pieces the HTTP layer composes: role
// resolution, the filter pipeline, export serialization and the database
// datasource.
package service

import (
	"strings"

	"github.com/cassiap/servers/internal/dataset"
)

// Role is a semantic meaning the resolver tries to locate among a
// dataset's columns.
type Role string

const (
	RoleTeam        Role = "team"
	RoleSystem      Role = "system"
	RoleDescription Role = "description"
	RoleHostname    Role = "hostname"
	RoleEnvironment Role = "environment"
	RoleStatus      Role = "status"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleTeam, RoleSystem, RoleDescription, RoleHostname, RoleEnvironment, RoleStatus}

// roleAliases maps each role to its ordered candidate canonical keys.
// Order is the tie-break when a dataset contains several alias spellings
// for the same role, so it must not be reordered.
var roleAliases = map[Role][]string{
	RoleTeam:        {"equipe", "team", "squad", "equipe_responsavel", "equipe_responsavel_pelo_servidor"},
	RoleSystem:      {"sistema", "application", "app", "sistema_servico_produto", "sistema_aplicacao"},
	RoleDescription: {"descricao", "description", "desc", "descricao_do_ic"},
	RoleHostname:    {"hostname", "host", "servidor", "server", "fqdn", "nome"},
	RoleEnvironment: {"ambiente", "environment", "env", "entorno"},
	RoleStatus:      {"status", "situacao", "situacao_", "state", "situacao__", "situacao__status", "situacao_status"},
}

// roleDisplayNames are the user-facing names used in the missing-role
// warning, matching what operators see in their spreadsheets.
var roleDisplayNames = map[Role]string{
	RoleTeam:        "Equipe",
	RoleSystem:      "Sistema",
	RoleDescription: "Descrição",
	RoleHostname:    "Hostname/Nome",
	RoleEnvironment: "Ambiente",
	RoleStatus:      "Status",
}

// essentialRoles are the roles whose absence is surfaced to the operator.
// Environment and status just degrade their optional features silently.
var essentialRoles = []Role{RoleTeam, RoleSystem, RoleDescription, RoleHostname}

// Assignment maps each role to the canonical key that backs it, or "" when
// no alias matched. An unassigned role means "feature unavailable for this
// dataset", never an error.
type Assignment map[Role]string

// ResolveRoles picks, for each role, the first alias (in declared order)
// present among the dataset's canonical keys.
func ResolveRoles(ds *dataset.Dataset) Assignment {
	present := make(map[string]bool, len(ds.Columns))
	for _, c := range ds.Columns {
		present[c.Key] = true
	}

	assignment := make(Assignment, len(Roles))
	for _, role := range Roles {
		assignment[role] = ""
		for _, alias := range roleAliases[role] {
			if present[alias] {
				assignment[role] = alias
				break
			}
		}
	}
	return assignment
}

// Key returns the canonical key backing a role, or "" if unassigned.
func (a Assignment) Key(role Role) string { return a[role] }

// Assigned reports whether a role resolved to a column.
func (a Assignment) Assigned(role Role) bool { return a[role] != "" }

// MissingEssential returns the display names of unresolved essential
// roles, in declared order, for the non-fatal load warning.
func (a Assignment) MissingEssential() []string {
	var missing []string
	for _, role := range essentialRoles {
		if !a.Assigned(role) {
			missing = append(missing, roleDisplayNames[role])
		}
	}
	return missing
}

// MissingRolesWarning formats the warning surfaced when essential roles
// are unresolved, or "" when none are missing.
func (a Assignment) MissingRolesWarning() string {
	missing := a.MissingEssential()
	if len(missing) == 0 {
		return ""
	}
	return "essential columns not found: " + strings.Join(missing, ", ") +
		". Recognized headers include 'Equipe Responsável', 'Sistema/Serviço/Produto', 'Descrição do IC', 'Nome' (or 'Hostname')."
}

// IdentifierKey returns the key used to identify a single record in the
// detail view: the hostname column when assigned, else description.
func (a Assignment) IdentifierKey() string {
	if a.Assigned(RoleHostname) {
		return a[RoleHostname]
	}
	return a[RoleDescription]
}

// SuggestColumns returns canonical keys that look like plausible backing
// columns for an unresolved role, by substring match against its aliases.
// Suggestions are display hints only; resolution never uses them.
func SuggestColumns(role Role, keys []string) []string {
	var suggestions []string
	for _, key := range keys {
		for _, alias := range roleAliases[role] {
			if strings.Contains(key, alias) || strings.Contains(alias, key) {
				suggestions = append(suggestions, key)
				break
			}
		}
	}
	return suggestions
}
