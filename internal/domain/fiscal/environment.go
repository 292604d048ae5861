package fiscal

import "strings"

// Environment is the SEFAZ environment an invoice is issued in
type Environment string

const (
	EnvironmentHomologation Environment = "homologacao"
	EnvironmentProduction   Environment = "producao"
)

// ParseEnvironment accepts the Portuguese and English spellings
func ParseEnvironment(s string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "homologacao", "homologação", "homologation", "sandbox", "2":
		return EnvironmentHomologation, true
	case "producao", "produção", "production", "1":
		return EnvironmentProduction, true
	}
	return "", false
}

// IsValid checks the environment
func (e Environment) IsValid() bool {
	return e == EnvironmentHomologation || e == EnvironmentProduction
}

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// Suffix is the short form used inside invoice references
func (e Environment) Suffix() string {
	if e == EnvironmentProduction {
		return "p"
	}
	return "h"
}
