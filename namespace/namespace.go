package namespace

import "fmt"

// Resolve maps a scope, region and classic flag to a namespace string.
// The classic flag has no effect on the profile scope.
func Resolve(scope Scope, region Region, classic bool) (string, error) {
	switch scope {
	case ScopeDynamic, ScopeStatic:
		if classic {
			return fmt.Sprintf("%s-classic-%s", scope, region), nil
		}
		return fmt.Sprintf("%s-%s", scope, region), nil
	case ScopeProfile:
		return fmt.Sprintf("%s-%s", scope, region), nil
	default:
		return "", &ConfigurationError{Field: "namespace", Value: string(scope), Reason: "unknown namespace scope"}
	}
}

// BaseURL returns the base URL of an API scope for a region, e.g.
// https://eu.api.blizzard.com/data/wow for APIGameData.
func BaseURL(scope APIScope, region Region, domain string) (string, error) {
	p, ok := scope.Path()
	if !ok {
		return "", &ConfigurationError{Field: "scope", Value: string(scope), Reason: "unknown API scope"}
	}
	return "https://" + Host(region, domain) + p, nil
}
