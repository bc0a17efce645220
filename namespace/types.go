package namespace

import (
	"fmt"
	"strings"
)

// Region identifies a Battle.net API region
type Region string

const (
	// RegionUS is the Americas region
	RegionUS Region = "us"
	// RegionEU is the European region
	RegionEU Region = "eu"
	// RegionKR is the Korean region
	RegionKR Region = "kr"
	// RegionTW is the Taiwanese region
	RegionTW Region = "tw"
)

// Regions lists every supported region
var Regions = []Region{RegionUS, RegionEU, RegionKR, RegionTW}

// Valid reports whether r is one of the supported regions
func (r Region) Valid() bool {
	switch r {
	case RegionUS, RegionEU, RegionKR, RegionTW:
		return true
	default:
		return false
	}
}

// ParseRegion converts a case-insensitive region name into a Region
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", &ConfigurationError{Field: "region", Value: s, Reason: "must be one of us, eu, kr, tw"}
	}
	return r, nil
}

// Scope is the dataset tag used to build a namespace
type Scope string

const (
	// ScopeNone means no namespace is attached to the request
	ScopeNone Scope = ""
	// ScopeDynamic selects data that changes frequently (auctions, realms)
	ScopeDynamic Scope = "dynamic"
	// ScopeStatic selects data that only changes with patches
	ScopeStatic Scope = "static"
	// ScopeProfile selects character and account data
	ScopeProfile Scope = "profile"
)

// APIScope is the API category that determines the base URL of a request
type APIScope string

const (
	// APIGameData is the game data API
	APIGameData APIScope = "game-data"
	// APICommunity is the legacy community API
	APICommunity APIScope = "community"
	// APIProfile is the character profile API
	APIProfile APIScope = "profile"
	// APIMedia is the game data media API
	APIMedia APIScope = "media"
	// APIUserProfile is the account profile API
	APIUserProfile APIScope = "user-profile"
	// APISearch is the game data search API
	APISearch APIScope = "search"
)

// Path returns the URL path prefix of the scope
func (s APIScope) Path() (string, bool) {
	switch s {
	case APIGameData:
		return "/data/wow", true
	case APICommunity:
		return "/wow", true
	case APIProfile:
		return "/profile/wow", true
	case APIMedia:
		return "/data/wow/media", true
	case APIUserProfile:
		return "/profile/user/wow", true
	case APISearch:
		return "/data/wow/search", true
	default:
		return "", false
	}
}

// String returns the scope name
func (s APIScope) String() string {
	return string(s)
}

// Host builds the regional host name for a base domain such as api.blizzard.com
func Host(region Region, domain string) string {
	return fmt.Sprintf("%s.%s", region, domain)
}
