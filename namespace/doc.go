// Package namespace resolves Battle.net regions, namespaces and API base URLs.
//
// Game data is partitioned by namespace. A namespace combines a scope
// (dynamic, static or profile), an optional classic marker and a region:
//
//	namespace.Resolve(namespace.ScopeDynamic, namespace.RegionEU, false) // "dynamic-eu"
//	namespace.Resolve(namespace.ScopeStatic, namespace.RegionUS, true)   // "static-classic-us"
//	namespace.Resolve(namespace.ScopeProfile, namespace.RegionKR, true)  // "profile-kr"
//
// Unknown scopes fail with a *ConfigurationError.
package namespace
