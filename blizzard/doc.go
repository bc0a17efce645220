// Package blizzard executes requests against the Battle.net game data APIs.
//
// A Client turns a URL template and RequestOptions into an authenticated
// GET request. Along the way it:
//
//   - fills the {region} placeholder and the locale and namespace parameters
//   - serves eligible requests from the response cache
//   - attaches a bearer token from the shared token manager
//   - classifies the response (200, 304, anything else)
//   - writes successful bodies back to the cache and decodes them
//
// # Usage
//
//	client, err := blizzard.NewClient(blizzard.Config{
//		ClientID:     id,
//		ClientSecret: secret,
//		Region:       namespace.RegionEU,
//		Locale:       "en_GB",
//		CacheEnabled: true,
//	}, logger, blizzard.WithCache(store))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	u, _ := client.URL(namespace.APIGameData, "/realm/index")
//	payload, err := client.Get(ctx, u, blizzard.RequestOptions{Namespace: namespace.ScopeDynamic})
//	realms := payload.(gjson.Result).Get("realms.#.name")
//
// # Cache policy
//
// The cache is only read and written in regular mode (Get, GetInto) when
// IgnoreCache is false and Since is zero. Conditional requests and
// extended mode always reach the server.
//
// # Error Handling
//
// Failures are reported as *ConfigurationError, *AuthError, *APIError,
// *TransportError or *DecodeError. Nothing is retried; callers that need
// retries or deadlines wrap calls themselves:
//
//	var apiErr *blizzard.APIError
//	if errors.As(err, &apiErr) && apiErr.IsRetryable() {
//		// back off and try again
//	}
package blizzard
