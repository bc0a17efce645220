// Package oauth implements the OAuth client-credentials flow used to
// authenticate Battle.net API calls.
//
// A Manager holds one access token for the whole process. Token returns
// it while it has more than ExpiryMargin left and otherwise refreshes it.
// Refreshes are single-flight: callers racing on an expiring token wait
// for one exchange with the token endpoint instead of each starting their
// own. The exchange itself goes through golang.org/x/oauth2/clientcredentials
// and runs detached from the caller that started it, so one caller giving
// up does not fail the rest.
//
//	m, err := oauth.NewManager(id, secret, oauth.TokenURL("eu", "battle.net"), logger)
//	tok, err := m.Token(ctx)
//	req.Header.Set("Authorization", "Bearer "+tok.Value)
package oauth
