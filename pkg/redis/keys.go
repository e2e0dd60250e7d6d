package redis

import "strings"

// Every key the service writes lives under "vt:".
const keyNamespace = "vt"

// IdempotencyKey names the stored response for one Idempotency-Key value.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key("idempotency", scope, id)
}

// AccessSessionKey names the marker the auth service writes for a live access
// token. Its absence means the session was revoked.
func (c *Client) AccessSessionKey(accessID string) string {
	return key("session", "access", accessID)
}

// OrderLockKey scopes the shipment action lock to one order of one store.
func (c *Client) OrderLockKey(storeID, orderID string) string {
	return key("lock", "order", storeID, orderID)
}

func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}
