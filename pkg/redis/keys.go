package redis

import "strings"

const namespace = "ws"

// Every key lives under "ws:" so the storefront can share a Redis database.
func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// CartKey holds the serialized cart of one cart session.
func (c *Client) CartKey(sessionID string) string { return key("cart", sessionID) }

// AdminSessionKey marks an issued admin token id as live.
func (c *Client) AdminSessionKey(tokenID string) string {
	return key("session", "admin", tokenID)
}

// AdminSessionsKey indexes the live token ids of one admin user.
func (c *Client) AdminSessionsKey(username string) string {
	return key("session", "admin_user", username)
}

func (c *Client) RateLimitKey(scope string) string { return key("rate_limit", scope) }

func (c *Client) LockKey(name string) string { return key("lock", name) }
