package directory

import (
	"context"
	"fmt"

	ldap "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
)

// UserInfo is the directory's view of an account.
type UserInfo struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// Client queries the external directory over LDAP. Every operation is
// best-effort: the directory is an optional enhancement, never a hard
// dependency, so failures are logged and absorbed.
type Client struct {
	cfg    config.DirectoryConfig
	logger *zap.Logger

	// dial is swapped out in tests
	dial func() (conn, error)
}

// conn is the slice of *ldap.Conn the client uses.
type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// NewClient builds a directory client. An incomplete configuration yields a
// client whose operations are no-ops.
func NewClient(cfg config.DirectoryConfig, logger *zap.Logger) *Client {
	c := &Client{cfg: cfg, logger: logger}
	c.dial = func() (conn, error) {
		ldapConn, err := ldap.DialURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		ldapConn.SetTimeout(cfg.Timeout())
		return ldapConn, nil
	}
	return c
}

// Configured reports whether all four connection parameters are present.
func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.BindDN != "" && c.cfg.BindPassword != "" && c.cfg.SearchBase != ""
}

// LookupByAccountName resolves a single account by exact sAMAccountName match.
// Returns nil on zero matches or any connection/bind/search failure.
func (c *Client) LookupByAccountName(ctx context.Context, name string) *UserInfo {
	if !c.Configured() {
		return nil
	}

	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(name))
	entries, err := c.search(ctx, filter, 1)
	if err != nil {
		c.logger.Warn("directory lookup failed", zap.String("account", name), zap.Error(err))
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}

// SearchUsers matches the query as a substring against display name and
// account name, capped at limit. An empty query matches all entries. Failures
// return an empty list.
func (c *Client) SearchUsers(ctx context.Context, query string, limit int) []UserInfo {
	if !c.Configured() {
		return []UserInfo{}
	}
	if limit <= 0 {
		limit = 25
	}

	pattern := "*"
	if query != "" {
		pattern = "*" + ldap.EscapeFilter(query) + "*"
	}
	filter := fmt.Sprintf("(&(objectClass=user)(|(displayName=%s)(sAMAccountName=%s)))", pattern, pattern)

	entries, err := c.search(ctx, filter, limit)
	if err != nil {
		c.logger.Warn("directory search failed", zap.String("query", query), zap.Error(err))
		return []UserInfo{}
	}
	return entries
}

func (c *Client) search(ctx context.Context, filter string, sizeLimit int) ([]UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ldapConn, err := c.dial()
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer ldapConn.Close()

	if err := ldapConn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}

	req := ldap.NewSearchRequest(
		c.cfg.SearchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		sizeLimit,
		c.cfg.TimeoutSeconds,
		false,
		filter,
		[]string{"sAMAccountName", "displayName", "mail", "userPrincipalName"},
		nil,
	)

	result, err := ldapConn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	entries := make([]UserInfo, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, entryToUserInfo(entry))
	}
	return entries, nil
}

func entryToUserInfo(entry *ldap.Entry) UserInfo {
	username := entry.GetAttributeValue("sAMAccountName")
	principal := entry.GetAttributeValue("userPrincipalName")

	displayName := entry.GetAttributeValue("displayName")
	if displayName == "" {
		displayName = principal
	}
	if displayName == "" {
		displayName = username
	}

	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = principal
	}

	return UserInfo{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
	}
}
