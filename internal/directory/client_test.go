package directory

import (
	"context"
	"errors"
	"testing"

	ldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
)

type fakeConn struct {
	bindErr   error
	searchErr error
	entries   []*ldap.Entry
	lastReq   *ldap.SearchRequest
	closed    bool
}

func (c *fakeConn) Bind(_, _ string) error { return c.bindErr }

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.lastReq = req
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	return &ldap.SearchResult{Entries: c.entries}, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func entry(attrs map[string]string) *ldap.Entry {
	e := &ldap.Entry{DN: "cn=test"}
	for name, value := range attrs {
		e.Attributes = append(e.Attributes, &ldap.EntryAttribute{Name: name, Values: []string{value}})
	}
	return e
}

func configuredClient(c conn, dialErr error) (*Client, *int) {
	client := NewClient(config.DirectoryConfig{
		URL:            "ldap://directory.corp.example",
		BindDN:         "cn=svc,dc=corp",
		BindPassword:   "secret",
		SearchBase:     "dc=corp,dc=example",
		TimeoutSeconds: 2,
	}, zap.NewNop())
	dials := 0
	client.dial = func() (conn, error) {
		dials++
		if dialErr != nil {
			return nil, dialErr
		}
		return c, nil
	}
	return client, &dials
}

func TestUnconfiguredClientSkipsNetwork(t *testing.T) {
	client := NewClient(config.DirectoryConfig{URL: "ldap://host"}, zap.NewNop())
	dials := 0
	client.dial = func() (conn, error) {
		dials++
		return nil, errors.New("should not dial")
	}

	assert.False(t, client.Configured())
	assert.Nil(t, client.LookupByAccountName(context.Background(), "jdoe"))
	assert.Empty(t, client.SearchUsers(context.Background(), "j", 10))
	assert.Equal(t, 0, dials)
}

func TestLookupMapsAttributes(t *testing.T) {
	fc := &fakeConn{entries: []*ldap.Entry{entry(map[string]string{
		"sAMAccountName":    "jdoe",
		"displayName":       "Jane Doe",
		"mail":              "jane@corp.example",
		"userPrincipalName": "jdoe@corp.example",
	})}}
	client, _ := configuredClient(fc, nil)

	info := client.LookupByAccountName(context.Background(), "jdoe")
	require.NotNil(t, info)
	assert.Equal(t, "jdoe", info.Username)
	assert.Equal(t, "Jane Doe", info.DisplayName)
	assert.Equal(t, "jane@corp.example", info.Email)
	assert.True(t, fc.closed)
}

func TestLookupFallbackChains(t *testing.T) {
	fc := &fakeConn{entries: []*ldap.Entry{entry(map[string]string{
		"sAMAccountName":    "jdoe",
		"userPrincipalName": "jdoe@corp.example",
	})}}
	client, _ := configuredClient(fc, nil)

	info := client.LookupByAccountName(context.Background(), "jdoe")
	require.NotNil(t, info)
	assert.Equal(t, "jdoe@corp.example", info.DisplayName)
	assert.Equal(t, "jdoe@corp.example", info.Email)
}

func TestLookupEscapesFilter(t *testing.T) {
	fc := &fakeConn{}
	client, _ := configuredClient(fc, nil)

	client.LookupByAccountName(context.Background(), "j*doe")
	require.NotNil(t, fc.lastReq)
	assert.NotContains(t, fc.lastReq.Filter, "j*doe")
}

func TestLookupAbsorbsFailures(t *testing.T) {
	t.Run("dial", func(t *testing.T) {
		client, _ := configuredClient(nil, errors.New("connection refused"))
		assert.Nil(t, client.LookupByAccountName(context.Background(), "jdoe"))
	})
	t.Run("bind", func(t *testing.T) {
		fc := &fakeConn{bindErr: errors.New("invalid credentials")}
		client, _ := configuredClient(fc, nil)
		assert.Nil(t, client.LookupByAccountName(context.Background(), "jdoe"))
		assert.True(t, fc.closed)
	})
	t.Run("search", func(t *testing.T) {
		fc := &fakeConn{searchErr: errors.New("size limit exceeded")}
		client, _ := configuredClient(fc, nil)
		assert.Nil(t, client.LookupByAccountName(context.Background(), "jdoe"))
		assert.True(t, fc.closed)
	})
	t.Run("no match", func(t *testing.T) {
		fc := &fakeConn{}
		client, _ := configuredClient(fc, nil)
		assert.Nil(t, client.LookupByAccountName(context.Background(), "jdoe"))
	})
}

func TestSearchUsersWildcardsQuery(t *testing.T) {
	fc := &fakeConn{entries: []*ldap.Entry{
		entry(map[string]string{"sAMAccountName": "jdoe", "displayName": "Jane Doe"}),
		entry(map[string]string{"sAMAccountName": "jsmith", "displayName": "John Smith"}),
	}}
	client, _ := configuredClient(fc, nil)

	results := client.SearchUsers(context.Background(), "j", 10)
	require.Len(t, results, 2)
	assert.Contains(t, fc.lastReq.Filter, "*j*")
	assert.Equal(t, 10, fc.lastReq.SizeLimit)
}

func TestSearchUsersEmptyQueryMatchesAll(t *testing.T) {
	fc := &fakeConn{}
	client, _ := configuredClient(fc, nil)

	client.SearchUsers(context.Background(), "", 5)
	require.NotNil(t, fc.lastReq)
	assert.Contains(t, fc.lastReq.Filter, "(displayName=*)")
}

func TestSearchUsersFailureReturnsEmpty(t *testing.T) {
	client, _ := configuredClient(nil, errors.New("connection refused"))
	results := client.SearchUsers(context.Background(), "j", 10)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
