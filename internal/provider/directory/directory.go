// Package directory implements the "directory" provider: an LDAP search
// against a directory service. Grounded on
// original_source/flow/connectors/ldap.py.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap"

	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

func init() {
	provider.RegisterPlugin("directory", New)
}

// Directory performs one LDAP search per Call.
type Directory struct {
	uri          string
	bindDN       string
	bindPassword string
	baseDN       string
	filter       string
	attributes   []string
}

// New constructs a Directory provider from its rendered configuration.
// "uri" and "base_dn" are required; an anonymous bind is used when
// "bind_dn"/"bind_password" are absent.
func New(cfg map[string]interface{}) (provider.Provider, error) {
	uri, ok := cfg["uri"].(string)
	if !ok || uri == "" {
		return nil, fmt.Errorf("directory: \"uri\" is required")
	}
	baseDN, ok := cfg["base_dn"].(string)
	if !ok || baseDN == "" {
		return nil, fmt.Errorf("directory: \"base_dn\" is required")
	}

	d := &Directory{
		uri:    uri,
		baseDN: baseDN,
		filter: "(objectClass=*)",
	}
	if v, ok := cfg["bind_dn"].(string); ok {
		d.bindDN = v
	}
	if v, ok := cfg["bind_password"].(string); ok {
		d.bindPassword = v
	}
	if v, ok := cfg["filter"].(string); ok && v != "" {
		d.filter = v
	}
	if raw, ok := cfg["attributes"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				d.attributes = append(d.attributes, s)
			}
		}
	}
	return d, nil
}

// Call runs the configured search. The rendered payload, if a string, is
// substituted for "%s" in the filter (a convenience most flows use to
// search by a single templated uid).
func (d *Directory) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	conn, err := ldap.DialURL(d.uri)
	if err != nil {
		return result.FromException(err), nil
	}
	defer conn.Close()

	if d.bindDN != "" {
		if err := conn.Bind(d.bindDN, d.bindPassword); err != nil {
			return result.FromException(err), nil
		}
	} else {
		if err := conn.UnauthenticatedBind(""); err != nil {
			return result.FromException(err), nil
		}
	}

	filter := d.filter
	if s, ok := payload.(string); ok && s != "" && strings.Contains(filter, "%s") {
		filter = fmt.Sprintf(filter, s)
	}

	req := ldap.NewSearchRequest(
		d.baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		d.attributes,
		nil,
	)

	sr, err := conn.Search(req)
	if err != nil {
		return result.FromException(err), nil
	}

	entries := make([]interface{}, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		m := map[string]interface{}{"dn": entry.DN}
		for _, attr := range entry.Attributes {
			if len(attr.Values) == 1 {
				m[attr.Name] = attr.Values[0]
			} else {
				vals := make([]interface{}, len(attr.Values))
				for i, v := range attr.Values {
					vals[i] = v
				}
				m[attr.Name] = vals
			}
		}
		entries = append(entries, m)
	}

	return result.Make(true, nil, entries, nil, nil), nil
}
