package ldap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Object is a resolved directory object.
type Object struct {
	DN             string
	Name           string
	SAMAccountName string
	GUID           string
	SID            string
	Class          string // Most specific objectClass value
}

// resolveAttributes are fetched for every resolution.
var resolveAttributes = []string{
	"distinguishedName", "objectGUID", "objectSid",
	"cn", "name", "sAMAccountName", "objectClass",
}

// Resolver resolves work-item identifiers to directory objects and moves
// them between containers. Resolution is read-only; only Move mutates.
type Resolver struct {
	client  Client
	baseDN  string
	timeout time.Duration
}

// NewResolver creates a resolver searching under baseDN.
func NewResolver(client Client, baseDN string) *Resolver {
	return &Resolver{
		client:  client,
		baseDN:  baseDN,
		timeout: 30 * time.Second,
	}
}

// SetTimeout sets the directory operation timeout.
func (r *Resolver) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// Resolve looks up a single directory object by identifier. The identifier
// may be a DN, an objectGUID, an objectSid, or a plain name
// (sAMAccountName or CN; device accounts match with or without the
// trailing $). A missing object yields a not_found classified error; an
// identifier matching more than one object is a validation error.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*Object, error) {
	req, err := r.buildSearchRequest(identifier)
	if err != nil {
		return nil, WrapError("resolve", err)
	}

	result, err := r.client.Search(ctx, req)
	if err != nil {
		// A base-scope search for a nonexistent DN fails with
		// noSuchObject rather than returning zero entries.
		if IsNotFoundError(err) {
			return nil, NewNotFoundError("resolve", identifier)
		}
		return nil, WrapError("resolve", err)
	}

	switch len(result.Entries) {
	case 0:
		return nil, NewNotFoundError("resolve", identifier)
	case 1:
		return entryToObject(result.Entries[0]), nil
	default:
		return nil, &DirectoryError{
			Operation: "resolve",
			Category:  ErrorCategoryValidation,
			Message:   fmt.Sprintf("identifier %q is ambiguous: matched %d objects", identifier, len(result.Entries)),
		}
	}
}

// buildSearchRequest constructs the search matching an identifier's format.
func (r *Resolver) buildSearchRequest(identifier string) (*SearchRequest, error) {
	req := &SearchRequest{
		BaseDN:     r.baseDN,
		Scope:      ScopeWholeSubtree,
		Attributes: resolveAttributes,
		SizeLimit:  2, // One to match, one to detect ambiguity
		TimeLimit:  r.timeout,
	}

	switch kind := DetectIdentifierType(identifier); kind {
	case IdentifierTypeDN:
		req.BaseDN = identifier
		req.Scope = ScopeBaseObject
		req.Filter = "(objectClass=*)"
		req.SizeLimit = 1

	case IdentifierTypeGUID:
		filter, err := GUIDSearchFilter(identifier)
		if err != nil {
			return nil, err
		}
		req.Filter = filter

	case IdentifierTypeSID:
		filter, err := SIDSearchFilter(identifier)
		if err != nil {
			return nil, err
		}
		req.Filter = filter

	case IdentifierTypeName:
		name := EscapeFilterValue(identifier)
		req.Filter = fmt.Sprintf(
			"(|(sAMAccountName=%s)(sAMAccountName=%s$)(cn=%s)(name=%s))",
			name, name, name, name,
		)

	default:
		return nil, fmt.Errorf("unrecognized identifier format: %s", identifier)
	}

	return req, nil
}

// Move relocates the object at dn into destinationDN, keeping its RDN.
// Moving an object already in the destination is a no-op success.
func (r *Resolver) Move(ctx context.Context, dn, destinationDN string) error {
	if dn == "" {
		return fmt.Errorf("object DN cannot be empty")
	}

	if destinationDN == "" {
		return fmt.Errorf("destination DN cannot be empty")
	}

	parent, err := ParentDN(dn)
	if err != nil {
		return WrapError("move", err)
	}

	if SameDN(parent, destinationDN) {
		return nil
	}

	rdn, err := LeafRDN(dn)
	if err != nil {
		return WrapError("move", err)
	}

	return r.client.ModifyDN(ctx, &ModifyDNRequest{
		DN:           dn,
		NewRDN:       rdn,
		DeleteOldRDN: true,
		NewSuperior:  destinationDN,
	})
}

// ValidateDestination verifies that the destination DN exists and is a
// container that can hold objects. Run once before a batch so an invalid
// destination fails fast instead of once per item.
func (r *Resolver) ValidateDestination(ctx context.Context, destinationDN string) error {
	if destinationDN == "" {
		return fmt.Errorf("destination DN cannot be empty")
	}

	if _, err := ldap.ParseDN(destinationDN); err != nil {
		return &DirectoryError{
			Operation: "validate_destination",
			Category:  ErrorCategoryValidation,
			Message:   fmt.Sprintf("invalid destination DN syntax: %v", err),
			DN:        destinationDN,
			Cause:     err,
		}
	}

	result, err := r.client.Search(ctx, &SearchRequest{
		BaseDN:     destinationDN,
		Scope:      ScopeBaseObject,
		Filter:     "(|(objectClass=organizationalUnit)(objectClass=container)(objectClass=builtinDomain))",
		Attributes: []string{"distinguishedName", "objectClass"},
		SizeLimit:  1,
		TimeLimit:  r.timeout,
	})
	if err != nil {
		if IsNotFoundError(err) {
			return NewNotFoundError("validate_destination", destinationDN)
		}
		return WrapError("validate_destination", err)
	}

	if len(result.Entries) == 0 {
		return NewNotFoundError("validate_destination", destinationDN)
	}

	return nil
}

// entryToObject converts a directory entry to an Object.
func entryToObject(entry *ldap.Entry) *Object {
	obj := &Object{
		DN:             entry.DN,
		SAMAccountName: entry.GetAttributeValue("sAMAccountName"),
		SID:            ExtractSID(entry),
	}

	if obj.DN == "" {
		obj.DN = entry.GetAttributeValue("distinguishedName")
	}

	obj.Name = entry.GetAttributeValue("cn")
	if obj.Name == "" {
		obj.Name = entry.GetAttributeValue("name")
	}

	if guid, err := ExtractGUID(entry); err == nil {
		obj.GUID = guid
	}

	// objectClass is multi-valued, most specific last
	if classes := entry.GetAttributeValues("objectClass"); len(classes) > 0 {
		obj.Class = classes[len(classes)-1]
	}

	return obj
}
