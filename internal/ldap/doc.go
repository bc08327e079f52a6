/*
Package ldap provides the Active Directory client layer for admove.

The package is organized into a few core components:

  - Client: connection management with pooling, retry, and TLS/StartTLS
  - Resolver: identifier resolution and object relocation (ModifyDN)
  - Handlers: GUID and SID conversion between AD binary and string forms
  - Discovery: SRV-based domain controller discovery with fallback

# Connection Management

The Client interface wraps a small connection pool with automatic
failover across discovered servers, retry with exponential backoff for
transport failures, and simple-bind or Kerberos (GSSAPI) authentication.
Retry applies to the transport only; callers decide what a failed
operation means.

# Identifier Resolution

Resolver accepts work-item identifiers in DN, objectGUID, objectSid, or
plain-name form (sAMAccountName or CN, with or without the trailing $ of
device accounts), detects the format, and searches accordingly.
Resolution is read-only; Move is the only mutating operation.

# Error Handling

Errors are classified into categories (connection, authentication,
permission, not_found, validation, server, unknown) via DirectoryError.
Callers match categories with errors.Is against the ErrNotFound,
ErrPermissionDenied, and ErrUnauthenticated sentinels, or the
IsNotFoundError/IsPermissionError helpers.
*/
package ldap
