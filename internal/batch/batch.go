// Package batch runs a bulk relocation over a list of object identifiers,
// classifying the outcome of every item and accumulating run totals.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	adldap "github.com/8bits1beard-io/admove/internal/ldap"
	"github.com/8bits1beard-io/admove/internal/logging"
)

// Outcome classifies the result of relocating a single object.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	PermissionDenied
	OtherFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case PermissionDenied:
		return "permission_denied"
	case OtherFailure:
		return "other_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Directory is the capability the run loop needs from the directory
// service: resolve an identifier to an object and move an object to a new
// parent. *ldap.Resolver satisfies it.
type Directory interface {
	Resolve(ctx context.Context, identifier string) (*adldap.Object, error)
	Move(ctx context.Context, dn, destinationDN string) error
}

// Result holds the accumulated totals of a run.
type Result struct {
	TotalProcessed int
	Successful     int
	Failed         int
	LogPath        string
}

// Run relocates each identifier into destinationDN, one at a time, in input
// order. Every item is attempted regardless of earlier failures; only
// context cancellation stops the loop early. The returned totals satisfy
// Successful + Failed == TotalProcessed.
func Run(ctx context.Context, identifiers []string, destinationDN string, dir Directory, log *slog.Logger) Result {
	var result Result

	for _, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			log.Warn("run aborted before all objects were processed",
				"remaining", len(identifiers)-result.TotalProcessed,
				"error", err)
			break
		}

		result.TotalProcessed++
		outcome := processOne(ctx, identifier, destinationDN, dir, log)
		if outcome == Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	return result
}

// processOne resolves and moves a single object, logging the outcome.
func processOne(ctx context.Context, identifier, destinationDN string, dir Directory, log *slog.Logger) Outcome {
	obj, err := dir.Resolve(ctx, identifier)
	if err != nil {
		return logFailure(log, identifier, err)
	}

	if err := dir.Move(ctx, obj.DN, destinationDN); err != nil {
		return logFailure(log, identifier, err)
	}

	log.Log(ctx, logging.LevelSuccess, "moved object to destination",
		"identifier", identifier,
		"dn", obj.DN,
		"destination", destinationDN)
	return Success
}

// logFailure classifies err, writes the matching audit entry, and returns
// the outcome.
func logFailure(log *slog.Logger, identifier string, err error) Outcome {
	outcome := Classify(err)
	switch outcome {
	case NotFound:
		log.Error(fmt.Sprintf("object %q not found in directory", identifier),
			"identifier", identifier,
			"error", err)
	case PermissionDenied:
		log.Error("permission denied moving object",
			"identifier", identifier,
			"error", err)
	default:
		log.Error("failed to move object",
			"identifier", identifier,
			"error", err)
	}
	return outcome
}

// Classify maps a directory error to its outcome category.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, adldap.ErrNotFound):
		return NotFound
	case errors.Is(err, adldap.ErrPermissionDenied):
		return PermissionDenied
	default:
		return OtherFailure
	}
}
