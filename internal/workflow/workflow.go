package workflow

import (
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"github.com/skybi/netaccess/internal/netaccess"
)

var (
	// ErrLoginFailed is returned when the portal did not accept the credentials
	ErrLoginFailed = errors.New("login failed")

	// ErrApprovalFailed is returned when the portal did not accept the machine approval
	ErrApprovalFailed = errors.New("machine approval failed")
)

// Credentials represents the portal login of a single user
type Credentials struct {
	Username string
	Password string
}

// Portal defines the portal operations the workflow drives
type Portal interface {
	Login(ctx context.Context, username, password string) bool
	ApproveMachine(ctx context.Context, duration netaccess.Duration) bool
	GetAuthorizedMachines(ctx context.Context) (string, bool)
}

var _ Portal = (*netaccess.Client)(nil)

// Options tunes a single workflow run
type Options struct {
	// Duration is the approval window; the zero value means netaccess.DurationDay
	Duration netaccess.Duration

	// FetchMachines defines whether to fetch the authorized machines page after the approval
	FetchMachines bool
}

// Result represents the outcome of a successful run
type Result struct {
	// MachinesPage holds the raw authorized machines page if it was requested and could be fetched
	MachinesPage string
}

// Run logs in, approves the machine and optionally fetches the authorized machines page.
// The first failing step stops the run.
func Run(ctx context.Context, portal Portal, creds Credentials, opts Options) (*Result, error) {
	duration := opts.Duration
	if duration == 0 {
		duration = netaccess.DurationDay
	}

	log.Info().Str("username", creds.Username).Msg("logging in...")
	if !portal.Login(ctx, creds.Username, creds.Password) {
		return nil, ErrLoginFailed
	}

	log.Info().Stringer("duration", duration).Msg("approving machine...")
	if !portal.ApproveMachine(ctx, duration) {
		return nil, ErrApprovalFailed
	}

	result := new(Result)
	if opts.FetchMachines {
		page, ok := portal.GetAuthorizedMachines(ctx)
		if ok {
			log.Info().Int("bytes", len(page)).Msg("retrieved the authorized machines page")
			result.MachinesPage = page
		} else {
			log.Warn().Msg("could not retrieve the authorized machines page")
		}
	}
	return result, nil
}
