package econ

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// RegenInterval is the time one energy point takes to come back. The
	// regeneration clock advances by whole intervals only, so fractional
	// progress is never lost between commands.
	RegenInterval = 5 * time.Minute

	WorkEnergyCost = 15
	WorkCooldown   = 30 * time.Minute

	// SkimBps is the share of a catalog salary minted into the worker's
	// company treasury, in basis points.
	SkimBps = 1_000

	// DefaultCompanySalary is the company-job payout when the owner has not
	// set an override.
	DefaultCompanySalary = int64(350)
)

// Error taxonomy the dispatcher maps onto replies. Operations wrap one of
// these sentinels with the detail; callers test with errors.Is.
var (
	ErrValidation   = errors.New("invalid input")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage unavailable")
)

func errf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

var companyNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 '&.-]{2,31}$`)

var blockedNameFragments = []string{
	"admin",
	"mod",
	"support",
	"staff",
	"owner",
}

func validateCompanyName(name string) error {
	if !companyNameRE.MatchString(name) {
		return errf(ErrValidation, "company name must be 3-32 letters, digits or spaces")
	}
	lower := strings.ToLower(name)
	for _, frag := range blockedNameFragments {
		if strings.Contains(lower, frag) {
			return errf(ErrValidation, "company name contains a reserved word")
		}
	}
	return nil
}

// CooldownRemaining is the Cooldown Gate: how long until an action stamped at
// last is allowed again. Pure, and fed only from persisted account state so
// throttling survives restarts.
func CooldownRemaining(last time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if last.IsZero() {
		return 0
	}
	rem := cooldown - now.Sub(last)
	if rem < 0 {
		return 0
	}
	return rem
}
