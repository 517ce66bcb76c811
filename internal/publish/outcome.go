package publish

import (
	"fmt"

	"github.com/AndreyAkinshin/taptally/internal/config"
	"github.com/AndreyAkinshin/taptally/internal/errors"
)

// Outcome is the build result derived from a published report.
type Outcome int

const (
	Success Outcome = iota
	Unstable
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Unstable:
		return "unstable"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Worse returns the more severe of o and other.
func (o Outcome) Worse(other Outcome) Outcome {
	if other > o {
		return other
	}
	return o
}

// ExitCode returns the CLI exit code for the outcome.
func (o Outcome) ExitCode() int {
	switch o {
	case Success:
		return errors.ExitSuccess
	case Unstable:
		return errors.ExitUnstable
	default:
		return errors.ExitRuntimeError
	}
}

// Decide turns a publish result into a build outcome and the reasons for
// it. The worst applicable outcome wins:
//
//   - no report files: Failure with build.fail_if_no_results, else Success
//   - report files that failed to parse: Unstable
//   - plan mismatch with report.validate_number_of_tests: Unstable
//   - failed tests: Failure with build.failed_tests_mark_build_as_failure,
//     else Unstable
func Decide(res *Result, cfg *config.Config) (Outcome, []string) {
	if len(res.Files) == 0 {
		if cfg.Build.FailIfNoResults {
			return Failure, []string{"no TAP reports found"}
		}
		return Success, nil
	}

	outcome := Success
	var reasons []string

	if n := len(res.ParseFailures()); n > 0 {
		outcome = outcome.Worse(Unstable)
		reasons = append(reasons, fmt.Sprintf("%d TAP report(s) could not be parsed", n))
	}

	if cfg.Report.ValidateNumberOfTests && res.Report.PlanMismatch() {
		outcome = outcome.Worse(Unstable)
		reasons = append(reasons, "number of tests does not match the TAP plan")
	}

	if failed := res.Report.Counters().Failed; failed > 0 {
		if cfg.Build.FailedTestsMarkBuildAsFailure {
			outcome = outcome.Worse(Failure)
		} else {
			outcome = outcome.Worse(Unstable)
		}
		reasons = append(reasons, fmt.Sprintf("%d test(s) failed", failed))
	}

	return outcome, reasons
}
