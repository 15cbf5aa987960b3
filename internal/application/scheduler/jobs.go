package scheduler

import (
	"context"
	"fmt"
	"time"

	"coinease-backend/internal/application/investments"
	"coinease-backend/internal/application/payouts"
	"coinease-backend/internal/application/signals"
)

const (
	JobProcessInvestments     = "process-investments"
	JobFixInvestmentDates     = "fix-investment-dates"
	JobCheckSignalExpirations = "check-signal-expirations"
)

func ProcessInvestmentsJob(r *payouts.Runner, every time.Duration) Job {
	return Job{
		Name:     JobProcessInvestments,
		Interval: every,
		Run: func(ctx context.Context, now time.Time) (string, error) {
			sum, err := r.RunOnce(ctx, now)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("evaluated %d, failed %d, credited %s", sum.Evaluated, sum.Failed, sum.Credited.StringFixed(2)), nil
		},
	}
}

func FixInvestmentDatesJob(svc *investments.Service) Job {
	return Job{
		Name: JobFixInvestmentDates,
		Run: func(ctx context.Context, now time.Time) (string, error) {
			n, err := svc.BackfillNextPayouts(ctx, now)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("scheduled %d investments", n), nil
		},
	}
}

func CheckSignalExpirationsJob(svc *signals.Service, every time.Duration) Job {
	return Job{
		Name:     JobCheckSignalExpirations,
		Interval: every,
		Run: func(ctx context.Context, now time.Time) (string, error) {
			rep, err := svc.CheckExpirations(ctx, now)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("warned %d, expired %d, mail failures %d", rep.Warned, rep.Expired, rep.MailFailed), nil
		},
	}
}
