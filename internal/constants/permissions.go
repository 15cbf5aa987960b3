package constants

const (
	ReviewDeposits    = "review_deposits"
	ManagePlans       = "manage_plans"
	ManageInvestments = "manage_investments"
	ManageSignals     = "manage_signals"
	RunJobs           = "run_jobs"
)
