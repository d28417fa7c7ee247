package pipeline

import "fxpipe/internal/fx"

// Global artifact keys.
const (
	KeyPairs       = "pairs"
	KeyDates       = "dates"
	KeyMissingData = "missing_data"

	// MonthlyStatsSuffix ends the key of every monthly statistics artifact.
	MonthlyStatsSuffix = "_monthly_stats"
)

// Stage names stamped on task logs.
const (
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageExtract   = "extract"
	StageAggregate = "aggregate"
	StageReconcile = "reconcile"
	StageSink      = "sink"
)

// Static task and spawn identities.
const (
	TaskCollectPairs = "collect-pairs"
	TaskCollectDates = "collect-dates"
	SpawnReconcile   = "reconcile"
	TaskMissingData  = "missing-data"
)

// DownloadKey names the verbatim ECB download of a pair.
func DownloadKey(p fx.Pair) string { return "ECB_" + p.String() }

// PricesKey names the normalized price artifact of a pair.
func PricesKey(p fx.Pair) string { return p.String() }

// PairsPartKey names the per-source partial pair list.
func PairsPartKey(p fx.Pair) string { return p.String() + "_pairs" }

// DatesPartKey names the per-source partial date list.
func DatesPartKey(p fx.Pair) string { return p.String() + "_dates" }

// MonthlyStatsKey names the monthly statistics of a pair.
func MonthlyStatsKey(p fx.Pair) string { return p.String() + MonthlyStatsSuffix }

// MissingDataKey names the per-pair missing-month report.
func MissingDataKey(p fx.Pair) string { return p.String() + "_missing_data" }

func fetchTaskID(p fx.Pair) string     { return "fetch:" + p.String() }
func normalizeTaskID(p fx.Pair) string { return "normalize:" + p.String() }
func pairsPartTaskID(p fx.Pair) string { return "pairs-part:" + p.String() }
func datesPartTaskID(p fx.Pair) string { return "dates-part:" + p.String() }
func monthlyTaskID(p fx.Pair) string   { return "monthly:" + p.String() }
func reconcileTaskID(p fx.Pair) string { return "reconcile:" + p.String() }
