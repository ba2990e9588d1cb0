// Package report counts and presents the outcomes of a bookdl run.
//
// # Events
//
// Every outcome (book page failure, missing content region, download
// success or failure) is logged once on the context logger and passed to the
// optional OnEvent callback:
//
//	reporter := report.NewReporter()
//	reporter.OnEvent = func(event report.Event) {
//	    fmt.Println(report.RenderEvent(event))
//	}
//
// Levels map onto log levels: LevelVerbose is debug, LevelInfo and
// LevelSuccess are info, LevelWarning is warn, LevelError is error.
//
// # Metrics
//
// Counters live in a registry owned by the Reporter. WriteMetrics stores
// them in the textfile collector format:
//
//	bookdl_downloads_total{kind="",result="succeeded"} 2
//	bookdl_downloads_total{kind="permanent",result="failed"} 1
//
// # Summary
//
// RenderSummary draws the final counts in a box for the terminal.
package report
