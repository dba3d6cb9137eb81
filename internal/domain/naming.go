package domain

import "time"

const (
	masterName     = "Hotspot_Data"
	testMasterName = "Hotspot_Data_TEST"
	archivePrefix  = "Hotspot"
	archiveLayout  = "20060102"
)

// RunNames are the dataset names used by one pipeline run.
type RunNames struct {
	Master  string
	Archive string
}

// NamesFor derives the master and archive names for a run started at now. The
// archive is stamped lagDays before the run date in loc, since the snapshot
// holds the feed contents of that earlier day. Test mode only changes names.
func NamesFor(now time.Time, loc *time.Location, lagDays int, testMode bool) RunNames {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	stamp := time.Date(local.Year(), local.Month(), local.Day()-lagDays, 0, 0, 0, 0, loc).Format(archiveLayout)

	if testMode {
		return RunNames{Master: testMasterName, Archive: testMasterName + "_" + stamp}
	}
	return RunNames{Master: masterName, Archive: archivePrefix + "_" + stamp}
}
