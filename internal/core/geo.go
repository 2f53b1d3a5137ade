package core

import (
	"fmt"
	"math"
)

// formatDMS renders a coordinate pair as degrees/minutes/seconds,
// e.g. 53°18′44″ N, 6°15′45″ W.
func formatDMS(lat, lon float64) string {
	latDir, lonDir := "N", "E"
	if lat < 0 {
		latDir = "S"
	}
	if lon < 0 {
		lonDir = "W"
	}
	return fmt.Sprintf("%s %s, %s %s", dms(lat), latDir, dms(lon), lonDir)
}

// dms rounds to whole seconds first so 59.6″ carries into the minute.
func dms(decimal float64) string {
	total := int(math.Round(math.Abs(decimal) * 3600))
	return fmt.Sprintf("%d°%d′%d″", total/3600, total%3600/60, total%60)
}
