// Package matcher ranks job postings by their distance from the user.
package matcher

import (
	"sort"

	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

// Annotate computes the distance from origin to every job. Jobs without
// parseable coordinates get a nil distance. Input order is preserved.
func Annotate(origin location.GeoPoint, jobs []models.JobPosting) []models.RankedJob {
	ranked := make([]models.RankedJob, len(jobs))
	for i, job := range jobs {
		ranked[i] = models.RankedJob{JobPosting: job}
		if job.LocationCoords == nil {
			continue
		}
		point, ok := location.ParseCoords(*job.LocationCoords)
		if !ok {
			continue
		}
		d := location.Distance(origin, point)
		ranked[i].Distance = &d
	}
	return ranked
}

// RankJobs returns the jobs within radiusKm of origin (inclusive), nearest
// first. Equal distances keep their input order. A nil origin yields an empty
// result; jobs with missing or malformed coordinates are dropped.
func RankJobs(origin *location.GeoPoint, jobs []models.JobPosting, radiusKm float64) []models.RankedJob {
	if origin == nil {
		return []models.RankedJob{}
	}

	nearby := make([]models.RankedJob, 0, len(jobs))
	for _, job := range Annotate(*origin, jobs) {
		if job.Distance != nil && *job.Distance <= radiusKm {
			nearby = append(nearby, job)
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return *nearby[i].Distance < *nearby[j].Distance
	})
	return nearby
}
