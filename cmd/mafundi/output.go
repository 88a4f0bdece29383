package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mafundi/mafundi-cli/internal/api"
	"github.com/mafundi/mafundi-cli/internal/constants"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/services"
	"github.com/mafundi/mafundi-cli/internal/session"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

// userMessage turns an error into the text shown to the user.
func userMessage(err error) string {
	var verr *models.ValidationError
	var nerr *api.NetworkError

	switch {
	case errors.Is(err, session.ErrNoSession):
		return "You are not logged in. Run: mafundi login"
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &nerr) && nerr.IsUnauthorized():
		if msg := nerr.UserMessage(); msg != "" && nerr.Op == "login" {
			return msg
		}
		return "Your session has expired. Run: mafundi login"
	case errors.Is(err, services.ErrJobsLoadFailed):
		return "Failed to load jobs."
	case errors.As(err, &nerr):
		if msg := nerr.UserMessage(); msg != "" {
			return msg
		}
		if nerr.StatusCode == 0 {
			return "Could not reach the server. Check your connection and try again."
		}
		return fmt.Sprintf("The server returned an error (%d).", nerr.StatusCode)
	case errors.Is(err, location.ErrPermissionDenied):
		return "Permission to access location was denied."
	case errors.Is(err, location.ErrLocationUnavailable):
		return "Could not get current location."
	case errors.Is(err, services.ErrRoleNotAllowed):
		return "This command is not available for your account type."
	case errors.Is(err, services.ErrJobNotOpen):
		return "This job is no longer open for applications."
	}
	return err.Error()
}

func (a *app) printFeed(feed services.Feed, radiusKm float64) {
	switch feed.Location.Status {
	case models.LocationResolved:
		fmt.Fprintf(a.out, "Your location: %s\n", feed.Location.Point)
	case models.LocationManualEntry:
		fmt.Fprintf(a.out, "Your location: %s\n", feed.Location.Label)
		fmt.Fprintln(a.out, "Manual locations are not geocoded. Use GPS to see jobs near you.")
		return
	case models.LocationDenied:
		fmt.Fprintln(a.out, "Location permission denied. Enter your location with -manual.")
		return
	default:
		fmt.Fprintln(a.out, "Location unknown. Enter your location with -manual.")
		return
	}

	if len(feed.Jobs) == 0 {
		fmt.Fprintf(a.out, "No jobs found within %s km of your location.\n", formatNumber(radiusKm))
		return
	}

	fmt.Fprintf(a.out, "Jobs Near Me: %d of %d within %s km\n\n", len(feed.Jobs), feed.Total, formatNumber(radiusKm))
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tBUDGET\tDISTANCE")
	for _, job := range feed.Jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", job.ID, job.Title, job.Location, formatBudget(job.Budget), formatDistance(job.Distance))
	}
	w.Flush()
}

func (a *app) printJob(job models.JobPosting, user models.User) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", job.Title)
	fmt.Fprintf(w, "Location:\t%s\n", job.Location)
	fmt.Fprintf(w, "Budget:\t%s\n", formatBudget(job.Budget))
	fmt.Fprintf(w, "Status:\t%s\n", strings.ToUpper(job.Status))
	w.Flush()

	if job.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", job.Description)
	}
	if user.IsFundi() && job.Status == constants.JobStatusOpen {
		fmt.Fprintf(a.out, "\nApply with: mafundi apply %s\n", job.ID)
	}
}

func (a *app) printMyApplications(apps []models.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(a.out, "You have not applied for any jobs yet.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tLOCATION\tSTATUS")
	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", jobTitle(app), app.Location, app.Status)
	}
	w.Flush()
}

func (a *app) printJobApplications(apps []models.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(a.out, "No applications for your jobs yet.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tAPPLICANT\tLOCATION\tSTATUS\tCOVER LETTER")
	for _, app := range apps {
		applicant := string(app.UserID)
		if app.User != nil {
			applicant = app.User.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", jobTitle(app), applicant, app.Location, app.Status, app.CoverLetter)
	}
	w.Flush()
}

func jobTitle(app models.Application) string {
	if app.Job != nil && app.Job.Title != "" {
		return app.Job.Title
	}
	return "#" + string(app.JobID)
}

func formatBudget(amount models.Amount) string {
	return "KES " + formatNumber(float64(amount))
}

func formatDistance(km *float64) string {
	if km == nil {
		return "-"
	}
	return strconv.FormatFloat(*km, 'f', 1, 64) + " km"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
